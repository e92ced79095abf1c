package currency

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// NotAvailable возвращается, когда сумма заказа не передана.
	NotAvailable = "N/A"
	SymbolVND    = "₫"
)

var printer = message.NewPrinter(language.Vietnamese)

// FormatVND форматирует сумму в донгах по правилам vi-VN: без дробной части,
// разделитель разрядов: точка, символ валюты после числа.
func FormatVND(amount decimal.NullDecimal) string {
	if !amount.Valid {
		return NotAvailable
	}
	return FormatDecimal(amount.Decimal)
}

func FormatDecimal(amount decimal.Decimal) string {
	whole := amount.Round(0)
	if whole.BigInt().IsInt64() {
		return printer.Sprintf("%d", whole.IntPart()) + " " + SymbolVND
	}
	return groupDigits(whole.StringFixed(0)) + " " + SymbolVND
}

// groupDigits расставляет разделитель разрядов для сумм, не влезающих в int64.
func groupDigits(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
