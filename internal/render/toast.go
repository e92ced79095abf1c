package render

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"admin-notifier/internal/currency"
	"admin-notifier/internal/model"

	"github.com/google/uuid"
)

const (
	ToastTitle = "Đơn hàng mới"
	// ToastTTL: сколько тост висит на экране администратора.
	ToastTTL = 10 * time.Second
)

var toastHTML = template.Must(template.New("toast").Parse(
	`<div class="toast-body"><i class="bi bi-receipt me-2"></i>` +
		`{{.Title}} <strong>#{{.OrderCode}}</strong> từ {{.CustomerName}} ({{.Amount}}).` +
		`{{if .Link}} <a href="{{.Link}}" class="ms-2 fw-bold text-white">Xem</a>{{end}}</div>`))

type Toaster struct {
	baseURL string
	ttl     time.Duration
	now     func() time.Time
	newID   func() string
}

func NewToaster(adminBaseURL string) *Toaster {
	return &Toaster{
		baseURL: strings.TrimRight(adminBaseURL, "/"),
		ttl:     ToastTTL,
		now:     time.Now,
		newID:   func() string { return "toast-" + uuid.NewString() },
	}
}

// OrderLink строит ссылку на карточку заказа в админке.
func (t *Toaster) OrderLink(orderID model.OrderID) string {
	if orderID == "" {
		return ""
	}
	return t.baseURL + "/admin/orders/" + url.PathEscape(orderID.String())
}

func (t *Toaster) Build(n model.Notification) (model.Toast, error) {
	amount := currency.FormatVND(n.TotalAmount)
	link := t.OrderLink(n.OrderID)

	var buf bytes.Buffer
	err := toastHTML.Execute(&buf, struct {
		Title        string
		OrderCode    string
		CustomerName string
		Amount       string
		Link         string
	}{ToastTitle, n.OrderCode, n.CustomerName, amount, link})
	if err != nil {
		return model.Toast{}, err
	}

	created := n.ReceivedAt
	if created.IsZero() {
		created = t.now()
	}
	return model.Toast{
		ID:        t.newID(),
		OrderID:   n.OrderID.String(),
		Title:     ToastTitle,
		Body:      fmt.Sprintf("%s #%s từ %s (%s).", ToastTitle, n.OrderCode, n.CustomerName, amount),
		HTML:      buf.String(),
		Link:      link,
		CreatedAt: created,
		Expires:   created.Add(t.ttl),
	}, nil
}
