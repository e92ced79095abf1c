package sender

import (
	"bytes"
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"admin-notifier/internal/model"

	"go.uber.org/zap"
	gopkgmail "gopkg.in/gomail.v2"
)

func testToast() model.Toast {
	return model.Toast{
		ID:        "toast-1",
		OrderID:   "21",
		Title:     "Đơn hàng mới",
		Body:      "Đơn hàng mới #DH21 từ Bình (150.000 ₫).",
		Link:      "https://shop.local/admin/orders/21",
		CreatedAt: time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC),
	}
}

func testConfig() SMTPConfig {
	return SMTPConfig{Host: "smtp.local", Port: 587, From: "shop@local", To: "admin@local"}
}

func TestEmailSender_Show(t *testing.T) {
	s := NewEmailSender(testConfig(), zap.NewNop())

	var sent *gopkgmail.Message
	s.send = func(m *gopkgmail.Message) error {
		sent = m
		return nil
	}

	if err := s.Show(context.Background(), testToast()); err != nil {
		t.Fatalf("Show: %v", err)
	}
	if sent == nil {
		t.Fatal("no message sent")
	}
	if got := sent.GetHeader("To"); len(got) != 1 || got[0] != "admin@local" {
		t.Fatalf("To = %v", got)
	}
	got := sent.GetHeader("Subject")
	if len(got) != 1 {
		t.Fatalf("Subject = %v", got)
	}
	subject, err := new(mime.WordDecoder).DecodeHeader(got[0])
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if subject != "Đơn hàng mới #21" {
		t.Fatalf("Subject = %q", subject)
	}

	var buf bytes.Buffer
	if _, err := sent.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "text/plain") || !strings.Contains(raw, "text/html") {
		t.Fatalf("expected multipart alternative body, got:\n%s", raw)
	}
}

func TestEmailSender_SendError(t *testing.T) {
	s := NewEmailSender(testConfig(), zap.NewNop())
	boom := errors.New("smtp down")
	s.send = func(*gopkgmail.Message) error { return boom }

	if err := s.Show(context.Background(), testToast()); !errors.Is(err, boom) {
		t.Fatalf("expected smtp error, got %v", err)
	}
}

func TestEmailSender_TemplateDirOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "new_order.html"), []byte("<b>{{.Body}}</b>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "new_order.txt"), []byte("custom {{.OrderID}}"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.TMPLDir = dir
	s := NewEmailSender(cfg, zap.NewNop())

	plain, err := s.renderPlain(newOrderTemplate, testToast())
	if err != nil {
		t.Fatalf("renderPlain: %v", err)
	}
	if plain != "custom 21" {
		t.Fatalf("plain = %q", plain)
	}
}

func TestEmailSender_MissingTemplate(t *testing.T) {
	cfg := testConfig()
	cfg.TMPLDir = t.TempDir()
	s := NewEmailSender(cfg, zap.NewNop())
	s.send = func(*gopkgmail.Message) error {
		t.Fatal("send must not be called when templates are missing")
		return nil
	}

	if err := s.Show(context.Background(), testToast()); err == nil {
		t.Fatal("expected template error")
	}
}

func TestEmailSender_EmbeddedTemplates(t *testing.T) {
	s := NewEmailSender(testConfig(), zap.NewNop())
	if s.tmpl == nil {
		t.Fatal("embedded templates not set")
	}

	plain, err := s.renderPlain(newOrderTemplate, testToast())
	if err != nil {
		t.Fatalf("renderPlain: %v", err)
	}
	if !strings.Contains(plain, "DH21") {
		t.Fatalf("plain = %q", plain)
	}
	html, err := s.renderHTML(newOrderTemplate, testToast())
	if err != nil {
		t.Fatalf("renderHTML: %v", err)
	}
	if !strings.Contains(html, "https://shop.local/admin/orders/21") {
		t.Fatalf("html = %q", html)
	}
}
