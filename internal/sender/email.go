package sender

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"path"
	texttemplate "text/template"

	"admin-notifier/internal/model"

	"go.uber.org/zap"
	gopkgmail "gopkg.in/gomail.v2"
)

const (
	newOrderTemplate = "new_order"
	embeddedDir      = "templates"
)

//go:embed templates/*
var embedded embed.FS

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	To       string
	// TMPLDir переопределяет встроенные шаблоны письма.
	TMPLDir string
}

// EmailSender отправляет тост письмом администратору. Используется как
// запасная поверхность, когда админка не открыта ни в одной вкладке.
type EmailSender struct {
	cfg  SMTPConfig
	tmpl fs.FS
	dir  string
	log  *zap.Logger
	send func(m *gopkgmail.Message) error
}

func NewEmailSender(cfg SMTPConfig, log *zap.Logger) *EmailSender {
	var (
		tmpl fs.FS = embedded
		dir        = embeddedDir
	)
	if cfg.TMPLDir != "" {
		tmpl, dir = os.DirFS(cfg.TMPLDir), "."
	}

	d := gopkgmail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	d.SSL = cfg.Port == 465

	return &EmailSender{
		cfg:  cfg,
		tmpl: tmpl,
		dir:  dir,
		log:  log,
		send: func(m *gopkgmail.Message) error { return d.DialAndSend(m) },
	}
}

func (s *EmailSender) Show(_ context.Context, t model.Toast) error {
	m, err := s.buildMessage(t)
	if err != nil {
		return err
	}
	if err := s.send(m); err != nil {
		s.log.Error("send email failed", zap.String("to", s.cfg.To), zap.String("order_id", t.OrderID), zap.Error(err))
		return err
	}
	s.log.Info("email sent", zap.String("to", s.cfg.To), zap.String("order_id", t.OrderID))
	return nil
}

func (s *EmailSender) buildMessage(t model.Toast) (*gopkgmail.Message, error) {
	htmlBody, err := s.renderHTML(newOrderTemplate, t)
	if err != nil {
		return nil, err
	}
	plainBody, err := s.renderPlain(newOrderTemplate, t)
	if err != nil {
		return nil, err
	}

	m := gopkgmail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.To)
	m.SetHeader("Subject", t.Title+" #"+t.OrderID)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)
	return m, nil
}

func (s *EmailSender) renderHTML(name string, data any) (string, error) {
	content, err := fs.ReadFile(s.tmpl, path.Join(s.dir, name+".html"))
	if err != nil {
		return "", err
	}
	tmpl, err := htmltemplate.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *EmailSender) renderPlain(name string, data any) (string, error) {
	content, err := fs.ReadFile(s.tmpl, path.Join(s.dir, name+".txt"))
	if err != nil {
		return "", err
	}
	tmpl, err := texttemplate.New(name).Parse(string(content))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
