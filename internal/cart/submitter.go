package cart

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
)

const (
	MsgAdded        = "Đã thêm vào giỏ hàng!"
	MsgRejectPrefix = "Lỗi: "
	MsgHTTPFailure  = "Lỗi khi thêm vào giỏ hàng!"
	MsgNetwork      = "Đã xảy ra lỗi mạng khi thêm vào giỏ hàng."
)

// CounterDisplay: счётчик товаров в шапке.
type CounterDisplay interface {
	SetCount(text string, visible bool)
}

type Alerter interface {
	Alert(msg string)
}

type CounterDisplayFunc func(text string, visible bool)

func (f CounterDisplayFunc) SetCount(text string, visible bool) { f(text, visible) }

type AlerterFunc func(msg string)

func (f AlerterFunc) Alert(msg string) { f(msg) }

type Outcome int

const (
	OutcomeUpdated Outcome = iota
	OutcomeRejected
	OutcomeHTTPFailure
	OutcomeNetworkFailure
	OutcomeUnexpected
	OutcomeInvalid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeRejected:
		return "rejected"
	case OutcomeHTTPFailure:
		return "http_failure"
	case OutcomeNetworkFailure:
		return "network_failure"
	case OutcomeUnexpected:
		return "unexpected"
	default:
		return "invalid"
	}
}

type cartClient interface {
	Add(ctx context.Context, req AddRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Remove(ctx context.Context, csrfToken, productID string) (*Response, error)
	Clear(ctx context.Context, csrfToken string) (*Response, error)
}

type Submitter struct {
	client  cartClient
	counter CounterDisplay
	alerter Alerter
	log     *zap.Logger
}

func NewSubmitter(client cartClient, counter CounterDisplay, alerter Alerter, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{client: client, counter: counter, alerter: alerter, log: log}
}

func (s *Submitter) Add(ctx context.Context, req AddRequest) (Outcome, error) {
	resp, err := s.client.Add(ctx, req)
	return s.apply(resp, err, true)
}

func (s *Submitter) Update(ctx context.Context, req UpdateRequest) (Outcome, error) {
	resp, err := s.client.Update(ctx, req)
	return s.apply(resp, err, false)
}

func (s *Submitter) Remove(ctx context.Context, csrfToken, productID string) (Outcome, error) {
	resp, err := s.client.Remove(ctx, csrfToken, productID)
	return s.apply(resp, err, false)
}

func (s *Submitter) Clear(ctx context.Context, csrfToken string) (Outcome, error) {
	resp, err := s.client.Clear(ctx, csrfToken)
	return s.apply(resp, err, false)
}

func (s *Submitter) apply(resp *Response, err error, announce bool) (Outcome, error) {
	if err != nil {
		var httpErr *HTTPError
		switch {
		case errors.As(err, &httpErr):
			s.log.Error("cart request failed", zap.Int("status", httpErr.Status), zap.String("detail", httpErr.Detail))
			msg := MsgHTTPFailure
			if httpErr.Detail != "" {
				msg += " " + httpErr.Detail
			}
			s.alerter.Alert(msg)
			return OutcomeHTTPFailure, err
		case errors.Is(err, ErrNetwork):
			s.log.Error("cart network error", zap.Error(err))
			s.alerter.Alert(MsgNetwork)
			return OutcomeNetworkFailure, err
		case errors.Is(err, ErrUnexpectedResponse):
			s.log.Warn("unexpected cart response", zap.Error(err))
			return OutcomeUnexpected, err
		default:
			s.log.Error("cart request invalid", zap.Error(err))
			return OutcomeInvalid, err
		}
	}

	switch {
	case resp.ItemCount != nil:
		ShowCount(s.counter, *resp.ItemCount)
		if announce {
			s.alerter.Alert(MsgAdded)
		}
		return OutcomeUpdated, nil
	case resp.Error != "":
		s.alerter.Alert(MsgRejectPrefix + resp.Error)
		return OutcomeRejected, ErrCartRejected
	default:
		s.log.Warn("unexpected cart response shape")
		return OutcomeUnexpected, ErrUnexpectedResponse
	}
}

// ShowCount: n > 0 показывает число, иначе "0" и скрывает счётчик.
func ShowCount(d CounterDisplay, n int) {
	if n > 0 {
		d.SetCount(strconv.Itoa(n), true)
		return
	}
	d.SetCount("0", false)
}
