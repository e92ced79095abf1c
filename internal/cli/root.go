package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admin-notifier/config"
	"admin-notifier/internal/cart"
	"admin-notifier/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	baseURL  string
	csrf     string
	csrfPage string
	timeout  time.Duration
}

func newRootCmd() *cobra.Command {
	log := logger.L()
	defaults := config.LoadCart(log)
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "cart",
		Short:         "Storefront cart client",
		Long:          "Submit add/update/remove/clear requests to the storefront cart and print the resulting item counter.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", defaults.BaseURL, "Storefront base URL")
	cmd.PersistentFlags().StringVar(&opts.csrf, "csrf", "", "CSRF token (fetched from --csrf-page when empty)")
	cmd.PersistentFlags().StringVar(&opts.csrfPage, "csrf-page", "/", "Page to read the CSRF token from")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaults.Timeout, "Request timeout")

	cmd.AddCommand(newAddCmd(opts, log))
	cmd.AddCommand(newUpdateCmd(opts, log))
	cmd.AddCommand(newRemoveCmd(opts, log))
	cmd.AddCommand(newClearCmd(opts, log))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest() *cobra.Command {
	return newRootCmd()
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// session собирает клиент и сабмиттер для одной команды и при необходимости
// получает CSRF-токен со страницы магазина.
type session struct {
	submitter *cart.Submitter
	csrf      string
}

func (o *rootOptions) open(ctx context.Context, cmd *cobra.Command, log *zap.Logger) (*session, error) {
	client, err := cart.NewClient(o.baseURL, o.timeout, log)
	if err != nil {
		return nil, err
	}

	csrf := o.csrf
	if csrf == "" {
		csrf, err = client.FetchCSRFToken(ctx, o.csrfPage)
		if err != nil {
			return nil, fmt.Errorf("fetching csrf token: %w", err)
		}
	}

	sub := cart.NewSubmitter(client,
		terminalCounter{w: cmd.OutOrStdout()},
		terminalAlerter{w: cmd.ErrOrStderr()},
		log,
	)
	return &session{submitter: sub, csrf: csrf}, nil
}

type terminalCounter struct {
	w io.Writer
}

func (t terminalCounter) SetCount(text string, visible bool) {
	if !visible {
		fmt.Fprintln(t.w, "Giỏ hàng trống")
		return
	}
	fmt.Fprintf(t.w, "Giỏ hàng: %s\n", text)
}

type terminalAlerter struct {
	w io.Writer
}

func (t terminalAlerter) Alert(msg string) {
	fmt.Fprintln(t.w, msg)
}
