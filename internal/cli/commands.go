package cli

import (
	"admin-notifier/internal/cart"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAddCmd(opts *rootOptions, log *zap.Logger) *cobra.Command {
	var (
		quantity int
		size     string
		action   string
	)

	cmd := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd, log)
			if err != nil {
				return err
			}
			_, err = s.submitter.Add(cmd.Context(), cart.AddRequest{
				CSRFToken:    s.csrf,
				ProductID:    args[0],
				Quantity:     quantity,
				SelectedSize: size,
				Action:       action,
			})
			return err
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "Quantity")
	cmd.Flags().StringVarP(&size, "size", "s", "", "Selected size")
	cmd.Flags().StringVar(&action, "action", cart.DefaultAddPath, "Form action path")
	return cmd
}

func newUpdateCmd(opts *rootOptions, log *zap.Logger) *cobra.Command {
	var (
		quantity int
		size     string
	)

	cmd := &cobra.Command{
		Use:   "update <productId>",
		Short: "Change the quantity of a cart line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd, log)
			if err != nil {
				return err
			}
			_, err = s.submitter.Update(cmd.Context(), cart.UpdateRequest{
				CSRFToken:    s.csrf,
				ProductID:    args[0],
				Quantity:     quantity,
				SelectedSize: size,
			})
			return err
		},
	}

	cmd.Flags().IntVarP(&quantity, "quantity", "q", 1, "New quantity")
	cmd.Flags().StringVarP(&size, "size", "s", "", "Selected size")
	return cmd
}

func newRemoveCmd(opts *rootOptions, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd, log)
			if err != nil {
				return err
			}
			_, err = s.submitter.Remove(cmd.Context(), s.csrf, args[0])
			return err
		},
	}
}

func newClearCmd(opts *rootOptions, log *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd.Context(), cmd, log)
			if err != nil {
				return err
			}
			_, err = s.submitter.Clear(cmd.Context(), s.csrf)
			return err
		},
	}
}
