package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/avillar/storecheck/internal/twin"
)

// NewTwinCommand creates the twin command.
func NewTwinCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "twin",
		Short: "Serve the in-memory storefront twin",
		Long: `Serve an in-memory stand-in for the storefront API with the seeded
catalog, users and orders. Useful for developing scenarios without a
real backend. State resets on restart.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTwin(rootOpts, cmd, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")

	return cmd
}

func runTwin(opts *RootOptions, cmd *cobra.Command, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: twin.NewServer(twin.Seed()).Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	fmt.Fprintf(cmd.OutOrStdout(), "twin listening on %s\n", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitCommandError, "serve twin", err)
		}
		return nil
	case <-cmd.Context().Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return WrapExitError(ExitCommandError, "shut down twin", err)
		}
		return nil
	}
}
