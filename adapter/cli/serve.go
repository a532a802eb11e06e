package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/allot/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		cfg := api.DefaultServerConfig()
		cfg.Addr = app.Container.Config.HTTPAddr
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		handler := api.NewAllocationHandler(api.AllocationHandlerConfig{
			Batch:            app.BatchHandler,
			UpdateAssignment: app.UpdateAssignmentHandler,
			CompleteTask:     app.CompleteTaskHandler,
			Deletes:          app.DeleteHandler,
			ResourceSchedule: app.ResourceScheduleHandler,
			TaskAssignment:   app.TaskAssignmentHandler,
			Logger:           Logger(),
		})
		server := api.NewServer(cfg, handler, app.Container.Health, Logger())

		ctx := cmd.Context()
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
