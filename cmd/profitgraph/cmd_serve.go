package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/agenthands/profitgraph/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose pipeline and refiner triggers over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.Log.Mode != "dev" {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.NewServer(a.pipeline, a.log)
		httpSrv := &http.Server{
			Addr:              ":" + a.cfg.Server.Port,
			Handler:           srv.SetupRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("starting server", "port", a.cfg.Server.Port)
			errCh <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}

		a.log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	},
}
