package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/coderi421/mvc/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgPath *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, newLogger(cfg.Log, os.Stderr))
			if err != nil {
				return err
			}
			defer a.close()

			if migrate {
				if err = a.migrate(ctx); err != nil {
					return err
				}
			}
			return a.run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "启动之前先建表并写入示例数据")
	return cmd
}

func newRoutesCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "列出所有路由",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, newLogger(cfg.Log, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer a.close()
			return printRoutes(cmd, a)
		},
	}
}

func newMigrateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "建表并写入示例数据，可以重复执行",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, newLogger(cfg.Log, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer a.close()
			return a.migrate(cmd.Context())
		},
	}
}

func printRoutes(cmd *cobra.Command, a *app) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tTEMPLATE\tPATTERN")
	for _, r := range a.server.Routes() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Method, r.Template, r.Pattern)
	}
	return w.Flush()
}

// run 阻塞直到 ctx 结束，然后优雅退出
func (a *app) run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		errCh <- a.server.Start(a.cfg.App.Addr)
	}()

	var metricsSrv *http.Server
	if a.cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(a.reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{
			Addr:              a.cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("mvc: 指标服务启动", slog.String("addr", a.cfg.Metrics.Addr), slog.String("path", a.cfg.Metrics.Path))
			errCh <- metricsSrv.ListenAndServe()
		}()
	}

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdownErr := a.server.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		shutdownErr = errors.Join(shutdownErr, metricsSrv.Shutdown(shutdownCtx))
	}
	a.logger.Info("mvc: 服务退出")

	if errors.Is(err, http.ErrServerClosed) {
		err = nil
	}
	return errors.Join(err, shutdownErr)
}
