package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/desertthunder/jukebox/internal/server"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// Serve runs the REST backend until SIGINT or SIGTERM, then drains in-flight requests.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if addr := cmd.String("addr"); addr != "" {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("%w: --addr %q: %v", shared.ErrInvalidFlag, addr, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: --addr port %q", shared.ErrInvalidFlag, port)
		}
		cfg.Host, cfg.Port = host, p
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	srv, err := server.New(db, server.Options{
		Config:      cfg,
		Development: cmd.Bool("dev"),
		Logger:      shared.WithLogger(r.logger, "component", "server"),
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", srv.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", srv.Addr(), err)
	}
	return r.serve(ctx, srv, ln)
}

// serve runs srv on ln until ctx is cancelled or a signal arrives.
func (r *Runner) serve(ctx context.Context, srv *server.Server, ln net.Listener) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("Serving on http://%s (Ctrl+C to stop)\n", ln.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}
