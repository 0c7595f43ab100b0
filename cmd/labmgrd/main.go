// Command labmgrd is the Lab Manager's composition root: it wires the
// Firmware Registry, Host-Net Allocator, and Lab Manager façade together,
// mounts the REST transport, and runs until terminated.
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
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/ironhall/labmgr/lib/api"
	"github.com/ironhall/labmgr/lib/config"
	"github.com/ironhall/labmgr/lib/instances"
	"github.com/ironhall/labmgr/lib/logger"
	mw "github.com/ironhall/labmgr/lib/middleware"
	"github.com/ironhall/labmgr/lib/network"
	"github.com/ironhall/labmgr/lib/paths"
	"github.com/ironhall/labmgr/lib/registry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application terminated", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logCfg := logger.NewConfig()
	p := paths.New(cfg.DataDir)
	log, instanceLogs := logger.NewLoggerWithInstanceLogs(logCfg, p.InstanceEventsLog)

	reg := registry.New(cfg.LibraryDir)
	netAlloc := network.NewAllocator(cfg.ExternalBridge, cfg.InternalBridge)

	// Fail fast: a missing external bridge is an operator error (the host
	// prerequisite from EXTERNAL INTERFACES wasn't provisioned), not a
	// per-spawn ResourceError discovered deep inside the first POST /spawn.
	if err := netAlloc.CheckExternalBridge(); err != nil {
		return fmt.Errorf("startup precondition failed: %w", err)
	}
	log.Info("external bridge verified", "bridge", cfg.ExternalBridge)

	mgr := instances.New(reg, netAlloc, p, cfg.ExternalLeaseFile, cfg.InternalLeaseFile, cfg.InternalSubnet, cfg.StopGraceTimeout)
	mgr.SetEventLogCloser(instanceLogs)
	handler := api.NewHandler(reg, mgr)

	accessLogger := logger.NewSubsystemLogger(logger.SubsystemAPI, logCfg)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(mw.InjectLogger(log))
	r.Use(mw.AccessLogger(accessLogger))
	r.Use(chimw.Timeout(30 * time.Second))
	handler.Routes(r)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	grp, gctx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		log.Info("starting lab manager", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	grp.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		instanceLogs.CloseAll()
		log.Info("http server shutdown complete")
		return nil
	})

	grp.Go(func() error {
		ticker := time.NewTicker(cfg.LeaseRefreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				mgr.RefreshIPs(gctx)
			}
		}
	})

	return grp.Wait()
}
