package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/openospfd/ospfd/config"
	"github.com/openospfd/ospfd/internal/ospflog"
	"github.com/openospfd/ospfd/metrics"
	"github.com/openospfd/ospfd/restart"
	"github.com/openospfd/ospfd/wire"
)

var (
	ospfVersion   string
	metricsAddr   string
	restartDBPath string
	dispatchBuf   int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load a configuration file and run the OSPF core",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&ospfVersion, "ospf-version", "v2", "protocol version to run: v2 (IPv4) or v3 (IPv6)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (disabled if empty)")
	serveCmd.Flags().StringVar(&restartDBPath, "restart-db", "", "path to the graceful-restart persistence file (disabled if empty)")
	serveCmd.Flags().IntVar(&dispatchBuf, "dispatch-buffer", 256, "buffered channel size for the packet dispatch loop")
}

func parseVersion(s string) (wire.Version, error) {
	switch s {
	case "v2":
		return wire.Version2, nil
	case "v3":
		return wire.Version3, nil
	default:
		return 0, fmt.Errorf("ospfd: unknown --ospf-version %q, want v2 or v3", s)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	v, err := parseVersion(ospfVersion)
	if err != nil {
		return err
	}

	if cfgFile == "" {
		return fmt.Errorf("ospfd: --config is required")
	}

	log := ospflog.New(os.Stdout)

	store := config.NewStore()
	loader := config.NewLoader(store, log)
	if err := loader.LoadFile(cfgFile); err != nil {
		return fmt.Errorf("ospfd: %w", err)
	}

	var restartStore *restart.Store
	if restartDBPath != "" {
		restartStore, err = restart.OpenStore(restartDBPath)
		if err != nil {
			return fmt.Errorf("ospfd: %w", err)
		}
		defer restartStore.Close()
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	var metricsSrv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Errorf("metrics server stopped")
			}
		}()
		log.WithField("addr", metricsAddr).Infof("metrics server listening")
	}

	in := NewInstance(store, log, m, restartStore, v)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := in.Start(ctx, dispatchBuf); err != nil {
		return fmt.Errorf("ospfd: %w", err)
	}

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- in.Run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Infof("ospfd running, router-id=%s version=%s", store.RouterID, v)

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		log.Infof("shutdown signal received")
		cancel()
		if err := <-serverDone; err != nil {
			log.WithError(err).Errorf("shutdown error")
			return err
		}
	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			log.WithError(err).Errorf("run loop failed")
			return err
		}
	}

	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(context.Background())
	}

	return nil
}
