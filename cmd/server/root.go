package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rummage/items/internal/config"
	"github.com/rummage/items/internal/server"
	"github.com/rummage/items/internal/services"
	"github.com/rummage/items/internal/tracing"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "items-server",
	Short:         "HTTP registry of uniquely titled items",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server (default)",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQLite schema migrations and exit",
	RunE:  runMigrate,
}

const resetLong = `Delete every item from the configured store.

A running server with cache.enabled keeps its own id cache; restart it after
a reset so deleted items are no longer served by id.`

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every item from the configured store",
	Long:  resetLong,
	RunE:  runReset,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./"+config.DefaultConfigFile+" if present)")

	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, resetCmd, configCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	tp.Install()
	defer tp.Shutdown(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Printf("Warning: failed to close store: %v", err)
		}
	}()

	registry := services.NewItemRegistry(store,
		services.WithTimeout(cfg.Storage.Timeout),
		services.WithTracer(tp.Tracer()),
	)

	srv := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: server.NewRouter(cfg, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Items API server starting on %s (storage=%s)", cfg.ServerAddress, cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("Server is shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Storage.Driver != config.DriverSQLite {
		return fmt.Errorf("migrate only applies to the sqlite driver, configured driver is %q", cfg.Storage.Driver)
	}

	// Opening the store applies the migrations.
	store, err := server.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	log.Printf("Migrations applied: %s", server.SQLitePath(cfg))
	return store.Close(context.Background())
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	store, err := server.OpenStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := services.NewItemRegistry(store, services.WithTimeout(cfg.Storage.Timeout)).Reset(cmd.Context()); err != nil {
		return err
	}
	log.Printf("All items removed (storage=%s)", cfg.Storage.Driver)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigFile
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
