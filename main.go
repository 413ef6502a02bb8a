package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tweakplay/api"
	"tweakplay/catalog"
	"tweakplay/config"
	"tweakplay/editcache"
	"tweakplay/logger"
	"tweakplay/playground"
	"tweakplay/scheduler"
	"tweakplay/storage"
	"tweakplay/theme"
)

var (
	dataDir     string
	listen      string
	listenPort  int
	storageKind string
	logLevel    string
	appVersion  = "0.1.0"
)

var rootCmd = &cobra.Command{
	Use:          "tweakplay",
	Short:        "tweakplay – component playground with live theme editing",
	Long:         "Tweakplay serves a component playground: themed previews, CSS variable editing and cached source edits.",
	RunE:         runServe,
	SilenceUsage: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  "Manage tweakplay configuration files.",
}

var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a default configuration file",
	Long:  "Generate a default tweakplay.config file in the specified data directory (or current directory if not specified).",
	RunE:  runConfigGenerate,
}

func init() {
	wd, _ := os.Getwd()
	rootCmd.Version = appVersion
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", wd, "Data directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&storageKind, "storage", "dir", "Edit cache backend: memory, dir or sqlite")
	rootCmd.Flags().StringVar(&listen, "listen", "all", "IP address to listen on (default: all)")
	rootCmd.Flags().IntVar(&listenPort, "listen-port", 8080, "Port to listen on (default: 8080)")

	configCmd.AddCommand(configGenerateCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(themeCmd())
	rootCmd.AddCommand(colorCmd())
	rootCmd.AddCommand(cacheCmd())
}

// loadConfig reads the config file and applies explicitly set flags.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}

	// Override config with CLI flags only if they were explicitly provided
	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("storage") {
		cfg.Storage = storageKind
	}
	if f := cmd.Flags().Lookup("listen"); f != nil && (f.Changed || cmd.Flags().Changed("listen-port")) {
		if listen != "" && listen != "all" {
			cfg.ListenAddr = net.JoinHostPort(listen, fmt.Sprint(listenPort))
		} else {
			// Listen on all interfaces
			cfg.ListenAddr = fmt.Sprintf(":%d", listenPort)
		}
	}

	dataDirAbs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dataDirAbs

	if err := config.Validate(&cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*logger.Logger, error) {
	return logger.New(logger.Options{Level: cfg.LogLevel, HumanReadable: cfg.LogHuman})
}

func loadThemes(cfg config.Config, log *logger.Logger) (*theme.Registry, error) {
	var (
		reg *theme.Registry
		err error
	)
	if cfg.ThemeRegistry != "" {
		reg, err = theme.LoadRegistry(cfg.ThemeRegistry, log)
	} else {
		reg, err = theme.Builtin(log)
	}
	if err != nil {
		return nil, err
	}
	if cfg.MatchThreshold > 0 {
		reg.SetMatchThreshold(cfg.MatchThreshold)
	}
	return reg, nil
}

// openCache opens the configured backend. The returned close func releases
// it.
func openCache(cfg config.Config, log *logger.Logger) (*editcache.Cache, func(), error) {
	backend, err := storage.Open(storage.Kind(cfg.Storage), cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	cache := editcache.New(backend, editcache.Options{ReadTTL: cfg.ReadTTL(), Log: log})
	return cache, func() {
		if err := storage.Close(backend); err != nil {
			log.Error(err, "close storage")
		}
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	themes, err := loadThemes(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize theme registry: %w", err)
	}
	components, err := catalog.Builtin()
	if err != nil {
		return fmt.Errorf("initialize component catalog: %w", err)
	}
	cache, closeCache, err := openCache(cfg, log)
	if err != nil {
		return fmt.Errorf("open edit cache: %w", err)
	}
	defer closeCache()

	pg := playground.New(playground.Options{
		Themes:       themes,
		Catalog:      components,
		Cache:        cache,
		Scheduler:    scheduler.NewReal(log),
		DefaultTheme: cfg.DefaultTheme,
		Debounce:     cfg.Debounce(),
		AutoSave:     cfg.Autosave(),
		Log:          log,
	})
	defer pg.Close()

	apiServer := api.NewServer(pg, log)
	defer apiServer.Close()

	mux := http.NewServeMux()
	apiServer.Register(mux)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	printListeningAddresses(log, cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		// Pending debounced writes are dropped, never half written.
		log.With("sessions", len(pg.Sessions())).Info("closing edit sessions")
		pg.Close()
		return nil
	})
	return g.Wait()
}

func runConfigGenerate(cmd *cobra.Command, args []string) error {
	dataDirAbs, err := filepath.Abs(dataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := config.Default()
	cfg.DataDir = dataDirAbs

	cfgPath := config.Path(dataDirAbs)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("config file already exists: %s", cfgPath)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated default config file: %s\n", cfgPath)
	return nil
}

func printListeningAddresses(log *logger.Logger, addr string) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		log.Info("listening on http://" + addr)
		return
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		// Listening on all interfaces
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			log.Info("listening on http://0.0.0.0:" + port)
			return
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				log.Info("listening on http://" + net.JoinHostPort(ipnet.IP.String(), port))
			}
		}
		log.Info("listening on http://localhost:" + port)
		return
	}
	log.Info("listening on http://" + net.JoinHostPort(host, port))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
