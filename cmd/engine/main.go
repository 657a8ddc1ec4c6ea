package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"dealflow-engine/internal/auth"
	"dealflow-engine/internal/config"
	"dealflow-engine/internal/events"
	"dealflow-engine/internal/fetch"
	"dealflow-engine/internal/httpapi"
	"dealflow-engine/internal/logging"
	"dealflow-engine/internal/scheduler"
	"dealflow-engine/internal/secrets"
	"dealflow-engine/internal/store"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runTokenCmd(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	log := logging.L()
	if err := secrets.LoadDotEnv(".env"); err != nil {
		log.Fatal().Err(err).Msg("load .env")
	}

	// Engine data dir: use env if provided (a desktop shell can pass one), else local folder.
	dataDir := os.Getenv("DEALFLOW_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("create data dir")
	}

	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatal().Err(err).Msg("lock data dir")
	}
	if !locked {
		log.Fatal().Str("data_dir", dataDir).Msg("another engine is already using this data dir")
	}
	defer func() { _ = lock.Unlock() }()

	userCfgPath, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
	if err != nil {
		log.Fatal().Err(err).Msg("config bootstrap failed")
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		return config.Load(userCfgPath)
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatal().Err(err).Str("path", userCfgPath).Msg("config load failed")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Str("path", userCfgPath).Msg("config invalid")
	}
	cfgVal.Store(cfg)

	logger := logging.Init(cfg.Logging)

	db, err := openStore(cfg, dataDir)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("open store")
	}
	defer db.Close()
	if err := store.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if db.Dialect == store.SQLite {
		go scheduler.Every(ctx, 10*time.Minute, "wal_checkpoint", db.Checkpoint, logger)
	}

	geoCache := connectGeocodeCache(ctx, cfg, logger)
	limiter := fetch.NewHostLimiter(cfg.Providers.RequestsPerSecond, cfg.Providers.Burst)

	jwtSecret, err := secrets.Get(secrets.JWTSecret)
	if err != nil {
		logger.Warn().Err(err).Msg("no JWT secret; every API call will be rejected")
	}

	hub := events.NewHub()
	deps := httpapi.Deps{
		Store:       db,
		Hub:         hub,
		Auth:        auth.NewVerifier(jwtSecret, cfg.Auth.Issuer),
		Log:         logger,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
		NewSearcher: searcherFactory(db, geoCache, limiter, logger),
		SetSecret:   secrets.Set,
	}
	mux := httpapi.NewMux(deps)

	shutdownToken, err := randomToken(32)
	if err != nil {
		logger.Fatal().Err(err).Msg("shutdown token")
	}

	ln, err := net.Listen("tcp", cfg.App.Addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.App.Addr).Msg("listen")
	}

	srv := &http.Server{
		Handler:           httpapi.NewHandler(mux, deps),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&shutdownToken, srv))

	// The desktop shell reads this line to learn the shutdown token.
	fmt.Printf("DEALFLOW_SHUTDOWN_TOKEN=%s\n", shutdownToken)
	logger.Info().
		Str("addr", ln.Addr().String()).
		Str("store", string(db.Dialect)).
		Str("config", userCfgPath).
		Msg("engine listening")

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("server stopped")
	}
	if geoCache != nil {
		_ = geoCache.Close()
	}
	logger.Info().Msg("engine stopped")
}

// runTokenCmd prints a signed access token for local testing.
func runTokenCmd(args []string) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	user := fs.String("user", "local", "subject (user id)")
	ws := fs.String("workspace", "", "workspace id")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	issuer := fs.String("issuer", config.Default().Auth.Issuer, "issuer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *ws == "" {
		return errors.New("-workspace is required")
	}

	if err := secrets.LoadDotEnv(".env"); err != nil {
		return err
	}
	secret, err := secrets.Get(secrets.JWTSecret)
	if err != nil {
		return err
	}
	tok, err := auth.Sign(secret, *issuer, *user, *ws, *ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
