package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/evensia-dev/evensia/internal/api"
	"github.com/evensia-dev/evensia/internal/auth"
	"github.com/evensia-dev/evensia/internal/config"
	"github.com/evensia-dev/evensia/internal/drive"
	"github.com/evensia-dev/evensia/internal/sheetdb"
	"github.com/evensia-dev/evensia/internal/vault"
)

func setupLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := setupLogger(cfg.LogLevel)
	logger.Info().Str("listen", cfg.ListenAddr).Msg("starting evensia daemon")

	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	records, store, err := sheetdb.New(cfg.ScriptURL, cfg.DataDir, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize record store")
	}
	if store != nil {
		logger.Info().Str("data_dir", cfg.DataDir).Int("sheets", len(store.Sheets())).
			Msg("embedded record store ready")
	} else {
		logger.Info().Msg("using remote record store endpoint")
	}

	var authSvc *auth.Service
	if cfg.GoogleClientID != "" {
		authSvc, err = auth.NewService(cfg, nil)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize authorization service")
		}
	} else {
		logger.Warn().Msg("google client not configured; sign-in routes are disabled")
	}

	h := &api.Handler{
		Auth:      authSvc,
		Jar:       auth.NewCookieJar(cfg.CookieSecret, !cfg.DisableTLS, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		Flows:     auth.NewBroker(auth.DefaultFlowTimeout),
		Drive:     drive.NewService(cfg.DriveAPIBase, cfg.DriveUploadBase, nil, logger),
		Records:   records,
		AppURL:    cfg.AppURL,
		ScriptURL: cfg.ScriptURL,
		Log:       logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(api.CORS())
	r.Use(api.RequestLogger(logger))
	h.Mount(r.Group("/api"))

	// The embedded record store also answers the scripting endpoint's own
	// wire protocol, so a frontend configured with a script URL can point
	// here during development.
	if store != nil {
		srv := sheetdb.NewServer(store)
		srv.Mount(r.Group("/sheetdb"))
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		logger.Info().Msg("shutdown signal received, draining requests")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			logger.Warn().Err(err).Msg("shutdown deadline exceeded, closing")
		}
		if store != nil {
			store.Wait()
		}
		logger.Info().Msg("persistence complete, exiting")
		os.Exit(0)
	}()

	if cfg.DisableTLS {
		logger.Info().Msg("tls disabled, serving plain http")
		err = httpServer.ListenAndServe()
	} else {
		cert, certErr := vault.GenerateSelfSignedCert()
		if certErr != nil {
			logger.Fatal().Err(certErr).Msg("failed to generate tls certificate")
		}
		httpServer.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
		logger.Info().Msg("serving with self-signed tls certificate")
		err = httpServer.ListenAndServeTLS("", "")
	}
	if err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("http server failed")
	}
}
