package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordduel/internal/auth"
	"github.com/robalobadob/wordduel/internal/config"
	"github.com/robalobadob/wordduel/internal/httpserver"
	"github.com/robalobadob/wordduel/internal/matchmaking"
	"github.com/robalobadob/wordduel/internal/play"
	"github.com/robalobadob/wordduel/internal/realtime"
	"github.com/robalobadob/wordduel/internal/store/sqlstore"
	"github.com/robalobadob/wordduel/internal/words"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	// Core packages log through log.Ctx; outside a request they fall back here.
	zerolog.DefaultContextLogger = &log.Logger
}

func run(ctx context.Context, cfg *config.Config) error {
	st, err := sqlstore.Open(ctx, sqlstore.Config{Driver: cfg.DBDriver, Path: cfg.DBPath, URL: cfg.DatabaseURL})
	if err != nil {
		return err
	}
	defer st.Close()

	list, err := words.Load(cfg.WordsFile)
	if err != nil {
		return err
	}
	if err := st.SeedWords(ctx, list); err != nil {
		return err
	}
	log.Info().Int("words", len(list)).Str("driver", cfg.DBDriver).Msg("store ready")

	hub := realtime.NewHub(0)
	sweeper, err := realtime.StartSweeper(hub, cfg.PresenceTTL, cfg.PresenceSweepInterval)
	if err != nil {
		return err
	}
	defer func() { _ = sweeper.Shutdown() }()

	games := play.New(st, play.WithPublisher(hub), play.WithDailySalt(cfg.DailySalt))
	accounts := auth.NewAccounts(st)
	authn := auth.NewAuthenticator(
		auth.NewSigner(cfg.JWTSecret, cfg.JWTExpiresDays),
		accounts,
		auth.Cookies{Name: cfg.CookieName, Secure: cfg.Production()},
	)
	srv := httpserver.New(httpserver.Deps{
		Store:    st,
		Games:    games,
		Queue:    matchmaking.NewQueue(hub, games, cfg.MatchConfirmTimeout),
		Hub:      hub,
		Accounts: accounts,
		Auth:     authn,
	}, httpserver.Options{
		ClientOrigin:   cfg.ClientOrigin,
		RequestTimeout: cfg.RequestTimeout,
		Heartbeat:      cfg.PresenceTTL / 3,
	})

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("starting wordduel server")
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
