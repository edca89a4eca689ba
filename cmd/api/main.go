package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/config"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/database"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/events"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/identity"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/repository/postgres"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/internal/router"
	"github.com/devayhncoleman/ticketing-platform-qa-portfolio/pkg/logger"
)

func main() {
	// config + logger
	cfg := config.Load()
	l := logger.New(cfg.Env)

	// db
	pool, err := database.Open(context.Background(), cfg)
	if err != nil {
		l.Fatal().Err(err).Msg("db connect failed")
	}
	defer pool.Close()

	// token issuer
	key, err := identity.LoadPrivateKey(cfg.JWTPrivateKeyFile)
	if err != nil {
		l.Fatal().Err(err).Msg("signing key load failed")
	}
	if cfg.JWTPrivateKeyFile == "" {
		l.Warn().Msg("no JWT_PRIVATE_KEY_FILE set, using ephemeral signing key")
	}
	issuer, err := identity.NewTokenIssuer(key, cfg.TokenIssuer, cfg.TokenTTL)
	if err != nil {
		l.Fatal().Err(err).Msg("token issuer init failed")
	}

	// code store (redis when configured, in-memory otherwise)
	var codes identity.CodeStore = identity.NewMemoryCodes()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			cancel()
			l.Fatal().Err(err).Msg("redis ping failed")
		}
		cancel()
		defer rdb.Close()
		codes = identity.NewRedisCodes(rdb)
	}

	idp := identity.NewService(postgres.NewUserRepo(pool), codes, issuer, l)

	// event publisher (optional)
	var pub events.Publisher = events.Nop{}
	if cfg.AMQPURL != "" {
		rp, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			l.Fatal().Err(err).Msg("amqp connect failed")
		}
		defer rp.Close()
		pub = rp
	}

	// http
	r := router.New(l, pool, cfg, idp, issuer, pub)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		l.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		l.Error().Err(err).Msg("shutdown error")
	}
}
