package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"libris/internal/api"
	"libris/internal/db"
	"libris/internal/notify"
	"libris/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	// .env is optional; flags and real env vars win.
	_ = godotenv.Load()

	dbPath := flag.String("db", envOr("LIBRIS_DB", "libris.sqlite3"), "path to SQLite database file")
	addr := flag.String("addr", envOr("LIBRIS_ADDR", ":8080"), "listen address")
	jwtSecret := flag.String("jwt-secret", os.Getenv("LIBRIS_JWT_SECRET"), "JWT verification key (auto-generated if empty)")
	amqpURL := flag.String("amqp-url", os.Getenv("LIBRIS_AMQP_URL"), "RabbitMQ URL for loan notifications (log-only if empty)")
	flag.Parse()

	// Auto-generate a secret for development setups; tokens signed elsewhere
	// will not verify against it.
	if *jwtSecret == "" {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Fatal().Err(err).Msg("generating JWT secret")
		}
		*jwtSecret = hex.EncodeToString(secret)
		log.Warn().Msg("JWT secret auto-generated, tokens will be invalidated on restart")
	}

	database, err := db.Open(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening database")
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatal().Err(err).Msg("migrating database")
	}

	var notifier notify.Notifier = notify.LogNotifier{Log: log.Logger}
	if *amqpURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(*amqpURL)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting notifier")
		}
		defer amqpNotifier.Close()
		notifier = amqpNotifier
	}

	inventory := store.NewInventory(database, log.Logger)
	ledger := store.NewLedger(database, inventory, notifier, log.Logger)

	server := &http.Server{
		Addr:              *addr,
		Handler:           api.LoggingMiddleware(api.NewRouter(inventory, ledger, *jwtSecret)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", *addr).Str("db", *dbPath).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	// Let in-flight notification deliveries finish before the notifier and
	// database close.
	ledger.Wait()
}

// envOr returns the environment variable's value, or a fallback if unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
