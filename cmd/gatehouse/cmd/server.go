package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mkarlsen/gatehouse/api"
	"github.com/mkarlsen/gatehouse/auth"
	"github.com/mkarlsen/gatehouse/config"
	"github.com/mkarlsen/gatehouse/session"
	"github.com/mkarlsen/gatehouse/storage"
	bboltstorage "github.com/mkarlsen/gatehouse/storage/bbolt"
	pgstorage "github.com/mkarlsen/gatehouse/storage/postgres"
)

var (
	port    int
	dataDir string
	tlsCert string
	tlsKey  string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the authentication gateway server",
	RunE: func(cmd *cobra.Command, args []string) error {
		// A .env file is optional; real environments set vars directly.
		_ = godotenv.Load()
		cfg := config.Load()

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

		repo, cleanup, err := openRepository(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		hasher := auth.NewHasher(cfg.PBKDF2Iterations, cfg.Pepper, logger)
		passwords := auth.NewService(repo, hasher, auth.WithLogger(logger))

		sessions := session.NewStore(
			time.Duration(cfg.SessionMinutes)*time.Minute,
			time.Duration(cfg.RememberMinutes)*time.Minute,
			session.WithLogger(logger),
		)
		defer sessions.Close()

		a := api.New(passwords, sessions,
			api.WithLogger(logger),
			api.WithCookieSettings(api.CookieSettings{
				SessionName:    cfg.SessionCookieName,
				CSRFName:       cfg.CSRFCookieName,
				SameSiteStrict: cfg.SameSiteStrict,
			}),
			api.WithRateLimit(cfg.LoginMaxAttempts, time.Duration(cfg.LoginWindowSeconds)*time.Second),
		)
		defer a.Close()

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)
		r.Use(api.SecurityHeaders)
		r.Use(a.Gate)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Mount("/auth", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		useTLS := tlsCert != "" && tlsKey != ""
		if useTLS {
			cert, err := tls.LoadX509KeyPair(tlsCert, tlsKey)
			if err != nil {
				return fmt.Errorf("failed to load TLS key pair: %w", err)
			}
			server.TLSConfig = &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			}
		}

		// Graceful shutdown on SIGINT/SIGTERM.
		done := make(chan error, 1)
		go func() {
			var err error
			if useTLS {
				err = server.ListenAndServeTLS("", "")
			} else {
				err = server.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		fmt.Printf("gatehouse %s listening on port %d\n", Version, port)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Printf("\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

// openRepository picks the credential backend: postgres when a DSN is
// configured, otherwise a bbolt file under the data directory.
func openRepository(ctx context.Context, cfg config.Config) (storage.Repository, func(), error) {
	if cfg.DatabaseDSN != "" {
		repo, err := pgstorage.NewRepositoryFromDSN(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return repo, repo.Close, nil
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	repo, err := bboltstorage.NewRepositoryFromFile(filepath.Join(dataDir, "auth.db"), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open credential storage: %w", err)
	}
	return repo, func() { repo.Close() }, nil
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serverCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Directory for persistent data")
	serverCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to TLS certificate file")
	serverCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to TLS key file")
}
