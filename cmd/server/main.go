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
	"time"

	"github.com/diewo77/go-intake/auth"
	"github.com/diewo77/go-intake/internal/checkout"
	"github.com/diewo77/go-intake/internal/config"
	"github.com/diewo77/go-intake/internal/db"
	"github.com/diewo77/go-intake/internal/intake"
	"github.com/diewo77/go-intake/internal/models"
	"github.com/diewo77/go-intake/internal/policy"
	"github.com/diewo77/go-intake/internal/services"
	"github.com/diewo77/go-intake/internal/storage"
	"github.com/diewo77/go-intake/internal/store"
	"github.com/diewo77/go-intake/view"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string
	root := &cobra.Command{
		Use:           "intake",
		Short:         "Tax intake portal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "optional config file (yaml, toml or json)")

	load := func() (*config.Config, *gorm.DB, error) {
		// Load environment variables from .env file
		_ = godotenv.Load()
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, nil, err
		}
		conn, err := db.Open(cfg.Database, cfg.App.Dev)
		if err != nil {
			return nil, nil, err
		}
		return cfg, conn, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, conn, err := load()
				if err != nil {
					return err
				}
				return serve(cmd.Context(), cfg, conn)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Run database migrations and exit",
			RunE: func(*cobra.Command, []string) error {
				cfg, conn, err := load()
				if err != nil {
					return err
				}
				if err := migrate(cfg, conn, true); err != nil {
					return err
				}
				log.Println("Migrations completed successfully")
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Seed profiles, permissions and development accounts, then exit",
			RunE: func(*cobra.Command, []string) error {
				cfg, conn, err := load()
				if err != nil {
					return err
				}
				if err := seed(cfg, conn); err != nil {
					return err
				}
				log.Println("Seeding completed successfully")
				return nil
			},
		},
	)
	return root
}

// migrate applies the configured migration mode. force runs AutoMigrate
// even when migrations are off.
func migrate(cfg *config.Config, conn *gorm.DB, force bool) error {
	switch cfg.App.Migrations {
	case "sql":
		if cfg.Database.Driver != "postgres" {
			return fmt.Errorf("sql migrations need postgres, not %s", cfg.Database.Driver)
		}
		return db.MigrateSQL(cfg.Database.URL())
	case "off":
		if !force {
			return nil
		}
	}
	return db.Migrate(conn)
}

func seed(cfg *config.Config, conn *gorm.DB) error {
	if err := db.Seed(conn); err != nil {
		return err
	}
	if cfg.App.Dev {
		return db.SeedAccounts(conn, db.DevAccounts)
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, conn *gorm.DB) error {
	if err := migrate(cfg, conn, false); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	if cfg.App.Seed {
		if err := seed(cfg, conn); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
	}

	if cfg.Session.Secret == "" && !cfg.App.Dev {
		return errors.New("SESSION_SECRET is required outside development")
	}
	auth.Configure(cfg.Session.Secret, cfg.Session.TTL)
	// Configure auth verifier to check if user exists in DB
	auth.SetUserVerifier(func(ctx context.Context, uid uint) bool {
		var count int64
		conn.WithContext(ctx).Model(&models.User{}).Where("id = ?", uid).Count(&count)
		return count > 0
	})

	signingKey := cfg.Storage.SigningKey
	if signingKey == "" {
		signingKey = auth.Secret()
	}
	bucket, err := storage.NewLocal(cfg.Storage.Dir, cfg.Storage.MaxUploadBytes, signingKey)
	if err != nil {
		return err
	}
	gateway := checkout.New(checkout.Config{
		BaseURL:    cfg.Checkout.BaseURL,
		APIKey:     cfg.Checkout.APIKey,
		SuccessURL: cfg.Checkout.SuccessURL,
		CancelURL:  cfg.Checkout.CancelURL,
		Mode:       cfg.Checkout.Mode,
		Timeout:    cfg.Checkout.Timeout,
	})

	authz := policy.NewCaseGate(conn, 5*time.Minute)
	sessions := services.NewSessions(store.NewCaseStore(conn), cfg.Autosave.IdleEviction, intake.WithDelay(cfg.Autosave.Delay))
	cases := services.NewCaseService(services.Deps{
		DB:       conn,
		Sessions: sessions,
		Gate:     authz,
		Bucket:   bucket,
		Gateway:  gateway,
		URLTTL:   cfg.Storage.URLTTL,
	})

	if dir := os.Getenv("TEMPLATES_DIR"); dir != "" && cfg.App.Dev {
		view.SetBaseDir(dir)
	}

	appHandler := NewApp(AppDeps{
		DB:            conn,
		Gate:          authz,
		Cases:         cases,
		Files:         bucket,
		WebhookSecret: cfg.Checkout.WebhookSecret,
		MaxUpload:     cfg.Storage.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go sessions.Run(ctx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	if err := sessions.FlushAll(shutdownCtx); err != nil {
		log.Printf("Pending edits not saved: %v", err)
	}
	log.Println("Server stopped gracefully")
	return nil
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
