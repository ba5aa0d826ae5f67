package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
	s3infra "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/infra/s3"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	stores     *Stores
	services   *Services
	httpRouter http.Handler

	stopJobs context.CancelFunc
	jobsDone chan struct{}
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}

	var signer profilesvc.PhotoSigner
	if cfg.S3.Enabled {
		client, err := s3infra.NewClient(s3infra.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			log.Warn("s3 init failed, photo references returned unsigned", zap.Error(err))
		} else {
			signer = s3infra.NewPhotoSigner(client, cfg.S3.Bucket, cfg.S3.URLTTL)
		}
	}

	services := NewServices(cfg, stores, signer, log)

	if cfg.Store.SeedFile != "" {
		if err := seedProfiles(ctx, stores, cfg.Store.SeedFile, log); err != nil {
			_ = stores.Close()
			return nil, err
		}
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)
	RegisterRoutes(r, Dependencies{
		Services: services,
		Logger:   log,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		stores:     stores,
		services:   services,
		httpRouter: r,
	}, nil
}

func seedProfiles(ctx context.Context, stores *Stores, path string, log *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	n, err := profilesvc.Import(ctx, stores.Profiles, f, time.Now())
	if err != nil {
		return fmt.Errorf("import seed profiles: %w", err)
	}
	log.Info("seed profiles imported", zap.Int("count", n), zap.String("path", path))
	return nil
}

// StartJobs launches background jobs. They stop on Shutdown.
func (a *App) StartJobs() {
	if a.stopJobs != nil || !a.cfg.Reconcile.Enabled {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.stopJobs = cancel
	a.jobsDone = make(chan struct{})
	go func() {
		defer close(a.jobsDone)
		a.services.Reconcile.Start(ctx, a.cfg.Reconcile.Interval)
	}()
}

func (a *App) Run() error {
	a.StartJobs()
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.stopJobs != nil {
		a.stopJobs()
		select {
		case <-a.jobsDone:
		case <-ctx.Done():
		}
	}
	if err := a.stores.Close(); err != nil && shutdownErr == nil {
		shutdownErr = err
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}

func (a *App) Services() *Services {
	return a.services
}
