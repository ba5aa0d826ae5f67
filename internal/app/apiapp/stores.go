package apiapp

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/jobs/reconcile"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/memory"
	pgrepo "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/postgres"
	redrepo "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/repo/redis"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	feedsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/feed"
	likessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/likes"
	matchessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
	messagesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/messages"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	ratesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/rate"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/realtime"
	requeuesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/requeue"
	swipesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/swipes"
)

type ProfileStore interface {
	profilesvc.ProfileStore
	profilesvc.ProfileWriter
}

type SwipeStore interface {
	swipesvc.SwipeStore
	matchessvc.SwipeReader
	feedsvc.SwipeStore
	requeuesvc.SwipeStore
	likessvc.IncomingStore
	reconcile.PairScanner
}

type ConversationStore interface {
	matchessvc.ConversationStore
	messagesvc.ConversationReader
	reconcile.ConversationScanner
}

type MessageStore interface {
	messagesvc.MessageStore
	matchessvc.MessageSummaryStore
}

// Stores holds every persistence backend selected by config. Documents live in
// postgres or memory; feed sessions, auth sessions and rate windows in redis or
// memory; live message events go through redis pub/sub or the in-process hub.
type Stores struct {
	Profiles      ProfileStore
	Swipes        SwipeStore
	Conversations ConversationStore
	Messages      MessageStore
	FeedSessions  feedsvc.SessionStore
	AuthSessions  authsvc.SessionStore
	RateWindows   ratesvc.WindowStore
	Notifier      realtime.Notifier

	postgres *pgxpool.Pool
	redis    *goredis.Client
	hub      *realtime.Hub
}

func OpenStores(ctx context.Context, cfg config.Config, log *zap.Logger) (*Stores, error) {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Stores{}

	var mem *memory.Store
	memoryStore := func() *memory.Store {
		if mem == nil {
			mem = memory.New()
		}
		return mem
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		s.postgres = pool
		if cfg.Postgres.AutoMigrate {
			if err := pgrepo.Migrate(ctx, pool); err != nil {
				s.Close()
				return nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		s.Profiles = pgrepo.NewProfileRepo(pool)
		s.Swipes = pgrepo.NewSwipeRepo(pool)
		s.Conversations = pgrepo.NewConversationRepo(pool)
		s.Messages = pgrepo.NewMessageRepo(pool)
	case config.DriverMemory:
		store := memoryStore()
		s.Profiles = store
		s.Swipes = store
		s.Conversations = store
		s.Messages = store
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}

	if cfg.Store.Ephemeral == config.DriverRedis || cfg.Realtime.Driver == config.DriverRedis {
		client, err := redrepo.NewClient(ctx, redrepo.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.redis = client
	}

	if cfg.Store.Ephemeral == config.DriverRedis {
		s.FeedSessions = redrepo.NewFeedSessionRepo(s.redis)
		s.AuthSessions = redrepo.NewSessionRepo(s.redis)
		s.RateWindows = redrepo.NewRateRepo(s.redis)
	} else {
		s.FeedSessions = memoryStore()
		s.AuthSessions = memory.NewSessionStore()
		s.RateWindows = memory.NewRateWindows()
	}

	if cfg.Realtime.Driver == config.DriverRedis {
		s.Notifier = redrepo.NewNotifier(s.redis, cfg.Realtime.Buffer, log)
	} else {
		s.hub = realtime.NewHub(cfg.Realtime.Buffer, log)
		s.Notifier = s.hub
	}

	log.Info("stores opened",
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("ephemeral_driver", cfg.Store.Ephemeral),
		zap.String("realtime_driver", cfg.Realtime.Driver),
	)
	return s, nil
}

func (s *Stores) Postgres() *pgxpool.Pool {
	return s.postgres
}

func (s *Stores) Close() error {
	var closeErr error
	if s.hub != nil {
		s.hub.Close()
	}
	if s.redis != nil {
		closeErr = errors.Join(closeErr, s.redis.Close())
	}
	if s.postgres != nil {
		s.postgres.Close()
	}
	return closeErr
}
