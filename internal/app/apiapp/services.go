package apiapp

import (
	"go.uber.org/zap"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/config"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/jobs/reconcile"
	authsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/auth"
	feedsvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/feed"
	likessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/likes"
	matchessvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/matches"
	messagesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/messages"
	profilesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/profiles"
	ratesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/rate"
	requeuesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/requeue"
	swipesvc "github.com/PR-25-LIGGO/PR-25-LIGGO/internal/services/swipes"
)

type Services struct {
	Auth      *authsvc.Service
	Profiles  *profilesvc.Service
	Feed      *feedsvc.Service
	Swipes    *swipesvc.Service
	Matches   *matchessvc.Service
	Requeue   *requeuesvc.Service
	Likes     *likessvc.Service
	Messages  *messagesvc.Service
	Reconcile *reconcile.Job
}

// NewServices wires the domain services over stores. signer may be nil, in which
// case photo references are returned as stored.
func NewServices(cfg config.Config, stores *Stores, signer profilesvc.PhotoSigner, log *zap.Logger) *Services {
	if log == nil {
		log = zap.NewNop()
	}

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.JWTAccessTTL)
	authService := authsvc.NewService(jwtManager, stores.AuthSessions, cfg.Auth.SessionTTL)

	profileService := profilesvc.NewService(profilesvc.Dependencies{
		Store:  stores.Profiles,
		Signer: signer,
		Logger: log.Named("profiles"),
	})

	limiter := ratesvc.NewLimiter(stores.RateWindows, map[string]ratesvc.Policy{
		ratesvc.ActionSwipe: {
			PerMinute: cfg.Swipes.Rate.PerMinute,
			Per10Sec:  cfg.Swipes.Rate.Per10Sec,
		},
		ratesvc.ActionMessage: {
			PerMinute: cfg.Messages.Rate.PerMinute,
			Per10Sec:  cfg.Messages.Rate.Per10Sec,
		},
	})

	matchService := matchessvc.NewService(matchessvc.Dependencies{
		Swipes:        stores.Swipes,
		Conversations: stores.Conversations,
		Messages:      stores.Messages,
		Profiles:      profileService,
		Logger:        log.Named("matches"),
	})

	feedService := feedsvc.NewService(feedsvc.Dependencies{
		Profiles: profileService,
		Swipes:   stores.Swipes,
		Sessions: stores.FeedSessions,
		Logger:   log.Named("feed"),
	}, feedsvc.Config{
		SessionTTL:      cfg.Feed.SessionTTL,
		MaxCandidates:   cfg.Feed.MaxCandidates,
		ScanBatch:       cfg.Feed.ScanBatch,
		DefaultPageSize: cfg.Feed.DefaultPageSize,
		MaxPageSize:     cfg.Feed.MaxPageSize,
	})

	swipeService := swipesvc.NewService(swipesvc.Dependencies{
		Swipes:      stores.Swipes,
		Profiles:    profileService,
		Matches:     matchService,
		RateLimiter: limiter,
		Logger:      log.Named("swipes"),
	})

	messageService := messagesvc.NewService(messagesvc.Dependencies{
		Conversations: stores.Conversations,
		Messages:      stores.Messages,
		Notifier:      stores.Notifier,
		RateLimiter:   limiter,
		Logger:        log.Named("messages"),
	}, messagesvc.Config{
		MaxBodyRunes:   cfg.Messages.MaxBodyRunes,
		HistoryBatch:   cfg.Messages.HistoryBatch,
		ResyncInterval: cfg.Messages.ResyncInterval,
		Buffer:         cfg.Realtime.Buffer,
	})

	return &Services{
		Auth:      authService,
		Profiles:  profileService,
		Feed:      feedService,
		Swipes:    swipeService,
		Matches:   matchService,
		Requeue:   requeuesvc.NewService(stores.Swipes, feedService, log.Named("requeue")),
		Likes:     likessvc.NewService(stores.Swipes, profileService),
		Messages:  messageService,
		Reconcile: reconcile.New(stores.Conversations, stores.Swipes, matchService, cfg.Reconcile.Batch, log.Named("reconcile")),
	}
}
