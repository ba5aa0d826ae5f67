package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

const (
	feedSessionPrefix = "feed:session:"
	feedCurrentPrefix = "feed:current:"
)

// FeedSessionRepo keeps candidate snapshots as redis lists. Each user has at most one
// current session; saving a new one drops the previous snapshot.
type FeedSessionRepo struct {
	client *goredis.Client
	now    func() time.Time
}

func NewFeedSessionRepo(client *goredis.Client) *FeedSessionRepo {
	return &FeedSessionRepo{client: client, now: time.Now}
}

func (r *FeedSessionRepo) SaveFeedSession(ctx context.Context, session model.FeedSession, candidateIDs []string) error {
	if r.client == nil {
		return errNilClient
	}
	if session.ID == "" || session.UserID == "" {
		return fmt.Errorf("invalid feed session payload")
	}

	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("feed session already expired")
	}

	previous, err := r.client.Get(ctx, feedCurrentKey(session.UserID)).Result()
	if err != nil && err != goredis.Nil {
		return wrapErr("load current feed session", err)
	}

	pipe := r.client.TxPipeline()
	if previous != "" && previous != session.ID {
		pipe.Del(ctx, feedMetaKey(previous), feedIDsKey(previous))
	}
	pipe.Del(ctx, feedIDsKey(session.ID))
	if len(candidateIDs) > 0 {
		values := make([]interface{}, len(candidateIDs))
		for i, id := range candidateIDs {
			values[i] = id
		}
		pipe.RPush(ctx, feedIDsKey(session.ID), values...)
		pipe.PExpire(ctx, feedIDsKey(session.ID), ttl)
	}
	pipe.HSet(ctx, feedMetaKey(session.ID), map[string]interface{}{
		"user_id":    session.UserID,
		"kind":       string(session.Kind),
		"size":       len(candidateIDs),
		"created_at": session.CreatedAt.UnixNano(),
		"expires_at": session.ExpiresAt.UnixNano(),
	})
	pipe.PExpire(ctx, feedMetaKey(session.ID), ttl)
	pipe.Set(ctx, feedCurrentKey(session.UserID), session.ID, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return wrapErr("save feed session", err)
	}
	return nil
}

func (r *FeedSessionRepo) CurrentFeedSession(ctx context.Context, userID string) (model.FeedSession, error) {
	if r.client == nil {
		return model.FeedSession{}, errNilClient
	}

	sessionID, err := r.client.Get(ctx, feedCurrentKey(userID)).Result()
	if err != nil {
		return model.FeedSession{}, wrapErr("load current feed session", err)
	}

	values, err := r.client.HGetAll(ctx, feedMetaKey(sessionID)).Result()
	if err != nil {
		return model.FeedSession{}, wrapErr("load feed session meta", err)
	}
	if len(values) == 0 {
		return model.FeedSession{}, errs.ErrNotFound
	}

	session, err := parseFeedSession(values)
	if err != nil {
		return model.FeedSession{}, err
	}
	session.ID = sessionID
	return session, nil
}

func (r *FeedSessionRepo) FeedSessionRange(ctx context.Context, sessionID string, offset, limit int) ([]string, error) {
	if r.client == nil {
		return nil, errNilClient
	}
	if offset < 0 {
		offset = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(offset + limit - 1)
	}

	pipe := r.client.Pipeline()
	exists := pipe.Exists(ctx, feedMetaKey(sessionID))
	ids := pipe.LRange(ctx, feedIDsKey(sessionID), int64(offset), stop)
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return nil, wrapErr("read feed session", err)
	}
	if exists.Val() == 0 {
		return nil, errs.ErrNotFound
	}
	return ids.Val(), nil
}

func parseFeedSession(values map[string]string) (model.FeedSession, error) {
	size, err := strconv.Atoi(values["size"])
	if err != nil {
		return model.FeedSession{}, fmt.Errorf("parse feed session size: %w", err)
	}
	createdAt, err := strconv.ParseInt(values["created_at"], 10, 64)
	if err != nil {
		return model.FeedSession{}, fmt.Errorf("parse feed session created_at: %w", err)
	}
	expiresAt, err := strconv.ParseInt(values["expires_at"], 10, 64)
	if err != nil {
		return model.FeedSession{}, fmt.Errorf("parse feed session expires_at: %w", err)
	}

	return model.FeedSession{
		UserID:    values["user_id"],
		Kind:      enums.FeedKind(values["kind"]),
		Size:      size,
		CreatedAt: time.Unix(0, createdAt).UTC(),
		ExpiresAt: time.Unix(0, expiresAt).UTC(),
	}, nil
}

func feedMetaKey(sessionID string) string {
	return feedSessionPrefix + sessionID
}

func feedIDsKey(sessionID string) string {
	return feedSessionPrefix + sessionID + ":ids"
}

func feedCurrentKey(userID string) string {
	return feedCurrentPrefix + userID
}
