package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

type SwipeRepo struct {
	pool *pgxpool.Pool
}

func NewSwipeRepo(pool *pgxpool.Pool) *SwipeRepo {
	return &SwipeRepo{pool: pool}
}

// UpsertSwipe writes the decision for the ordered pair, overwriting any earlier one.
func (r *SwipeRepo) UpsertSwipe(ctx context.Context, swipe model.Swipe) (model.Swipe, error) {
	if r.pool == nil {
		return model.Swipe{}, errNilPool
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO swipes (
	from_user_id,
	to_user_id,
	decision,
	decided_at
) VALUES ($1, $2, $3, $4)
ON CONFLICT (from_user_id, to_user_id) DO UPDATE SET
	decision = EXCLUDED.decision,
	decided_at = EXCLUDED.decided_at
RETURNING from_user_id, to_user_id, decision, decided_at
`, swipe.FromUserID, swipe.ToUserID, string(swipe.Decision), swipe.DecidedAt.UTC())

	stored, err := scanSwipe(row)
	if err != nil {
		return model.Swipe{}, wrapErr("upsert swipe", err)
	}
	return stored, nil
}

func (r *SwipeRepo) GetSwipe(ctx context.Context, fromUserID, toUserID string) (model.Swipe, error) {
	if r.pool == nil {
		return model.Swipe{}, errNilPool
	}

	row := r.pool.QueryRow(ctx, `
SELECT from_user_id, to_user_id, decision, decided_at
FROM swipes
WHERE from_user_id = $1
	AND to_user_id = $2
`, fromUserID, toUserID)

	swipe, err := scanSwipe(row)
	if err != nil {
		return model.Swipe{}, wrapErr("get swipe", err)
	}
	return swipe, nil
}

// ListDecidedTargets returns the subset of targetIDs that fromUserID decided on after
// since. A zero since matches every decision.
func (r *SwipeRepo) ListDecidedTargets(ctx context.Context, fromUserID string, targetIDs []string, since time.Time) (map[string]struct{}, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	out := make(map[string]struct{})
	if len(targetIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `
SELECT to_user_id
FROM swipes
WHERE from_user_id = $1
	AND to_user_id = ANY($2)
	AND ($3::timestamptz IS NULL OR decided_at > $3)
`, fromUserID, targetIDs, nullableTime(since))
	if err != nil {
		return nil, wrapErr("list decided targets", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr("scan decided target", err)
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list decided targets", err)
	}
	return out, nil
}

// ListRejectedWithoutReciprocalAccept returns targets userID rejected that never
// accepted userID back, still exist, and share no conversation record with userID.
func (r *SwipeRepo) ListRejectedWithoutReciprocalAccept(ctx context.Context, userID string) ([]string, error) {
	if r.pool == nil {
		return nil, errNilPool
	}

	rows, err := r.pool.Query(ctx, `
SELECT s.to_user_id
FROM swipes s
JOIN users u ON u.id = s.to_user_id
WHERE s.from_user_id = $1
	AND s.decision = 'reject'
	AND NOT EXISTS (
		SELECT 1
		FROM swipes back
		WHERE back.from_user_id = s.to_user_id
			AND back.to_user_id = $1
			AND back.decision = 'accept'
	)
	AND NOT EXISTS (
		SELECT 1
		FROM matches m
		WHERE (m.user_a_id = $1 AND m.user_b_id = s.to_user_id)
			OR (m.user_b_id = $1 AND m.user_a_id = s.to_user_id)
	)
ORDER BY s.to_user_id COLLATE "C"
`, userID)
	if err != nil {
		return nil, wrapErr("list requeue candidates", err)
	}
	return collectIDs(rows, "list requeue candidates")
}

// ListIncomingAccepts returns accepts addressed to userID that userID has not answered.
func (r *SwipeRepo) ListIncomingAccepts(ctx context.Context, userID string, limit int) ([]model.IncomingLike, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT s.from_user_id, s.decided_at
FROM swipes s
JOIN users u ON u.id = s.from_user_id
WHERE s.to_user_id = $1
	AND s.decision = 'accept'
	AND NOT EXISTS (
		SELECT 1
		FROM swipes mine
		WHERE mine.from_user_id = $1
			AND mine.to_user_id = s.from_user_id
	)
ORDER BY s.decided_at DESC, s.from_user_id COLLATE "C"
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, wrapErr("list incoming accepts", err)
	}
	defer rows.Close()

	out := make([]model.IncomingLike, 0)
	for rows.Next() {
		var like model.IncomingLike
		if err := rows.Scan(&like.FromUserID, &like.LikedAt); err != nil {
			return nil, wrapErr("scan incoming accept", err)
		}
		out = append(out, like)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list incoming accepts", err)
	}
	return out, nil
}

// ListAcceptedPairsWithoutConversation finds mutual accepts with no active
// conversation, for the reconcile job. Pages by the last pair returned.
func (r *SwipeRepo) ListAcceptedPairsWithoutConversation(ctx context.Context, after [2]string, limit int) ([][2]string, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT s.from_user_id, s.to_user_id
FROM swipes s
JOIN swipes back
	ON back.from_user_id = s.to_user_id
	AND back.to_user_id = s.from_user_id
	AND back.decision = 'accept'
WHERE s.decision = 'accept'
	AND s.from_user_id COLLATE "C" < s.to_user_id COLLATE "C"
	AND (
		$2::text = ''
		OR s.from_user_id COLLATE "C" > $2::text COLLATE "C"
		OR (s.from_user_id = $2::text AND s.to_user_id COLLATE "C" > $3::text COLLATE "C")
	)
	AND NOT EXISTS (
		SELECT 1
		FROM matches m
		WHERE m.user_a_id = s.from_user_id
			AND m.user_b_id = s.to_user_id
			AND m.status = 'active'
	)
ORDER BY s.from_user_id COLLATE "C", s.to_user_id COLLATE "C"
LIMIT $1
`, limit, after[0], after[1])
	if err != nil {
		return nil, wrapErr("list unmatched mutual accepts", err)
	}
	defer rows.Close()

	out := make([][2]string, 0)
	for rows.Next() {
		var pair [2]string
		if err := rows.Scan(&pair[0], &pair[1]); err != nil {
			return nil, wrapErr("scan mutual accept", err)
		}
		out = append(out, pair)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list unmatched mutual accepts", err)
	}
	return out, nil
}

func collectIDs(rows pgx.Rows, op string) ([]string, error) {
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

func scanSwipe(row pgx.Row) (model.Swipe, error) {
	var (
		swipe    model.Swipe
		decision string
	)
	if err := row.Scan(&swipe.FromUserID, &swipe.ToUserID, &decision, &swipe.DecidedAt); err != nil {
		return model.Swipe{}, fmt.Errorf("scan swipe: %w", err)
	}
	swipe.Decision = enums.Decision(decision)
	return swipe, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}
