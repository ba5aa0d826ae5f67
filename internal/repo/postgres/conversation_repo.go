package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

const conversationColumns = `id, user_a_id, user_b_id, status, created_at, stale_at, last_seq`

// ConversationRepo stores conversations in the matches table.
type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

// ActivateConversation inserts conv if its id is unused and reactivates a stale
// record. An already active record is returned untouched. created reports an insert.
func (r *ConversationRepo) ActivateConversation(ctx context.Context, conv model.Conversation) (model.Conversation, bool, error) {
	if r.pool == nil {
		return model.Conversation{}, false, errNilPool
	}

	var created bool
	row := r.pool.QueryRow(ctx, `
INSERT INTO matches (
	id,
	user_a_id,
	user_b_id,
	status,
	created_at
) VALUES ($1, $2, $3, 'active', $4)
ON CONFLICT (id) DO UPDATE SET
	status = 'active',
	stale_at = NULL
WHERE matches.status <> 'active'
RETURNING `+conversationColumns+`, (xmax = 0) AS inserted
`, conv.ID, conv.UserAID, conv.UserBID, conv.CreatedAt.UTC())

	stored, err := scanConversation(row, &created)
	if err == nil {
		return stored, created, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Conversation{}, false, wrapErr("activate conversation", err)
	}

	// Conflict with an active record: DO UPDATE skipped, nothing returned.
	existing, err := r.GetConversation(ctx, conv.ID)
	if err != nil {
		return model.Conversation{}, false, err
	}
	return existing, false, nil
}

func (r *ConversationRepo) GetConversation(ctx context.Context, id string) (model.Conversation, error) {
	if r.pool == nil {
		return model.Conversation{}, errNilPool
	}

	row := r.pool.QueryRow(ctx, `SELECT `+conversationColumns+` FROM matches WHERE id = $1`, id)
	conv, err := scanConversation(row, nil)
	if err != nil {
		return model.Conversation{}, wrapErr("get conversation", err)
	}
	return conv, nil
}

func (r *ConversationRepo) MarkConversationStale(ctx context.Context, id string, at time.Time) (bool, error) {
	if r.pool == nil {
		return false, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE matches
SET status = 'stale',
	stale_at = $2
WHERE id = $1
	AND status = 'active'
`, id, at.UTC())
	if err != nil {
		return false, wrapErr("mark conversation stale", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListActiveConversations returns userID's active conversations, latest activity first.
func (r *ConversationRepo) ListActiveConversations(ctx context.Context, userID string, limit int) ([]model.Conversation, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT m.id, m.user_a_id, m.user_b_id, m.status, m.created_at, m.stale_at, m.last_seq
FROM matches m
LEFT JOIN LATERAL (
	SELECT msg.created_at
	FROM messages msg
	WHERE msg.match_id = m.id
	ORDER BY msg.seq DESC
	LIMIT 1
) last ON TRUE
WHERE (m.user_a_id = $1 OR m.user_b_id = $1)
	AND m.status = 'active'
ORDER BY COALESCE(last.created_at, m.created_at) DESC, m.id COLLATE "C"
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, wrapErr("list active conversations", err)
	}
	return collectConversations(rows, "list active conversations")
}

// ScanActiveConversations pages through active conversations in id order.
func (r *ConversationRepo) ScanActiveConversations(ctx context.Context, afterID string, limit int) ([]model.Conversation, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+conversationColumns+`
FROM matches
WHERE status = 'active'
	AND id COLLATE "C" > $1
ORDER BY id COLLATE "C"
LIMIT $2
`, afterID, limit)
	if err != nil {
		return nil, wrapErr("scan active conversations", err)
	}
	return collectConversations(rows, "scan active conversations")
}

func collectConversations(rows pgx.Rows, op string) ([]model.Conversation, error) {
	defer rows.Close()

	out := make([]model.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows, nil)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

// scanConversation reads conversationColumns, plus the inserted flag when the
// query returns one.
func scanConversation(row pgx.Row, inserted *bool) (model.Conversation, error) {
	var (
		conv   model.Conversation
		status string
	)
	dest := []any{
		&conv.ID,
		&conv.UserAID,
		&conv.UserBID,
		&status,
		&conv.CreatedAt,
		&conv.StaleAt,
		&conv.LastSeq,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}
	if err := row.Scan(dest...); err != nil {
		return model.Conversation{}, fmt.Errorf("scan conversation: %w", err)
	}
	conv.Status = enums.ConversationStatus(status)
	return conv, nil
}
