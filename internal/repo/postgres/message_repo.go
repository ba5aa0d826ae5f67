package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
)

const messageColumns = `id::text, match_id, seq, sender_id, body, created_at, seen, seen_at`

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

// AppendMessage bumps matches.last_seq under the row lock and inserts the message
// with that seq. created_at never goes below the previous message of the conversation.
func (r *MessageRepo) AppendMessage(ctx context.Context, msg model.Message) (model.Message, error) {
	if r.pool == nil {
		return model.Message{}, errNilPool
	}

	var stored model.Message
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
UPDATE matches
SET last_seq = last_seq + 1
WHERE id = $1
	AND status = 'active'
RETURNING last_seq
`, msg.ConversationID).Scan(&seq)
		if err != nil {
			return wrapErr("reserve message seq", err)
		}

		row := tx.QueryRow(ctx, `
INSERT INTO messages (
	id,
	match_id,
	seq,
	sender_id,
	body,
	created_at,
	seen
) VALUES (
	$1::uuid,
	$2,
	$3,
	$4,
	$5,
	GREATEST($6::timestamptz, COALESCE((
		SELECT prev.created_at
		FROM messages prev
		WHERE prev.match_id = $2
			AND prev.seq = $3 - 1
	), $6::timestamptz)),
	FALSE
)
RETURNING `+messageColumns+`
`, msg.ID, msg.ConversationID, seq, msg.SenderID, msg.Body, msg.CreatedAt.UTC())

		stored, err = scanMessage(row)
		if err != nil {
			return wrapErr("insert message", err)
		}
		return nil
	})
	if err != nil {
		return model.Message{}, err
	}
	return stored, nil
}

func (r *MessageRepo) ListMessagesAfter(ctx context.Context, conversationID string, afterSeq int64, limit int) ([]model.Message, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1
	AND seq > $2
ORDER BY seq ASC
LIMIT $3
`, conversationID, afterSeq, limit)
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	defer rows.Close()

	out := make([]model.Message, 0)
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, wrapErr("list messages", err)
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list messages", err)
	}
	return out, nil
}

func (r *MessageRepo) GetMessage(ctx context.Context, conversationID, messageID string) (model.Message, error) {
	if r.pool == nil {
		return model.Message{}, errNilPool
	}
	if !isUUID(messageID) {
		return model.Message{}, errs.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1
	AND id = $2::uuid
`, conversationID, messageID)
	msg, err := scanMessage(row)
	if err != nil {
		return model.Message{}, wrapErr("get message", err)
	}
	return msg, nil
}

// MarkMessageSeen flips seen once. A message that is already seen is returned as is.
func (r *MessageRepo) MarkMessageSeen(ctx context.Context, conversationID, messageID string, at time.Time) (model.Message, error) {
	if r.pool == nil {
		return model.Message{}, errNilPool
	}
	if !isUUID(messageID) {
		return model.Message{}, errs.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
UPDATE messages
SET seen = TRUE,
	seen_at = $3
WHERE match_id = $1
	AND id = $2::uuid
	AND NOT seen
RETURNING `+messageColumns+`
`, conversationID, messageID, at.UTC())
	msg, err := scanMessage(row)
	if err == nil {
		return msg, nil
	}
	if wrapped := wrapErr("mark message seen", err); !errors.Is(wrapped, errs.ErrNotFound) {
		return model.Message{}, wrapped
	}
	return r.GetMessage(ctx, conversationID, messageID)
}

func (r *MessageRepo) MarkConversationSeen(ctx context.Context, conversationID, readerID string, upToSeq int64, at time.Time) (int64, error) {
	if r.pool == nil {
		return 0, errNilPool
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE messages
SET seen = TRUE,
	seen_at = $3
WHERE match_id = $1
	AND sender_id <> $2
	AND NOT seen
	AND ($4::bigint <= 0 OR seq <= $4::bigint)
`, conversationID, readerID, at.UTC(), upToSeq)
	if err != nil {
		return 0, wrapErr("mark conversation seen", err)
	}
	return tag.RowsAffected(), nil
}

func (r *MessageRepo) LastMessage(ctx context.Context, conversationID string) (model.Message, error) {
	if r.pool == nil {
		return model.Message{}, errNilPool
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages
WHERE match_id = $1
ORDER BY seq DESC
LIMIT 1
`, conversationID)
	msg, err := scanMessage(row)
	if err != nil {
		return model.Message{}, wrapErr("get last message", err)
	}
	return msg, nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, conversationID, readerID string) (int, error) {
	if r.pool == nil {
		return 0, errNilPool
	}

	var count int
	err := r.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM messages
WHERE match_id = $1
	AND sender_id <> $2
	AND NOT seen
`, conversationID, readerID).Scan(&count)
	if err != nil {
		return 0, wrapErr("count unread messages", err)
	}
	return count, nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var msg model.Message
	if err := row.Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Seq,
		&msg.SenderID,
		&msg.Body,
		&msg.CreatedAt,
		&msg.Seen,
		&msg.SeenAt,
	); err != nil {
		return model.Message{}, fmt.Errorf("scan message: %w", err)
	}
	return msg, nil
}

func isUUID(raw string) bool {
	_, err := uuid.Parse(raw)
	return err == nil
}
