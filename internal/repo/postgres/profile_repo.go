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

const profileColumns = `id, display_name, gender, interests, birthdate, photos, open_pool`

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, errNilPool
	}

	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, userID)
	profile, err := scanProfile(row)
	if err != nil {
		return model.Profile{}, wrapErr("get profile", err)
	}
	return profile, nil
}

func (r *ProfileRepo) ListProfiles(ctx context.Context, userIDs []string) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if len(userIDs) == 0 {
		return []model.Profile{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, wrapErr("list profiles", err)
	}
	return collectProfiles(rows, "list profiles")
}

// ScanUndecided pages through profiles other than requesterID that have no swipe from
// requesterID, in id order after afterID.
func (r *ProfileRepo) ScanUndecided(ctx context.Context, requesterID, afterID string, limit int) ([]model.Profile, error) {
	if r.pool == nil {
		return nil, errNilPool
	}
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.pool.Query(ctx, `
SELECT `+profileColumns+`
FROM users u
WHERE u.id <> $1
	AND u.id COLLATE "C" > $2
	AND NOT EXISTS (
		SELECT 1
		FROM swipes s
		WHERE s.from_user_id = $1
			AND s.to_user_id = u.id
	)
ORDER BY u.id COLLATE "C"
LIMIT $3
`, requesterID, afterID, limit)
	if err != nil {
		return nil, wrapErr("scan undecided profiles", err)
	}
	return collectProfiles(rows, "scan undecided profiles")
}

func (r *ProfileRepo) UpsertProfile(ctx context.Context, profile model.Profile) error {
	if r.pool == nil {
		return errNilPool
	}

	var birthdate *time.Time
	if profile.Birthdate != nil {
		d := profile.Birthdate.UTC()
		birthdate = &d
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO users (
	id,
	display_name,
	gender,
	interests,
	birthdate,
	photos,
	open_pool,
	updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (id) DO UPDATE SET
	display_name = EXCLUDED.display_name,
	gender = EXCLUDED.gender,
	interests = EXCLUDED.interests,
	birthdate = EXCLUDED.birthdate,
	photos = EXCLUDED.photos,
	open_pool = EXCLUDED.open_pool,
	updated_at = NOW()
`, profile.UserID, profile.DisplayName, string(profile.Gender), nonNil(profile.Interests), birthdate, nonNil(profile.Photos), profile.OpenPool)
	if err != nil {
		return wrapErr("upsert profile", err)
	}
	return nil
}

func collectProfiles(rows pgx.Rows, op string) ([]model.Profile, error) {
	defer rows.Close()

	out := make([]model.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		out = append(out, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return out, nil
}

func scanProfile(row pgx.Row) (model.Profile, error) {
	var (
		profile model.Profile
		gender  string
	)
	if err := row.Scan(
		&profile.UserID,
		&profile.DisplayName,
		&gender,
		&profile.Interests,
		&profile.Birthdate,
		&profile.Photos,
		&profile.OpenPool,
	); err != nil {
		return model.Profile{}, fmt.Errorf("scan profile: %w", err)
	}
	profile.Gender = enums.Gender(gender)
	return profile, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
