package profiles

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/enums"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/errs"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/model"
	"github.com/PR-25-LIGGO/PR-25-LIGGO/internal/domain/rules"
)

type ProfileWriter interface {
	UpsertProfile(ctx context.Context, profile model.Profile) error
}

type SeedFile struct {
	Profiles []SeedProfile `yaml:"profiles"`
}

type SeedProfile struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Gender      string   `yaml:"gender"`
	Interests   []string `yaml:"interests"`
	Birthdate   string   `yaml:"birthdate"`
	Photos      []string `yaml:"photos"`
	OpenPool    bool     `yaml:"open_pool"`
}

// ParseSeed reads a YAML list of profiles and validates every entry. Birth dates may
// use any format ParseBirthdate accepts.
func ParseSeed(r io.Reader, now time.Time) ([]model.Profile, error) {
	var file SeedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	out := make([]model.Profile, 0, len(file.Profiles))
	seen := make(map[string]struct{}, len(file.Profiles))
	for i, entry := range file.Profiles {
		id := strings.TrimSpace(entry.ID)
		if !rules.ValidUserID(id) {
			return nil, fmt.Errorf("profile #%d: invalid id %q: %w", i+1, entry.ID, errs.ErrValidation)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("profile #%d: duplicate id %q: %w", i+1, id, errs.ErrValidation)
		}
		seen[id] = struct{}{}

		birthdate, err := rules.ParseBirthdate(entry.Birthdate, now)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", id, err)
		}

		out = append(out, model.Profile{
			UserID:      id,
			DisplayName: strings.TrimSpace(entry.DisplayName),
			Gender:      enums.ParseGender(entry.Gender),
			Interests:   rules.NormalizeInterests(entry.Interests),
			Birthdate:   birthdate,
			Photos:      entry.Photos,
			OpenPool:    entry.OpenPool,
		})
	}
	return out, nil
}

func Import(ctx context.Context, w ProfileWriter, r io.Reader, now time.Time) (int, error) {
	rows, err := ParseSeed(r, now)
	if err != nil {
		return 0, err
	}
	for _, p := range rows {
		if err := w.UpsertProfile(ctx, p); err != nil {
			return 0, fmt.Errorf("upsert profile %s: %w", p.UserID, err)
		}
	}
	return len(rows), nil
}
