package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anchorlab/anchorlab/internal/profile"
	"github.com/jackc/pgx/v5"
)

// ErrSeedNotFound is returned when a seed id is absent.
var ErrSeedNotFound = errors.New("seed not found")

// SaveSeed persists a mixed profile to the marketplace catalog.
func (s *Store) SaveSeed(ctx context.Context, p *profile.MixedProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal seed %s: %w", p.ID, err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO seeds (id, goal_statement, persona_style, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			goal_statement = EXCLUDED.goal_statement,
			persona_style = EXCLUDED.persona_style,
			payload = EXCLUDED.payload`,
		p.ID, p.GoalStatement, p.PersonaStyle, payload, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save seed %s: %w", p.ID, err)
	}
	return nil
}

// GetSeed retrieves a single mixed profile by id.
func (s *Store) GetSeed(ctx context.Context, id string) (*profile.MixedProfile, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM seeds WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("seed %s: %w", id, ErrSeedNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get seed %s: %w", id, err)
	}

	var p profile.MixedProfile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("parse seed %s: %w", id, err)
	}
	return &p, nil
}

// ListSeeds returns all persisted mixed profiles, newest first.
func (s *Store) ListSeeds(ctx context.Context) ([]*profile.MixedProfile, error) {
	rows, err := s.db.Query(ctx, `SELECT payload FROM seeds ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list seeds: %w", err)
	}
	defer rows.Close()

	var seeds []*profile.MixedProfile
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan seed: %w", err)
		}
		var p profile.MixedProfile
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, fmt.Errorf("parse seed: %w", err)
		}
		seeds = append(seeds, &p)
	}
	return seeds, rows.Err()
}

// DeleteSeed removes a mixed profile from the catalog.
func (s *Store) DeleteSeed(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM seeds WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete seed %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("seed %s: %w", id, ErrSeedNotFound)
	}
	return nil
}
