// internal/adapter/storage/search_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"iwitness/internal/domain/criteria"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

const searchSchema = `
	CREATE TABLE IF NOT EXISTS searches (
		id         UUID PRIMARY KEY,
		session_id TEXT NOT NULL,
		keyword    TEXT NOT NULL DEFAULT '',
		location   TEXT NOT NULL DEFAULT '',
		center_lat DOUBLE PRECISION NOT NULL,
		center_lng DOUBLE PRECISION NOT NULL,
		radius_km  INTEGER NOT NULL,
		start_at   TIMESTAMPTZ,
		end_at     TIMESTAMPTZ,
		stream     BOOLEAN NOT NULL DEFAULT FALSE,
		params     JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS searches_session_id_idx ON searches (session_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS searches_created_at_idx ON searches (created_at DESC);
`

// SearchStore implements criteria.SearchStore on Postgres
type SearchStore struct {
	db *pgxpool.Pool
}

// NewSearchStore creates a new search store
func NewSearchStore(db *pgxpool.Pool) *SearchStore {
	return &SearchStore{
		db: db,
	}
}

// EnsureSchema creates the searches table if it does not exist
func (s *SearchStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, searchSchema); err != nil {
		return fmt.Errorf("error creating search schema: %w", err)
	}
	return nil
}

// SaveSearch saves a search record
func (s *SearchStore) SaveSearch(ctx context.Context, record criteria.SearchRecord) error {
	query := `
		INSERT INTO searches (
			id, session_id, keyword, location,
			center_lat, center_lng, radius_km,
			start_at, end_at, stream, params, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11, $12
		)
	`

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	paramsJSON, err := json.Marshal(record.Params)
	if err != nil {
		return fmt.Errorf("error marshaling search params: %w", err)
	}

	_, err = s.db.Exec(
		ctx,
		query,
		record.ID,
		record.SessionID,
		record.Params.Keyword,
		record.Params.Location,
		record.Center.Lat(),
		record.Center.Lng(),
		record.RadiusKm,
		record.Params.Start,
		record.Params.End,
		record.Params.Stream,
		paramsJSON,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error executing query: %w", err)
	}

	return nil
}

// GetSearch retrieves a search record by ID
func (s *SearchStore) GetSearch(ctx context.Context, id string) (*criteria.SearchRecord, error) {
	query := `
		SELECT id::text, session_id, center_lat, center_lng, radius_km, params, created_at
		FROM searches
		WHERE id = $1
	`

	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", criteria.ErrSearchNotFound, id)
	}

	record, err := scanSearch(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", criteria.ErrSearchNotFound, id)
		}
		return nil, fmt.Errorf("error getting search: %w", err)
	}

	return record, nil
}

// FindSearches lists search records matching the filter, newest first
func (s *SearchStore) FindSearches(ctx context.Context, filter criteria.SearchFilter) ([]criteria.SearchRecord, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		conditions = append(conditions, fmt.Sprintf("session_id = $%d", len(args)))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		conditions = append(conditions, fmt.Sprintf("keyword ILIKE $%d", len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	args = append(args, limit)

	query := `
		SELECT id::text, session_id, center_lat, center_lng, radius_km, params, created_at
		FROM searches
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var records []criteria.SearchRecord
	for rows.Next() {
		record, err := scanSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

func scanSearch(row pgx.Row) (*criteria.SearchRecord, error) {
	var (
		record     criteria.SearchRecord
		lat, lng   float64
		paramsJSON []byte
	)

	if err := row.Scan(
		&record.ID,
		&record.SessionID,
		&lat,
		&lng,
		&record.RadiusKm,
		&paramsJSON,
		&record.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(paramsJSON, &record.Params); err != nil {
		return nil, fmt.Errorf("error unmarshaling search params: %w", err)
	}
	record.Center = criteria.LatLng{lat, lng}

	return &record, nil
}
