package pgstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/open-rails/vipkit/membership"
)

// Store persists membership records in Postgres. Every operation runs a
// single short statement with a bounded timeout so a stalled database cannot
// pile up background work.
type Store struct {
	pg      *pgxpool.Pool
	schema  string
	timeout time.Duration
}

func New(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "public"
	}
	return &Store{pg: pg, schema: s, timeout: 5 * time.Second}
}

func (s *Store) table() string { return s.schema + ".vip_memberships" }

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if s.pg == nil {
		return errors.New("pgstore: nil pool")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	_, err := s.pg.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+s.table()+` (
		identifier TEXT PRIMARY KEY,
		group_name TEXT NOT NULL,
		granted_at BIGINT NOT NULL,
		expires_at BIGINT NOT NULL
	)`)
	return err
}

func (s *Store) Insert(ctx context.Context, rec membership.Record) error {
	if s.pg == nil {
		return errors.New("pgstore: nil pool")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	ct, err := s.pg.Exec(ctx, `INSERT INTO `+s.table()+` (identifier, group_name, granted_at, expires_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (identifier) DO NOTHING`,
		rec.Identifier, rec.Group, rec.GrantedAt, rec.ExpiresAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return membership.ErrExists
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, identifier string) error {
	if s.pg == nil {
		return errors.New("pgstore: nil pool")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	ct, err := s.pg.Exec(ctx, `DELETE FROM `+s.table()+` WHERE identifier=$1`, identifier)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return membership.ErrNotFound
	}
	return nil
}

func (s *Store) Find(ctx context.Context, identifier string) (membership.Record, bool, error) {
	var rec membership.Record
	if s.pg == nil || identifier == "" {
		return rec, false, nil
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	err := s.pg.QueryRow(ctx, `SELECT identifier, group_name, granted_at, expires_at FROM `+s.table()+` WHERE identifier=$1 LIMIT 1`,
		identifier).Scan(&rec.Identifier, &rec.Group, &rec.GrantedAt, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return membership.Record{}, false, nil
	}
	if err != nil {
		return membership.Record{}, false, err
	}
	return rec, true, nil
}

func (s *Store) FindExpired(ctx context.Context, nowUnix int64) ([]membership.Record, error) {
	if s.pg == nil {
		return nil, errors.New("pgstore: nil pool")
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	rows, err := s.pg.Query(ctx, `SELECT identifier, group_name, granted_at, expires_at FROM `+s.table()+` WHERE expires_at > 0 AND expires_at < $1`, nowUnix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []membership.Record
	for rows.Next() {
		var rec membership.Record
		if err := rows.Scan(&rec.Identifier, &rec.Group, &rec.GrantedAt, &rec.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
