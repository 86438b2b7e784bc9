// Package profilestore persists profiles and run history in SQLite.
//
// The store is an external profile source: profiles saved here are layered
// over the built-in and YAML profiles when the registry is assembled.
package profilestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leaptoken/pkg/profile"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ErrProfileNotFound is returned when a named profile is not stored.
var ErrProfileNotFound = errors.New("profile not found")

var errNotOpen = errors.New("database not opened")

// Store is a SQLite-backed profile and run store.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and runs migrations.
// Use ":memory:" for an in-memory database.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection: in-memory databases are per-connection, and SQLite
	// serializes writers anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s := NewWithDB(db, logger)
	s.path = path
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection. The caller runs Migrate.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// Path returns the database path given to Open.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ProfileInfo summarizes a stored profile.
type ProfileInfo struct {
	Name        string    `json:"name"`
	Extension   string    `json:"extension"`
	Entries     int       `json:"entries"`
	Fingerprint string    `json:"fingerprint"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SaveProfile stores p, replacing any stored profile with the same name.
// changed is false when the stored fingerprint already matched.
func (s *Store) SaveProfile(ctx context.Context, p *profile.Profile) (changed bool, err error) {
	if s.db == nil {
		return false, errNotOpen
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT fingerprint FROM profiles WHERE name = ?`, p.Name()).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		err = nil
	case err != nil:
		return false, fmt.Errorf("failed to read profile %q: %w", p.Name(), err)
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (name, extension, comment_prefix, fingerprint, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			extension = excluded.extension,
			comment_prefix = excluded.comment_prefix,
			fingerprint = excluded.fingerprint,
			updated_at = excluded.updated_at`,
		p.Name(), p.Extension(), p.CommentPrefix(), p.Fingerprint(), time.Now().UTC(),
	); err != nil {
		return false, fmt.Errorf("failed to save profile %q: %w", p.Name(), err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM profile_entries WHERE profile = ?`, p.Name()); err != nil {
		return false, fmt.Errorf("failed to clear entries of %q: %w", p.Name(), err)
	}
	for i, e := range p.Entries() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO profile_entries (profile, position, pattern, code) VALUES (?, ?, ?, ?)`,
			p.Name(), i, e.Pattern, e.Code,
		); err != nil {
			return false, fmt.Errorf("failed to save entry %d of %q: %w", i, p.Name(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit profile %q: %w", p.Name(), err)
	}

	changed = existing != p.Fingerprint()
	s.logger.Debug("saved profile",
		slog.String("language", p.Name()),
		slog.Int("entries", p.Len()),
		slog.Bool("changed", changed),
	)
	return changed, nil
}

// DeleteProfile removes a stored profile and its entries.
func (s *Store) DeleteProfile(ctx context.Context, name string) error {
	if s.db == nil {
		return errNotOpen
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete profile %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return nil
}

// SourceName implements profileload.Source.
func (s *Store) SourceName() string {
	return "store:" + s.path
}

// LoadProfiles returns all stored profiles ordered by name, entries in
// their stored order.
func (s *Store) LoadProfiles(ctx context.Context) ([]*profile.Profile, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.extension, p.comment_prefix, p.fingerprint, e.pattern, e.code
		FROM profiles p
		LEFT JOIN profile_entries e ON e.profile = p.name
		ORDER BY p.name, e.position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	type pending struct {
		builder     *profile.Builder
		fingerprint string
	}
	var order []string
	byName := map[string]*pending{}

	for rows.Next() {
		var name, ext, comment, fp string
		var pattern, code sql.NullString
		if err := rows.Scan(&name, &ext, &comment, &fp, &pattern, &code); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		pd, ok := byName[name]
		if !ok {
			pd = &pending{
				builder:     profile.NewProfile(name).Extension(ext).Comment(comment),
				fingerprint: fp,
			}
			byName[name] = pd
			order = append(order, name)
		}
		if pattern.Valid {
			pd.builder.Keyword(pattern.String, code.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate profiles: %w", err)
	}

	out := make([]*profile.Profile, 0, len(order))
	for _, name := range order {
		pd := byName[name]
		p, err := pd.builder.Build()
		if err != nil {
			return nil, err
		}
		if p.Fingerprint() != pd.fingerprint {
			s.logger.Warn("stored profile fingerprint mismatch",
				slog.String("language", name),
				slog.String("stored", pd.fingerprint),
				slog.String("computed", p.Fingerprint()),
			)
		}
		out = append(out, p)
	}
	return out, nil
}

// ListProfiles summarizes stored profiles ordered by name.
func (s *Store) ListProfiles(ctx context.Context) ([]ProfileInfo, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.name, p.extension, p.fingerprint, p.updated_at, COUNT(e.position)
		FROM profiles p
		LEFT JOIN profile_entries e ON e.profile = p.name
		GROUP BY p.name
		ORDER BY p.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []ProfileInfo
	for rows.Next() {
		var info ProfileInfo
		if err := rows.Scan(&info.Name, &info.Extension, &info.Fingerprint, &info.UpdatedAt, &info.Entries); err != nil {
			return nil, fmt.Errorf("failed to scan profile summary: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}
