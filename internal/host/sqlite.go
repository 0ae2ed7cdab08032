package host

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pagedeck/pdk/internal/assets"
	"github.com/pagedeck/pdk/internal/playlist"
)

// SQLiteHost keeps the catalogs in a catalog table and the configuration
// in an append-only revision log. Every push becomes a new revision; the
// snapshot is the latest one.
type SQLiteHost struct {
	db  *sql.DB
	key []byte
}

// NewSQLiteHost wraps an open database (see internal/db.Open). encryptKey
// enables snapshot encryption; nil stores plaintext bodies.
func NewSQLiteHost(db *sql.DB, encryptKey []byte) *SQLiteHost {
	return &SQLiteHost{db: db, key: encryptKey}
}

// Snapshot loads both catalogs and the most recent configuration revision.
func (h *SQLiteHost) Snapshot(ctx context.Context) (*Snapshot, error) {
	local, err := h.readCatalog(ctx, "local")
	if err != nil {
		return nil, err
	}
	node, err := h.readCatalog(ctx, "node")
	if err != nil {
		return nil, err
	}
	var body []byte
	err = h.db.QueryRowContext(ctx,
		`SELECT body FROM revisions ORDER BY created_at DESC, revision_id DESC LIMIT 1`,
	).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load revision: %w", err)
	}
	cfg, err := DecodeConfig(body, h.key)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Assets: local, NodeAssets: node, Config: cfg}, nil
}

// PushConfig appends a new revision.
func (h *SQLiteHost) PushConfig(ctx context.Context, cfg playlist.Config) error {
	data, err := EncodeConfig(cfg, h.key)
	if err != nil {
		return err
	}
	now := float64(time.Now().UnixNano()) / 1e9
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO revisions (revision_id, created_at, body) VALUES (?, ?, ?)`,
		uuid.NewString(), now, data,
	)
	if err != nil {
		return fmt.Errorf("insert revision: %w", err)
	}
	return nil
}

// RevisionCount returns the number of stored configuration revisions.
func (h *SQLiteHost) RevisionCount(ctx context.Context) (int, error) {
	var n int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM revisions`).Scan(&n)
	return n, err
}

// ReplaceCatalog wholesale-replaces one catalog (owner "local" or "node").
// Used by host-side tooling; the editor never writes catalogs.
func (h *SQLiteHost) ReplaceCatalog(ctx context.Context, owner string, catalog map[string]assets.Asset) error {
	if owner != "local" && owner != "node" {
		return fmt.Errorf("unknown catalog owner %q", owner)
	}
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog WHERE owner = ?`, owner); err != nil {
		return err
	}
	for id, a := range catalog {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO catalog (owner, asset_id, filetype, filename, thumb, uploaded) VALUES (?, ?, ?, ?, ?, ?)`,
			owner, id, a.Filetype, a.Filename, a.Thumb, a.Uploaded,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (h *SQLiteHost) readCatalog(ctx context.Context, owner string) (map[string]assets.Asset, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT asset_id, filetype, filename, thumb, uploaded FROM catalog WHERE owner = ?`, owner)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()
	catalog := map[string]assets.Asset{}
	for rows.Next() {
		var a assets.Asset
		if err := rows.Scan(&a.ID, &a.Filetype, &a.Filename, &a.Thumb, &a.Uploaded); err != nil {
			return nil, err
		}
		catalog[a.ID] = a
	}
	return catalog, rows.Err()
}
