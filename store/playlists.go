package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PetertheMD/nautune/domain"
)

// SavePlaylistSnapshot replaces any existing snapshot with the same id.
func (db *DB) SavePlaylistSnapshot(s *domain.PlaylistSnapshot) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	query := `INSERT OR REPLACE INTO playlist_snapshots (id, name, track_ids, saved_at)
		VALUES (:id, :name, :track_ids, :saved_at)`
	if _, err := db.NamedExec(query, s); err != nil {
		return fmt.Errorf("failed to save playlist snapshot: %w", err)
	}
	return nil
}

func (db *DB) GetPlaylistSnapshot(id string) (*domain.PlaylistSnapshot, error) {
	var s domain.PlaylistSnapshot
	err := db.Get(&s, `SELECT * FROM playlist_snapshots WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) ListPlaylistSnapshots() ([]*domain.PlaylistSnapshot, error) {
	var list []*domain.PlaylistSnapshot
	err := db.Select(&list, `SELECT * FROM playlist_snapshots ORDER BY name COLLATE NOCASE`)
	return list, err
}

func (db *DB) DeletePlaylistSnapshot(id string) error {
	if _, err := db.Exec(`DELETE FROM playlist_snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete playlist snapshot: %w", err)
	}
	return nil
}
