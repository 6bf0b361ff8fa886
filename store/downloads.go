package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/PetertheMD/nautune/domain"
)

func (db *DB) CreateDownload(d *domain.Download) error {
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	query := `INSERT INTO downloads (
		track_id, title, artist, artists, album_id, album, genre,
		duration_ms, favorite, play_count,
		status, size_bytes, file_path, error,
		created_at, updated_at, completed_at
	) VALUES (
		:track_id, :title, :artist, :artists, :album_id, :album, :genre,
		:duration_ms, :favorite, :play_count,
		:status, :size_bytes, :file_path, :error,
		:created_at, :updated_at, :completed_at
	)`

	if _, err := db.NamedExec(query, d); err != nil {
		return fmt.Errorf("failed to create download: %w", err)
	}
	return nil
}

// GetDownload returns domain.ErrNotFound when no entry exists for the track.
func (db *DB) GetDownload(trackID string) (*domain.Download, error) {
	var d domain.Download
	err := db.Get(&d, `SELECT * FROM downloads WHERE track_id = ?`, trackID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (db *DB) UpdateDownloadStatus(trackID string, status domain.DownloadStatus, errMsg string) error {
	query := `UPDATE downloads SET status = ?, error = ?, updated_at = ? WHERE track_id = ?`
	result, err := db.Exec(query, status, errMsg, time.Now().UTC(), trackID)
	if err != nil {
		return fmt.Errorf("failed to update download status: %w", err)
	}
	return requireRow(result, trackID)
}

// UpdateDownloadSize records bytes received so far for an in-flight transfer.
func (db *DB) UpdateDownloadSize(trackID string, sizeBytes int64) error {
	query := `UPDATE downloads SET size_bytes = ?, updated_at = ? WHERE track_id = ?`
	result, err := db.Exec(query, sizeBytes, time.Now().UTC(), trackID)
	if err != nil {
		return fmt.Errorf("failed to update download size: %w", err)
	}
	return requireRow(result, trackID)
}

func (db *DB) MarkDownloadCompleted(trackID, filePath string, sizeBytes int64) error {
	now := time.Now().UTC()
	query := `UPDATE downloads SET
		status = ?, file_path = ?, size_bytes = ?, error = '', updated_at = ?, completed_at = ?
	WHERE track_id = ?`
	result, err := db.Exec(query, domain.DownloadStatusCompleted, filePath, sizeBytes, now, now, trackID)
	if err != nil {
		return fmt.Errorf("failed to mark download completed: %w", err)
	}
	return requireRow(result, trackID)
}

func (db *DB) DeleteDownload(trackID string) error {
	result, err := db.Exec(`DELETE FROM downloads WHERE track_id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("failed to delete download: %w", err)
	}
	return requireRow(result, trackID)
}

func (db *DB) ListDownloads() ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list, `SELECT * FROM downloads ORDER BY created_at`)
	return list, err
}

func (db *DB) ListDownloadsByStatus(status domain.DownloadStatus) ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list, `SELECT * FROM downloads WHERE status = ? ORDER BY created_at`, status)
	return list, err
}

// ListCompleted returns finished downloads, oldest completion first.
func (db *DB) ListCompleted() ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list,
		`SELECT * FROM downloads WHERE status = ? ORDER BY completed_at, track_id`,
		domain.DownloadStatusCompleted)
	return list, err
}

// ListCompletedLargestFirst serves the free-N-bytes cleanup policy, which
// removes the fewest items necessary.
func (db *DB) ListCompletedLargestFirst() ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list,
		`SELECT * FROM downloads WHERE status = ? ORDER BY size_bytes DESC, track_id`,
		domain.DownloadStatusCompleted)
	return list, err
}

func (db *DB) ListCompletedOlderThan(cutoff time.Time) ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list,
		`SELECT * FROM downloads WHERE status = ? AND completed_at < ? ORDER BY completed_at`,
		domain.DownloadStatusCompleted, cutoff.UTC())
	return list, err
}

func (db *DB) ListCompletedByAlbum(album string) ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list,
		`SELECT * FROM downloads WHERE status = ? AND album = ? ORDER BY completed_at`,
		domain.DownloadStatusCompleted, album)
	return list, err
}

func (db *DB) ListCompletedByArtist(artist string) ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list,
		`SELECT * FROM downloads WHERE status = ? AND artist = ? ORDER BY completed_at`,
		domain.DownloadStatusCompleted, artist)
	return list, err
}

func (db *DB) CountByStatus(status domain.DownloadStatus) (int, error) {
	var n int
	err := db.Get(&n, `SELECT COUNT(*) FROM downloads WHERE status = ?`, status)
	return n, err
}

func (db *DB) TotalCompletedBytes() (int64, error) {
	var n int64
	err := db.Get(&n,
		`SELECT COALESCE(SUM(size_bytes), 0) FROM downloads WHERE status = ?`,
		domain.DownloadStatusCompleted)
	return n, err
}

// PathInUse reports whether another track's entry already claims the file
// path.
func (db *DB) PathInUse(path, excludeTrackID string) (bool, error) {
	var n int
	err := db.Get(&n,
		`SELECT COUNT(*) FROM downloads WHERE file_path = ? AND track_id != ?`,
		path, excludeTrackID)
	return n > 0, err
}

// FindInterrupted returns entries left mid-transfer by a previous run.
func (db *DB) FindInterrupted() ([]*domain.Download, error) {
	var list []*domain.Download
	err := db.Select(&list,
		`SELECT * FROM downloads WHERE status = ? ORDER BY created_at`,
		domain.DownloadStatusDownloading)
	return list, err
}

func requireRow(result sql.Result, trackID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("download for track %s: %w", trackID, domain.ErrNotFound)
	}
	return nil
}
