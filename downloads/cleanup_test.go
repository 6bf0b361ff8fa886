package downloads

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PetertheMD/nautune/domain"
	"github.com/PetertheMD/nautune/store"
)

// seedFile writes a real file of n bytes and records it as a completed
// download.
func seedFile(t *testing.T, db *store.DB, dir, trackID, artist, album string, size int64, completed time.Time) string {
	t.Helper()
	path := filepath.Join(dir, sanitize(artist), sanitize(album), trackID+".flac")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	require.NoError(t, db.CreateDownload(&domain.Download{
		TrackID:     trackID,
		Title:       "Title " + trackID,
		Artist:      artist,
		Album:       album,
		Status:      domain.DownloadStatusCompleted,
		SizeBytes:   size,
		FilePath:    path,
		CompletedAt: &completed,
	}))
	return path
}

func setupCleanup(t *testing.T, maxStorageBytes int64) (*Manager, *store.DB, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	m := NewManager(db, newFakeSource(), Config{Dir: dir, MaxConcurrent: 1, MaxStorageBytes: maxStorageBytes}, nil)
	return m, db, dir
}

func TestCleanup_FreeBytesRemovesFewestItems(t *testing.T) {
	m, db, dir := setupCleanup(t, 0)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	small := seedFile(t, db, dir, "t-small", "A", "X", 100, base)
	large := seedFile(t, db, dir, "t-large", "A", "Y", 1000, base.Add(time.Hour))
	mid := seedFile(t, db, dir, "t-mid", "B", "Z", 500, base.Add(2*time.Hour))

	freed, removed, err := m.FreeBytes(1200)
	require.NoError(t, err)

	// Largest first: 1000 + 500 covers the target in two removals; the
	// small one survives.
	assert.Equal(t, int64(1500), freed)
	assert.Equal(t, 2, removed)
	_, err = os.Stat(large)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(mid)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(small)
	assert.NoError(t, err)

	_, err = db.GetDownload("t-small")
	assert.NoError(t, err)
	_, err = db.GetDownload("t-large")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCleanup_FreeBytesZeroTarget(t *testing.T) {
	m, db, dir := setupCleanup(t, 0)
	seedFile(t, db, dir, "t1", "A", "X", 100, time.Now().UTC())

	freed, removed, err := m.FreeBytes(0)
	require.NoError(t, err)
	assert.Zero(t, freed)
	assert.Zero(t, removed)
}

func TestCleanup_RemoveOlderThan(t *testing.T) {
	m, db, dir := setupCleanup(t, 0)
	now := time.Now().UTC()

	old := seedFile(t, db, dir, "t-old", "A", "X", 100, now.Add(-72*time.Hour))
	fresh := seedFile(t, db, dir, "t-fresh", "A", "X", 100, now.Add(-time.Hour))

	removed, err := m.RemoveOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestCleanup_RemoveAlbumAndArtist(t *testing.T) {
	m, db, dir := setupCleanup(t, 0)
	now := time.Now().UTC()

	seedFile(t, db, dir, "t1", "Artist One", "Album A", 100, now)
	seedFile(t, db, dir, "t2", "Artist One", "Album A", 100, now)
	seedFile(t, db, dir, "t3", "Artist One", "Album B", 100, now)
	seedFile(t, db, dir, "t4", "Artist Two", "Album C", 100, now)

	removed, err := m.RemoveAlbum("Album A")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	removed, err = m.RemoveArtist("Artist One")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	remaining, err := db.ListCompleted()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "t4", remaining[0].TrackID)
}

func TestCleanup_EnforceStorageLimit(t *testing.T) {
	m, db, dir := setupCleanup(t, 250)
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	oldest := seedFile(t, db, dir, "t-oldest", "A", "X", 100, base)
	middle := seedFile(t, db, dir, "t-middle", "A", "Y", 100, base.Add(time.Hour))
	newest := seedFile(t, db, dir, "t-newest", "B", "Z", 100, base.Add(2*time.Hour))

	removed, err := m.EnforceStorageLimit()
	require.NoError(t, err)

	// 300 bytes against a 250 ceiling: one eviction, oldest first.
	assert.Equal(t, 1, removed)
	_, err = os.Stat(oldest)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(middle)
	assert.NoError(t, err)
	_, err = os.Stat(newest)
	assert.NoError(t, err)

	total, err := m.TotalBytes()
	require.NoError(t, err)
	assert.Equal(t, int64(200), total)
}

func TestCleanup_EnforceStorageLimitDisabled(t *testing.T) {
	m, db, dir := setupCleanup(t, 0)
	seedFile(t, db, dir, "t1", "A", "X", 5000, time.Now().UTC())

	removed, err := m.EnforceStorageLimit()
	require.NoError(t, err)
	assert.Zero(t, removed)
}
