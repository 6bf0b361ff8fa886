package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PetertheMD/nautune/domain"
	"github.com/PetertheMD/nautune/store"
)

func setupIndex(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	return db
}

func seedCompleted(t *testing.T, db *store.DB, d *domain.Download) {
	t.Helper()
	d.Status = domain.DownloadStatusCompleted
	if d.CompletedAt == nil {
		now := time.Now().UTC()
		d.CompletedAt = &now
	}
	require.NoError(t, db.CreateDownload(d))
}

func completedAt(tm time.Time) *time.Time { return &tm }

func seedCatalog(t *testing.T, db *store.DB) {
	t.Helper()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seedCompleted(t, db, &domain.Download{
		TrackID: "t1", Title: "Alpha", Artist: "Artist One", AlbumID: "a1",
		Album: "First Album", Genre: "rock", DurationMS: 180000, PlayCount: 5,
		Favorite: true, SizeBytes: 100, CompletedAt: completedAt(base),
	})
	seedCompleted(t, db, &domain.Download{
		TrackID: "t2", Title: "Beta", Artist: "Artist One", AlbumID: "a1",
		Album: "First Album", Genre: "rock", DurationMS: 240000,
		SizeBytes: 300, CompletedAt: completedAt(base.Add(time.Hour)),
	})
	seedCompleted(t, db, &domain.Download{
		TrackID: "t3", Title: "Gamma", Artist: "Artist Two",
		Album: "Second Album", Genre: "jazz", DurationMS: 120000, PlayCount: 9,
		SizeBytes: 200, CompletedAt: completedAt(base.Add(2 * time.Hour)),
	})
}

func TestLocal_NoLibrarySelected(t *testing.T) {
	l := NewLocal(setupIndex(t))

	_, err := l.Albums(context.Background(), "", Page{})
	assert.ErrorIs(t, err, domain.ErrNoLibrarySelected)
}

func TestLocal_EmptyIndex(t *testing.T) {
	l := NewLocal(setupIndex(t))
	ctx := context.Background()

	assert.True(t, l.IsAvailable())
	assert.Equal(t, "local", l.TypeName())

	albums, err := l.Albums(ctx, LocalLibraryID, Page{})
	require.NoError(t, err)
	assert.Empty(t, albums)

	tracks, err := l.Tracks(ctx, LocalLibraryID, Page{})
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestLocal_AlbumGrouping(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	l := NewLocal(db)
	ctx := context.Background()

	albums, err := l.Albums(ctx, LocalLibraryID, Page{})
	require.NoError(t, err)
	require.Len(t, albums, 2)

	// Sorted by name; track counts follow group membership.
	assert.Equal(t, "First Album", albums[0].Name)
	assert.Equal(t, "a1", albums[0].ID)
	assert.Equal(t, 2, albums[0].TrackCount)
	assert.Equal(t, "Artist One", albums[0].Artist)

	// No server album id recorded, so the group gets a synthetic one.
	assert.Equal(t, "Second Album", albums[1].Name)
	assert.Equal(t, "local-album:Second Album", albums[1].ID)
	assert.Equal(t, 1, albums[1].TrackCount)
}

func TestLocal_AlbumTracks(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	l := NewLocal(db)
	ctx := context.Background()

	tracks, err := l.AlbumTracks(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "Alpha", tracks[0].Name)
	assert.Equal(t, "Beta", tracks[1].Name)

	// Synthetic album ids resolve too.
	tracks, err = l.AlbumTracks(ctx, "local-album:Second Album")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "t3", tracks[0].ID)
}

func TestLocal_UnknownAlbumFallback(t *testing.T) {
	db := setupIndex(t)
	seedCompleted(t, db, &domain.Download{TrackID: "t1", Title: "Stray", Artist: "Someone"})
	l := NewLocal(db)

	albums, err := l.Albums(context.Background(), LocalLibraryID, Page{})
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Unknown Album", albums[0].Name)
}

func TestLocal_ArtistsAndGenres(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	l := NewLocal(db)
	ctx := context.Background()

	artists, err := l.Artists(ctx, LocalLibraryID, Page{})
	require.NoError(t, err)
	require.Len(t, artists, 2)
	assert.Equal(t, "Artist One", artists[0].Name)
	assert.Equal(t, 1, artists[0].AlbumCount)

	albums, err := l.ArtistAlbums(ctx, artists[1].ID)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "Second Album", albums[0].Name)

	genres, err := l.Genres(ctx, LocalLibraryID, Page{})
	require.NoError(t, err)
	require.Len(t, genres, 2)
	assert.Equal(t, "jazz", genres[0].Name)
	assert.Equal(t, "rock", genres[1].Name)

	rock, err := l.GenreAlbums(ctx, "local-genre:rock")
	require.NoError(t, err)
	require.Len(t, rock, 1)
	assert.Equal(t, "First Album", rock[0].Name)
}

func TestLocal_IncompleteEntriesExcluded(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	require.NoError(t, db.CreateDownload(&domain.Download{
		TrackID: "t4", Title: "Pending", Artist: "Artist One", Album: "First Album",
		Status: domain.DownloadStatusQueued,
	}))
	l := NewLocal(db)

	tracks, err := l.Tracks(context.Background(), LocalLibraryID, Page{})
	require.NoError(t, err)
	assert.Len(t, tracks, 3)
}

func TestLocal_Pagination(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	l := NewLocal(db)
	ctx := context.Background()

	tracks, err := l.Tracks(ctx, LocalLibraryID, Page{Start: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "Beta", tracks[0].Name)

	// A window past the end is an empty success.
	tracks, err = l.Tracks(ctx, LocalLibraryID, Page{Start: 10, Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestLocal_Search(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	l := NewLocal(db)
	ctx := context.Background()

	tracks, err := l.SearchTracks(ctx, LocalLibraryID, "ALPHA", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "t1", tracks[0].ID)

	albums, err := l.SearchAlbums(ctx, LocalLibraryID, "album", 1)
	require.NoError(t, err)
	assert.Len(t, albums, 1)

	none, err := l.SearchArtists(ctx, LocalLibraryID, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocal_SmartViews(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	l := NewLocal(db)
	ctx := context.Background()

	favs, err := l.FavoriteTracks(ctx, LocalLibraryID, 10)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "t1", favs[0].ID)

	most, err := l.MostPlayed(ctx, LocalLibraryID, 2)
	require.NoError(t, err)
	require.Len(t, most, 2)
	assert.Equal(t, "t3", most[0].ID)
	assert.Equal(t, "t1", most[1].ID)

	longest, err := l.LongestTracks(ctx, LocalLibraryID, 1)
	require.NoError(t, err)
	require.Len(t, longest, 1)
	assert.Equal(t, "t2", longest[0].ID)

	recent, err := l.RecentlyAdded(ctx, LocalLibraryID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "Second Album", recent[0].Name)
}

func TestLocal_PlaylistSnapshots(t *testing.T) {
	db := setupIndex(t)
	seedCatalog(t, db)
	require.NoError(t, db.SavePlaylistSnapshot(&domain.PlaylistSnapshot{
		ID:       "pl1",
		Name:     "Mixtape",
		TrackIDs: domain.StringSlice{"t3", "t1", "missing"},
	}))
	l := NewLocal(db)
	ctx := context.Background()

	playlists, err := l.Playlists(ctx, LocalLibraryID, Page{})
	require.NoError(t, err)
	require.Len(t, playlists, 1)
	assert.Equal(t, "Mixtape", playlists[0].Name)
	assert.Equal(t, 3, playlists[0].TrackCount)

	// Snapshot order preserved; tracks that are not downloaded are skipped.
	tracks, err := l.PlaylistTracks(ctx, "pl1")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "t3", tracks[0].ID)
	assert.Equal(t, "t1", tracks[1].ID)

	_, err = l.PlaylistTracks(ctx, "absent")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLocal_MutationsAreReadOnly(t *testing.T) {
	l := NewLocal(setupIndex(t))
	ctx := context.Background()

	_, err := l.CreatePlaylist(ctx, "p", nil)
	assert.ErrorIs(t, err, domain.ErrReadOnly)
	assert.ErrorIs(t, l.AddToPlaylist(ctx, "pl1", []string{"t1"}), domain.ErrReadOnly)
	assert.ErrorIs(t, l.RemoveFromPlaylist(ctx, "pl1", []string{"t1"}), domain.ErrReadOnly)
	assert.ErrorIs(t, l.MovePlaylistItem(ctx, "pl1", "t1", 0), domain.ErrReadOnly)
}
