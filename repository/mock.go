package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/PetertheMD/nautune/domain"
)

// MockClient is an in-memory RemoteClient for development and tests. It
// serves a tiny fixed catalog and records playlist mutations.
type MockClient struct {
	mu            sync.Mutex
	authenticated bool
	playlists     map[string][]string
	names         map[string]string
}

func NewMockClient() *MockClient {
	return &MockClient{
		authenticated: true,
		playlists:     make(map[string][]string),
		names:         make(map[string]string),
	}
}

// SetAuthenticated toggles the session state.
func (c *MockClient) SetAuthenticated(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = ok
}

func (c *MockClient) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

func (c *MockClient) mockTracks() []domain.Track {
	return []domain.Track{
		{ID: "t1", Name: "Mock Track 1", Artist: "Mock Artist", AlbumID: "a1", Album: "Mock Album", Duration: 3 * time.Minute, Favorite: true, PlayCount: 12},
		{ID: "t2", Name: "Mock Track 2", Artist: "Mock Artist", AlbumID: "a1", Album: "Mock Album", Duration: 4 * time.Minute, PlayCount: 3},
		{ID: "t3", Name: "Another Song", Artist: "Other Artist", AlbumID: "a2", Album: "Other Album", Duration: 2 * time.Minute},
	}
}

func (c *MockClient) mockAlbums() []domain.Album {
	return []domain.Album{
		{ID: "a1", Name: "Mock Album", ArtistID: "ar1", Artist: "Mock Artist", TrackCount: 2},
		{ID: "a2", Name: "Other Album", ArtistID: "ar2", Artist: "Other Artist", TrackCount: 1},
	}
}

func (c *MockClient) Libraries(context.Context) ([]domain.Library, error) {
	return []domain.Library{{ID: "lib1", Name: "Music"}}, nil
}

func (c *MockClient) Albums(_ context.Context, _ string, startIndex, limit int) ([]domain.Album, error) {
	return pageAlbums(c.mockAlbums(), startIndex, limit), nil
}

func (c *MockClient) Artists(_ context.Context, _ string, startIndex, limit int) ([]domain.Artist, error) {
	artists := []domain.Artist{
		{ID: "ar1", Name: "Mock Artist", AlbumCount: 1},
		{ID: "ar2", Name: "Other Artist", AlbumCount: 1},
	}
	start, end := Page{Start: startIndex, Limit: limit}.bounds(len(artists))
	return artists[start:end], nil
}

func (c *MockClient) Genres(_ context.Context, _ string, startIndex, limit int) ([]domain.Genre, error) {
	genres := []domain.Genre{{ID: "g1", Name: "rock"}}
	start, end := Page{Start: startIndex, Limit: limit}.bounds(len(genres))
	return genres[start:end], nil
}

func (c *MockClient) Playlists(_ context.Context, _ string, startIndex, limit int) ([]domain.Playlist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	playlists := make([]domain.Playlist, 0, len(c.playlists))
	for id, tracks := range c.playlists {
		playlists = append(playlists, domain.Playlist{ID: id, Name: c.names[id], TrackCount: len(tracks)})
	}
	start, end := Page{Start: startIndex, Limit: limit}.bounds(len(playlists))
	return playlists[start:end], nil
}

func (c *MockClient) Tracks(_ context.Context, _ string, startIndex, limit int) ([]domain.Track, error) {
	return pageTracks(c.mockTracks(), startIndex, limit), nil
}

func (c *MockClient) AlbumTracks(_ context.Context, albumID string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0)
	for _, t := range c.mockTracks() {
		if t.AlbumID == albumID {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

func (c *MockClient) ArtistAlbums(_ context.Context, artistID string) ([]domain.Album, error) {
	albums := make([]domain.Album, 0)
	for _, a := range c.mockAlbums() {
		if a.ArtistID == artistID {
			albums = append(albums, a)
		}
	}
	return albums, nil
}

func (c *MockClient) GenreAlbums(_ context.Context, genreID string) ([]domain.Album, error) {
	if genreID == "g1" {
		return c.mockAlbums(), nil
	}
	return []domain.Album{}, nil
}

func (c *MockClient) PlaylistTracks(_ context.Context, playlistID string) ([]domain.Track, error) {
	c.mu.Lock()
	ids, ok := c.playlists[playlistID]
	c.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	byID := make(map[string]domain.Track)
	for _, t := range c.mockTracks() {
		byID[t.ID] = t
	}
	tracks := make([]domain.Track, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			tracks = append(tracks, t)
		}
	}
	return tracks, nil
}

func (c *MockClient) SearchAlbums(_ context.Context, _, query string, limit int) ([]domain.Album, error) {
	matched := make([]domain.Album, 0)
	for _, a := range c.mockAlbums() {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(query)) {
			matched = append(matched, a)
		}
	}
	return pageAlbums(matched, 0, limit), nil
}

func (c *MockClient) SearchArtists(_ context.Context, _, query string, limit int) ([]domain.Artist, error) {
	artists, _ := c.Artists(context.Background(), "", 0, 0)
	matched := make([]domain.Artist, 0)
	for _, a := range artists {
		if strings.Contains(strings.ToLower(a.Name), strings.ToLower(query)) {
			matched = append(matched, a)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (c *MockClient) SearchTracks(_ context.Context, _, query string, limit int) ([]domain.Track, error) {
	matched := make([]domain.Track, 0)
	for _, t := range c.mockTracks() {
		if strings.Contains(strings.ToLower(t.Name), strings.ToLower(query)) {
			matched = append(matched, t)
		}
	}
	return pageTracks(matched, 0, limit), nil
}

func (c *MockClient) SearchPlaylists(ctx context.Context, libraryID, query string, limit int) ([]domain.Playlist, error) {
	playlists, _ := c.Playlists(ctx, libraryID, 0, 0)
	matched := make([]domain.Playlist, 0)
	for _, p := range playlists {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			matched = append(matched, p)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (c *MockClient) FavoriteTracks(_ context.Context, _ string, limit int) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0)
	for _, t := range c.mockTracks() {
		if t.Favorite {
			tracks = append(tracks, t)
		}
	}
	return pageTracks(tracks, 0, limit), nil
}

func (c *MockClient) RecentlyPlayed(_ context.Context, _ string, limit int) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0)
	for _, t := range c.mockTracks() {
		if t.PlayCount > 0 {
			tracks = append(tracks, t)
		}
	}
	return pageTracks(tracks, 0, limit), nil
}

func (c *MockClient) MostPlayed(_ context.Context, _ string, limit int) ([]domain.Track, error) {
	tracks := c.mockTracks()
	for i := 0; i < len(tracks); i++ {
		for j := i + 1; j < len(tracks); j++ {
			if tracks[j].PlayCount > tracks[i].PlayCount {
				tracks[i], tracks[j] = tracks[j], tracks[i]
			}
		}
	}
	return pageTracks(tracks, 0, limit), nil
}

func (c *MockClient) RecentlyAdded(_ context.Context, _ string, limit int) ([]domain.Album, error) {
	return pageAlbums(c.mockAlbums(), 0, limit), nil
}

func (c *MockClient) LongestTracks(_ context.Context, _ string, limit int) ([]domain.Track, error) {
	tracks := c.mockTracks()
	for i := 0; i < len(tracks); i++ {
		for j := i + 1; j < len(tracks); j++ {
			if tracks[j].Duration > tracks[i].Duration {
				tracks[i], tracks[j] = tracks[j], tracks[i]
			}
		}
	}
	return pageTracks(tracks, 0, limit), nil
}

func (c *MockClient) CreatePlaylist(_ context.Context, name string, trackIDs []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := "pl-" + name
	c.playlists[id] = append([]string{}, trackIDs...)
	c.names[id] = name
	return id, nil
}

func (c *MockClient) AddToPlaylist(_ context.Context, playlistID string, trackIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.playlists[playlistID]; !ok {
		return domain.ErrNotFound
	}
	c.playlists[playlistID] = append(c.playlists[playlistID], trackIDs...)
	return nil
}

func (c *MockClient) RemoveFromPlaylist(_ context.Context, playlistID string, entryIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.playlists[playlistID]
	if !ok {
		return domain.ErrNotFound
	}
	remove := make(map[string]struct{}, len(entryIDs))
	for _, id := range entryIDs {
		remove[id] = struct{}{}
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, drop := remove[id]; !drop {
			kept = append(kept, id)
		}
	}
	c.playlists[playlistID] = kept
	return nil
}

func (c *MockClient) MovePlaylistItem(_ context.Context, playlistID, itemID string, newIndex int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids, ok := c.playlists[playlistID]
	if !ok {
		return domain.ErrNotFound
	}
	from := -1
	for i, id := range ids {
		if id == itemID {
			from = i
			break
		}
	}
	if from == -1 || newIndex < 0 || newIndex >= len(ids) {
		return domain.ErrNotFound
	}
	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:newIndex], append([]string{id}, ids[newIndex:]...)...)
	c.playlists[playlistID] = ids
	return nil
}

var _ RemoteClient = (*MockClient)(nil)

func pageTracks(tracks []domain.Track, startIndex, limit int) []domain.Track {
	start, end := Page{Start: startIndex, Limit: limit}.bounds(len(tracks))
	return tracks[start:end]
}

func pageAlbums(albums []domain.Album, startIndex, limit int) []domain.Album {
	start, end := Page{Start: startIndex, Limit: limit}.bounds(len(albums))
	return albums[start:end]
}
