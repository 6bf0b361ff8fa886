package repository

import (
	"context"

	"github.com/PetertheMD/nautune/domain"
)

// Remote serves every port call with exactly one call against the client
// handle. It holds no cache and performs no retries; transport failures
// propagate unchanged.
type Remote struct {
	client RemoteClient
}

func NewRemote(client RemoteClient) *Remote {
	return &Remote{client: client}
}

func (r *Remote) IsAvailable() bool {
	return r.client != nil && r.client.IsAuthenticated()
}

func (r *Remote) TypeName() string { return "remote" }

// check enforces the availability contract before any forwarding call.
func (r *Remote) check(libraryID string, scoped bool) error {
	if r.client == nil {
		return domain.ErrNoClient
	}
	if !r.client.IsAuthenticated() {
		return domain.ErrNoSession
	}
	if scoped && libraryID == "" {
		return domain.ErrNoLibrarySelected
	}
	return nil
}

func (r *Remote) Libraries(ctx context.Context) ([]domain.Library, error) {
	if err := r.check("", false); err != nil {
		return nil, err
	}
	return r.client.Libraries(ctx)
}

func (r *Remote) Albums(ctx context.Context, libraryID string, page Page) ([]domain.Album, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.Albums(ctx, libraryID, page.Start, page.Limit)
}

func (r *Remote) Artists(ctx context.Context, libraryID string, page Page) ([]domain.Artist, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.Artists(ctx, libraryID, page.Start, page.Limit)
}

func (r *Remote) Genres(ctx context.Context, libraryID string, page Page) ([]domain.Genre, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.Genres(ctx, libraryID, page.Start, page.Limit)
}

func (r *Remote) Playlists(ctx context.Context, libraryID string, page Page) ([]domain.Playlist, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.Playlists(ctx, libraryID, page.Start, page.Limit)
}

func (r *Remote) Tracks(ctx context.Context, libraryID string, page Page) ([]domain.Track, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.Tracks(ctx, libraryID, page.Start, page.Limit)
}

func (r *Remote) AlbumTracks(ctx context.Context, albumID string) ([]domain.Track, error) {
	if err := r.check("", false); err != nil {
		return nil, err
	}
	return r.client.AlbumTracks(ctx, albumID)
}

func (r *Remote) ArtistAlbums(ctx context.Context, artistID string) ([]domain.Album, error) {
	if err := r.check("", false); err != nil {
		return nil, err
	}
	return r.client.ArtistAlbums(ctx, artistID)
}

func (r *Remote) GenreAlbums(ctx context.Context, genreID string) ([]domain.Album, error) {
	if err := r.check("", false); err != nil {
		return nil, err
	}
	return r.client.GenreAlbums(ctx, genreID)
}

func (r *Remote) PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error) {
	if err := r.check("", false); err != nil {
		return nil, err
	}
	return r.client.PlaylistTracks(ctx, playlistID)
}

func (r *Remote) SearchAlbums(ctx context.Context, libraryID, query string, limit int) ([]domain.Album, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.SearchAlbums(ctx, libraryID, query, limit)
}

func (r *Remote) SearchArtists(ctx context.Context, libraryID, query string, limit int) ([]domain.Artist, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.SearchArtists(ctx, libraryID, query, limit)
}

func (r *Remote) SearchTracks(ctx context.Context, libraryID, query string, limit int) ([]domain.Track, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.SearchTracks(ctx, libraryID, query, limit)
}

func (r *Remote) SearchPlaylists(ctx context.Context, libraryID, query string, limit int) ([]domain.Playlist, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.SearchPlaylists(ctx, libraryID, query, limit)
}

func (r *Remote) FavoriteTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.FavoriteTracks(ctx, libraryID, limit)
}

func (r *Remote) RecentlyPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.RecentlyPlayed(ctx, libraryID, limit)
}

func (r *Remote) MostPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.MostPlayed(ctx, libraryID, limit)
}

func (r *Remote) RecentlyAdded(ctx context.Context, libraryID string, limit int) ([]domain.Album, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.RecentlyAdded(ctx, libraryID, limit)
}

func (r *Remote) LongestTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := r.check(libraryID, true); err != nil {
		return nil, err
	}
	return r.client.LongestTracks(ctx, libraryID, limit)
}

func (r *Remote) CreatePlaylist(ctx context.Context, name string, trackIDs []string) (string, error) {
	if err := r.check("", false); err != nil {
		return "", err
	}
	return r.client.CreatePlaylist(ctx, name, trackIDs)
}

func (r *Remote) AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := r.check("", false); err != nil {
		return err
	}
	return r.client.AddToPlaylist(ctx, playlistID, trackIDs)
}

func (r *Remote) RemoveFromPlaylist(ctx context.Context, playlistID string, entryIDs []string) error {
	if err := r.check("", false); err != nil {
		return err
	}
	return r.client.RemoveFromPlaylist(ctx, playlistID, entryIDs)
}

func (r *Remote) MovePlaylistItem(ctx context.Context, playlistID, itemID string, newIndex int) error {
	if err := r.check("", false); err != nil {
		return err
	}
	return r.client.MovePlaylistItem(ctx, playlistID, itemID, newIndex)
}

var _ Repository = (*Remote)(nil)
