// Package repository defines the data-source ports of the client and the two
// adapters that implement them: remote (server-backed) and local (download
// index backed). The rest of the application talks to a Repository without
// knowing which origin is active; the Manager swaps adapters when the mode
// changes.
package repository

import (
	"context"

	"github.com/PetertheMD/nautune/domain"
)

// Page is a pagination window. Start below zero is treated as zero; a Limit
// of zero or less means no limit. Both adapters honor the same semantics.
type Page struct {
	Start int
	Limit int
}

// bounds clamps the window against a collection of n items and returns the
// half-open slice range to serve.
func (p Page) bounds(n int) (int, int) {
	start := p.Start
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := n
	if p.Limit > 0 && start+p.Limit < n {
		end = start + p.Limit
	}
	return start, end
}

// Repository is the complete caller-facing surface. All reads are scoped to a
// library where a libraryID parameter appears and return an empty slice, never
// nil-as-absence, when nothing matches. Failures are always distinct from
// empty successes.
//
// Playlist mutations only succeed on the remote adapter; the local adapter
// returns domain.ErrReadOnly since playlists are a server-side concept.
type Repository interface {
	// Catalog listings
	Libraries(ctx context.Context) ([]domain.Library, error)
	Albums(ctx context.Context, libraryID string, page Page) ([]domain.Album, error)
	Artists(ctx context.Context, libraryID string, page Page) ([]domain.Artist, error)
	Genres(ctx context.Context, libraryID string, page Page) ([]domain.Genre, error)
	Playlists(ctx context.Context, libraryID string, page Page) ([]domain.Playlist, error)
	Tracks(ctx context.Context, libraryID string, page Page) ([]domain.Track, error)

	// Parent-filtered listings
	AlbumTracks(ctx context.Context, albumID string) ([]domain.Track, error)
	ArtistAlbums(ctx context.Context, artistID string) ([]domain.Album, error)
	GenreAlbums(ctx context.Context, genreID string) ([]domain.Album, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error)

	// Substring search per entity type, case-insensitive on name fields.
	SearchAlbums(ctx context.Context, libraryID, query string, limit int) ([]domain.Album, error)
	SearchArtists(ctx context.Context, libraryID, query string, limit int) ([]domain.Artist, error)
	SearchTracks(ctx context.Context, libraryID, query string, limit int) ([]domain.Track, error)
	SearchPlaylists(ctx context.Context, libraryID, query string, limit int) ([]domain.Playlist, error)

	// Smart views
	FavoriteTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)
	RecentlyPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)
	MostPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)
	RecentlyAdded(ctx context.Context, libraryID string, limit int) ([]domain.Album, error)
	LongestTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)

	// Playlist mutation (remote only)
	CreatePlaylist(ctx context.Context, name string, trackIDs []string) (string, error)
	AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveFromPlaylist(ctx context.Context, playlistID string, entryIDs []string) error
	MovePlaylistItem(ctx context.Context, playlistID, itemID string, newIndex int) error

	// IsAvailable reports whether port calls can succeed right now. An
	// unavailable adapter fails fast instead of returning empty data, so
	// callers can tell "not reachable" from "library is empty".
	IsAvailable() bool

	// TypeName identifies the adapter in logs and diagnostics.
	TypeName() string
}

// RemoteClient is the externally-owned collaborator the remote adapter
// forwards to. It encapsulates authentication and transport; retry and
// backoff policy live behind this interface, never in the adapter.
type RemoteClient interface {
	IsAuthenticated() bool

	Libraries(ctx context.Context) ([]domain.Library, error)
	Albums(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Album, error)
	Artists(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Artist, error)
	Genres(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Genre, error)
	Playlists(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Playlist, error)
	Tracks(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Track, error)

	AlbumTracks(ctx context.Context, albumID string) ([]domain.Track, error)
	ArtistAlbums(ctx context.Context, artistID string) ([]domain.Album, error)
	GenreAlbums(ctx context.Context, genreID string) ([]domain.Album, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error)

	SearchAlbums(ctx context.Context, libraryID, query string, limit int) ([]domain.Album, error)
	SearchArtists(ctx context.Context, libraryID, query string, limit int) ([]domain.Artist, error)
	SearchTracks(ctx context.Context, libraryID, query string, limit int) ([]domain.Track, error)
	SearchPlaylists(ctx context.Context, libraryID, query string, limit int) ([]domain.Playlist, error)

	FavoriteTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)
	RecentlyPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)
	MostPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)
	RecentlyAdded(ctx context.Context, libraryID string, limit int) ([]domain.Album, error)
	LongestTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error)

	CreatePlaylist(ctx context.Context, name string, trackIDs []string) (string, error)
	AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error
	RemoveFromPlaylist(ctx context.Context, playlistID string, entryIDs []string) error
	MovePlaylistItem(ctx context.Context, playlistID, itemID string, newIndex int) error
}
