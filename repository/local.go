package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/PetertheMD/nautune/domain"
	"github.com/PetertheMD/nautune/store"
)

// LocalLibraryID is the single logical library the offline adapter exposes.
const LocalLibraryID = "local"

const unknownAlbum = "Unknown Album"

// Local serves the port surface from the persisted download index. The index
// only holds tracks the user explicitly downloaded, so browse operations are
// filter/group-by passes over that flat set, rebuilt in memory on every call.
// Cost is linear in downloaded-track count, which is bounded by device
// storage.
type Local struct {
	index *store.DB
}

func NewLocal(index *store.DB) *Local {
	return &Local{index: index}
}

func (l *Local) IsAvailable() bool {
	return l.index != nil && l.index.Ping() == nil
}

func (l *Local) TypeName() string { return "local" }

func (l *Local) check(libraryID string, scoped bool) error {
	if l.index == nil {
		return domain.ErrStoreClosed
	}
	if scoped && libraryID == "" {
		return domain.ErrNoLibrarySelected
	}
	return nil
}

// completed loads the full local index of finished downloads.
func (l *Local) completed() ([]*domain.Download, error) {
	list, err := l.index.ListCompleted()
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (l *Local) Libraries(_ context.Context) ([]domain.Library, error) {
	if err := l.check("", false); err != nil {
		return nil, err
	}
	return []domain.Library{{ID: LocalLibraryID, Name: "Downloads"}}, nil
}

func (l *Local) Albums(_ context.Context, libraryID string, page Page) ([]domain.Album, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	albums := groupAlbums(entries)
	start, end := page.bounds(len(albums))
	return albums[start:end], nil
}

func (l *Local) Artists(_ context.Context, libraryID string, page Page) ([]domain.Artist, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}

	byName := make(map[string]map[string]struct{}) // artist -> album set
	for _, d := range entries {
		name := d.Artist
		if name == "" {
			name = "Unknown Artist"
		}
		if byName[name] == nil {
			byName[name] = make(map[string]struct{})
		}
		byName[name][albumKey(d)] = struct{}{}
	}

	artists := make([]domain.Artist, 0, len(byName))
	for name, albums := range byName {
		artists = append(artists, domain.Artist{
			ID:         "local-artist:" + name,
			Name:       name,
			AlbumCount: len(albums),
		})
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].Name < artists[j].Name })

	start, end := page.bounds(len(artists))
	return artists[start:end], nil
}

// Genres are best-effort offline: entries queued without genre metadata are
// simply not represented.
func (l *Local) Genres(_ context.Context, libraryID string, page Page) ([]domain.Genre, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	genres := make([]domain.Genre, 0)
	for _, d := range entries {
		if d.Genre == "" {
			continue
		}
		if _, ok := seen[d.Genre]; ok {
			continue
		}
		seen[d.Genre] = struct{}{}
		genres = append(genres, domain.Genre{ID: "local-genre:" + d.Genre, Name: d.Genre})
	}
	sort.Slice(genres, func(i, j int) bool { return genres[i].Name < genres[j].Name })

	start, end := page.bounds(len(genres))
	return genres[start:end], nil
}

func (l *Local) Playlists(_ context.Context, libraryID string, page Page) ([]domain.Playlist, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	snaps, err := l.index.ListPlaylistSnapshots()
	if err != nil {
		return nil, err
	}
	playlists := make([]domain.Playlist, 0, len(snaps))
	for _, s := range snaps {
		playlists = append(playlists, domain.Playlist{
			ID:         s.ID,
			Name:       s.Name,
			TrackCount: len(s.TrackIDs),
		})
	}
	start, end := page.bounds(len(playlists))
	return playlists[start:end], nil
}

func (l *Local) Tracks(_ context.Context, libraryID string, page Page) ([]domain.Track, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	tracks := toTracks(entries)
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Name < tracks[j].Name })

	start, end := page.bounds(len(tracks))
	return tracks[start:end], nil
}

func (l *Local) AlbumTracks(_ context.Context, albumID string) ([]domain.Track, error) {
	if err := l.check("", false); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	tracks := make([]domain.Track, 0)
	for _, d := range entries {
		if d.AlbumID == albumID || syntheticAlbumID(albumKey(d)) == albumID {
			tracks = append(tracks, d.Track())
		}
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Name < tracks[j].Name })
	return tracks, nil
}

func (l *Local) ArtistAlbums(_ context.Context, artistID string) ([]domain.Album, error) {
	if err := l.check("", false); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(artistID, "local-artist:")
	filtered := make([]*domain.Download, 0)
	for _, d := range entries {
		artist := d.Artist
		if artist == "" {
			artist = "Unknown Artist"
		}
		if artist == name {
			filtered = append(filtered, d)
		}
	}
	return groupAlbums(filtered), nil
}

func (l *Local) GenreAlbums(_ context.Context, genreID string) ([]domain.Album, error) {
	if err := l.check("", false); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	name := strings.TrimPrefix(genreID, "local-genre:")
	filtered := make([]*domain.Download, 0)
	for _, d := range entries {
		if d.Genre == name {
			filtered = append(filtered, d)
		}
	}
	return groupAlbums(filtered), nil
}

// PlaylistTracks reads a locally-snapshotted playlist. Only tracks that are
// actually downloaded are returned, in snapshot order.
func (l *Local) PlaylistTracks(_ context.Context, playlistID string) ([]domain.Track, error) {
	if err := l.check("", false); err != nil {
		return nil, err
	}
	snap, err := l.index.GetPlaylistSnapshot(playlistID)
	if err != nil {
		return nil, err
	}
	tracks := make([]domain.Track, 0, len(snap.TrackIDs))
	for _, id := range snap.TrackIDs {
		d, err := l.index.GetDownload(id)
		if err != nil {
			continue // not downloaded, skip
		}
		if d.Status == domain.DownloadStatusCompleted {
			tracks = append(tracks, d.Track())
		}
	}
	return tracks, nil
}

func (l *Local) SearchAlbums(ctx context.Context, libraryID, query string, limit int) ([]domain.Album, error) {
	albums, err := l.Albums(ctx, libraryID, Page{})
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Album, 0)
	for _, a := range albums {
		if matches(a.Name, query) {
			matched = append(matched, a)
		}
	}
	return capAlbums(matched, limit), nil
}

func (l *Local) SearchArtists(ctx context.Context, libraryID, query string, limit int) ([]domain.Artist, error) {
	artists, err := l.Artists(ctx, libraryID, Page{})
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Artist, 0)
	for _, a := range artists {
		if matches(a.Name, query) {
			matched = append(matched, a)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (l *Local) SearchTracks(ctx context.Context, libraryID, query string, limit int) ([]domain.Track, error) {
	tracks, err := l.Tracks(ctx, libraryID, Page{})
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Track, 0)
	for _, t := range tracks {
		if matches(t.Name, query) {
			matched = append(matched, t)
		}
	}
	return capTracks(matched, limit), nil
}

func (l *Local) SearchPlaylists(ctx context.Context, libraryID, query string, limit int) ([]domain.Playlist, error) {
	playlists, err := l.Playlists(ctx, libraryID, Page{})
	if err != nil {
		return nil, err
	}
	matched := make([]domain.Playlist, 0)
	for _, p := range playlists {
		if matches(p.Name, query) {
			matched = append(matched, p)
		}
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (l *Local) FavoriteTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	tracks := make([]domain.Track, 0)
	for _, d := range entries {
		if d.Favorite {
			tracks = append(tracks, d.Track())
		}
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].Name < tracks[j].Name })
	return capTracks(tracks, limit), nil
}

// RecentlyPlayed is served best-effort from play counts captured at download
// time, most recently updated first. The index records no play events of its
// own.
func (l *Local) RecentlyPlayed(_ context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	played := make([]*domain.Download, 0)
	for _, d := range entries {
		if d.PlayCount > 0 {
			played = append(played, d)
		}
	}
	sort.Slice(played, func(i, j int) bool { return played[i].UpdatedAt.After(played[j].UpdatedAt) })
	return capTracks(toTracks(played), limit), nil
}

func (l *Local) MostPlayed(_ context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].PlayCount != entries[j].PlayCount {
			return entries[i].PlayCount > entries[j].PlayCount
		}
		return entries[i].Title < entries[j].Title
	})
	return capTracks(toTracks(entries), limit), nil
}

// RecentlyAdded orders album groups by their most recent download completion.
func (l *Local) RecentlyAdded(_ context.Context, libraryID string, limit int) ([]domain.Album, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}

	latest := make(map[string]int64)
	for _, d := range entries {
		key := albumKey(d)
		if d.CompletedAt != nil && d.CompletedAt.UnixNano() > latest[key] {
			latest[key] = d.CompletedAt.UnixNano()
		}
	}

	albums := groupAlbums(entries)
	sort.SliceStable(albums, func(i, j int) bool {
		return latest[albums[i].Name] > latest[albums[j].Name]
	})
	return capAlbums(albums, limit), nil
}

func (l *Local) LongestTracks(_ context.Context, libraryID string, limit int) ([]domain.Track, error) {
	if err := l.check(libraryID, true); err != nil {
		return nil, err
	}
	entries, err := l.completed()
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].DurationMS != entries[j].DurationMS {
			return entries[i].DurationMS > entries[j].DurationMS
		}
		return entries[i].Title < entries[j].Title
	})
	return capTracks(toTracks(entries), limit), nil
}

// Playlist mutation does not round-trip to the server while offline.

func (l *Local) CreatePlaylist(context.Context, string, []string) (string, error) {
	return "", domain.ErrReadOnly
}

func (l *Local) AddToPlaylist(context.Context, string, []string) error {
	return domain.ErrReadOnly
}

func (l *Local) RemoveFromPlaylist(context.Context, string, []string) error {
	return domain.ErrReadOnly
}

func (l *Local) MovePlaylistItem(context.Context, string, string, int) error {
	return domain.ErrReadOnly
}

var _ Repository = (*Local)(nil)

func albumKey(d *domain.Download) string {
	if d.Album == "" {
		return unknownAlbum
	}
	return d.Album
}

func syntheticAlbumID(name string) string {
	return "local-album:" + name
}

// groupAlbums synthesizes album groups from the flat download set. Groups are
// sorted by name so membership and order are stable regardless of input
// order.
func groupAlbums(entries []*domain.Download) []domain.Album {
	groups := make(map[string][]*domain.Download)
	for _, d := range entries {
		key := albumKey(d)
		groups[key] = append(groups[key], d)
	}

	albums := make([]domain.Album, 0, len(groups))
	for name, members := range groups {
		album := domain.Album{
			ID:         syntheticAlbumID(name),
			Name:       name,
			TrackCount: len(members),
		}
		for _, d := range members {
			if album.ID == syntheticAlbumID(name) && d.AlbumID != "" {
				album.ID = d.AlbumID
			}
			if album.Artist == "" {
				album.Artist = d.Artist
			}
		}
		albums = append(albums, album)
	}
	sort.Slice(albums, func(i, j int) bool { return albums[i].Name < albums[j].Name })
	return albums
}

func toTracks(entries []*domain.Download) []domain.Track {
	tracks := make([]domain.Track, 0, len(entries))
	for _, d := range entries {
		tracks = append(tracks, d.Track())
	}
	return tracks
}

func matches(name, query string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

func capTracks(tracks []domain.Track, limit int) []domain.Track {
	if limit > 0 && len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}

func capAlbums(albums []domain.Album, limit int) []domain.Album {
	if limit > 0 && len(albums) > limit {
		return albums[:limit]
	}
	return albums
}
