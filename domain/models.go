package domain

import (
	"time"
)

// Library is a root-level grouping on the server. The user selects one per
// session; most catalog reads are scoped to it.
type Library struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Album struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistID   string `json:"artist_id,omitempty"`
	Artist     string `json:"artist"`
	ArtworkRef string `json:"artwork_ref,omitempty"`
	Year       int    `json:"year,omitempty"`
	TrackCount int    `json:"track_count,omitempty"`
}

type Artist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtworkRef string `json:"artwork_ref,omitempty"`
	AlbumCount int    `json:"album_count,omitempty"`
}

type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Track is the unit of playback and of download.
type Track struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Artist     string        `json:"artist"`
	Artists    StringSlice   `json:"artists,omitempty"`
	AlbumID    string        `json:"album_id,omitempty"`
	Album      string        `json:"album,omitempty"`
	Genre      string        `json:"genre,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Favorite   bool          `json:"favorite,omitempty"`
	PlayCount  int           `json:"play_count,omitempty"`
	ArtworkRef string        `json:"artwork_ref,omitempty"`
	SizeBytes  int64         `json:"size_bytes,omitempty"`
}

// Playlist is a server-side concept. Track contents are fetched separately
// through PlaylistTracks.
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count,omitempty"`
}

// DownloadStatus is the state of a download index entry.
type DownloadStatus string

const (
	DownloadStatusQueued      DownloadStatus = "queued"
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusCompleted   DownloadStatus = "completed"
	DownloadStatusFailed      DownloadStatus = "failed"
	DownloadStatusCancelled   DownloadStatus = "cancelled"
)

// Active reports whether the entry still occupies, or may come to occupy, a
// transfer slot.
func (s DownloadStatus) Active() bool {
	return s == DownloadStatusQueued || s == DownloadStatusDownloading
}

// Download is a local index entry for a track the user explicitly downloaded.
// Album, artist and genre names are denormalized at queue time so the offline
// adapter can group without reaching the server.
type Download struct {
	TrackID     string         `json:"track_id" db:"track_id"`
	Title       string         `json:"title" db:"title"`
	Artist      string         `json:"artist" db:"artist"`
	Artists     StringSlice    `json:"artists,omitempty" db:"artists"`
	AlbumID     string         `json:"album_id,omitempty" db:"album_id"`
	Album       string         `json:"album" db:"album"`
	Genre       string         `json:"genre,omitempty" db:"genre"`
	DurationMS  int64          `json:"duration_ms" db:"duration_ms"`
	Favorite    bool           `json:"favorite" db:"favorite"`
	PlayCount   int            `json:"play_count" db:"play_count"`
	Status      DownloadStatus `json:"status" db:"status"`
	SizeBytes   int64          `json:"size_bytes" db:"size_bytes"`
	FilePath    string         `json:"file_path" db:"file_path"`
	Error       string         `json:"error,omitempty" db:"error"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
}

// Track reconstructs the catalog view of a download entry. The offline
// adapter serves all track listings through this.
func (d *Download) Track() Track {
	return Track{
		ID:        d.TrackID,
		Name:      d.Title,
		Artist:    d.Artist,
		Artists:   d.Artists,
		AlbumID:   d.AlbumID,
		Album:     d.Album,
		Genre:     d.Genre,
		Duration:  time.Duration(d.DurationMS) * time.Millisecond,
		Favorite:  d.Favorite,
		PlayCount: d.PlayCount,
		SizeBytes: d.SizeBytes,
	}
}

// PlaylistSnapshot is a read-only copy of a remote playlist's track ids,
// captured while online so the offline adapter can serve playlist reads.
type PlaylistSnapshot struct {
	ID       string      `json:"id" db:"id"`
	Name     string      `json:"name" db:"name"`
	TrackIDs StringSlice `json:"track_ids" db:"track_ids"`
	SavedAt  time.Time   `json:"saved_at" db:"saved_at"`
}
