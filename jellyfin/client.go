// Package jellyfin implements the authenticated client for a
// Jellyfin-compatible media server. It owns the wire format, session handling
// and retry policy; the repository layer only sees domain values.
package jellyfin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PetertheMD/nautune/config"
	"github.com/PetertheMD/nautune/domain"
)

type Client struct {
	baseURL   string
	transport *transport
	deviceID  string

	mu     sync.RWMutex
	token  string
	userID string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:   trimSlash(baseURL),
		transport: newTransport(nil, 50*time.Millisecond),
		deviceID:  uuid.NewString(),
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Authenticate performs AuthenticateByName and stores the access token and
// user id for subsequent calls.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	body := map[string]string{"Username": username, "Pw": password}

	var resp struct {
		AccessToken string `json:"AccessToken"`
		User        struct {
			ID string `json:"Id"`
		} `json:"User"`
	}
	if err := c.request(ctx, http.MethodPost, "/Users/AuthenticateByName", nil, body, &resp); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return fmt.Errorf("authentication failed: server returned no session")
	}

	c.mu.Lock()
	c.token = resp.AccessToken
	c.userID = resp.User.ID
	c.mu.Unlock()
	return nil
}

func (c *Client) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != "" && c.userID != ""
}

// Logout drops the session without contacting the server.
func (c *Client) Logout() {
	c.mu.Lock()
	c.token = ""
	c.userID = ""
	c.mu.Unlock()
}

func (c *Client) session() (token, userID string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.userID
}

func (c *Client) authHeader() string {
	token, _ := c.session()
	h := fmt.Sprintf(`MediaBrowser Client="%s", Device="%s", DeviceId="%s", Version="%s"`,
		config.DefaultDeviceName, config.DefaultDeviceName, c.deviceID, config.DefaultClientVersion)
	if token != "" {
		h += fmt.Sprintf(`, Token="%s"`, token)
	}
	return h
}

// request issues one call against the server and decodes a JSON response into
// out (skipped when out is nil).
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.authHeader())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck // deferred cleanup

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// jfItem is the subset of the server's item DTO the client consumes.
type jfItem struct {
	ID             string            `json:"Id"`
	Name           string            `json:"Name"`
	CollectionType string            `json:"CollectionType,omitempty"`
	AlbumID        string            `json:"AlbumId,omitempty"`
	Album          string            `json:"Album,omitempty"`
	AlbumArtist    string            `json:"AlbumArtist,omitempty"`
	Artists        []string          `json:"Artists,omitempty"`
	ArtistItems    []jfNameID        `json:"ArtistItems,omitempty"`
	Genres         []string          `json:"Genres,omitempty"`
	RunTimeTicks   int64             `json:"RunTimeTicks,omitempty"`
	ProductionYear int               `json:"ProductionYear,omitempty"`
	ChildCount     int               `json:"ChildCount,omitempty"`
	AlbumCount     int               `json:"AlbumCount,omitempty"`
	ImageTags      map[string]string `json:"ImageTags,omitempty"`
	UserData       *jfUserData       `json:"UserData,omitempty"`
	MediaSources   []jfMediaSource   `json:"MediaSources,omitempty"`
}

type jfNameID struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

type jfUserData struct {
	IsFavorite bool `json:"IsFavorite"`
	PlayCount  int  `json:"PlayCount"`
}

type jfMediaSource struct {
	Size int64 `json:"Size,omitempty"`
}

type jfItemsResponse struct {
	Items            []jfItem `json:"Items"`
	TotalRecordCount int      `json:"TotalRecordCount"`
}

// items runs a /Users/{id}/Items query and returns the raw item page.
func (c *Client) items(ctx context.Context, query url.Values) ([]jfItem, error) {
	_, userID := c.session()
	var resp jfItemsResponse
	if err := c.request(ctx, http.MethodGet, "/Users/"+userID+"/Items", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func baseQuery(libraryID string, startIndex, limit int) url.Values {
	q := url.Values{}
	q.Set("Recursive", "true")
	if libraryID != "" {
		q.Set("ParentId", libraryID)
	}
	if startIndex > 0 {
		q.Set("StartIndex", strconv.Itoa(startIndex))
	}
	if limit > 0 {
		q.Set("Limit", strconv.Itoa(limit))
	}
	return q
}

func (c *Client) Libraries(ctx context.Context) ([]domain.Library, error) {
	_, userID := c.session()
	var resp jfItemsResponse
	if err := c.request(ctx, http.MethodGet, "/Users/"+userID+"/Views", nil, nil, &resp); err != nil {
		return nil, err
	}
	libraries := make([]domain.Library, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.CollectionType != "music" {
			continue
		}
		libraries = append(libraries, domain.Library{ID: item.ID, Name: item.Name})
	}
	return libraries, nil
}

func (c *Client) Albums(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Album, error) {
	q := baseQuery(libraryID, startIndex, limit)
	q.Set("IncludeItemTypes", "MusicAlbum")
	q.Set("SortBy", "SortName")
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toAlbums(items), nil
}

func (c *Client) Artists(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Artist, error) {
	_, userID := c.session()
	q := baseQuery(libraryID, startIndex, limit)
	q.Set("UserId", userID)
	q.Set("SortBy", "SortName")
	var resp jfItemsResponse
	if err := c.request(ctx, http.MethodGet, "/Artists/AlbumArtists", q, nil, &resp); err != nil {
		return nil, err
	}
	artists := make([]domain.Artist, 0, len(resp.Items))
	for _, item := range resp.Items {
		artists = append(artists, domain.Artist{
			ID:         item.ID,
			Name:       item.Name,
			ArtworkRef: c.artworkRef(item),
			AlbumCount: item.AlbumCount,
		})
	}
	return artists, nil
}

func (c *Client) Genres(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Genre, error) {
	_, userID := c.session()
	q := baseQuery(libraryID, startIndex, limit)
	q.Set("UserId", userID)
	q.Set("SortBy", "SortName")
	var resp jfItemsResponse
	if err := c.request(ctx, http.MethodGet, "/MusicGenres", q, nil, &resp); err != nil {
		return nil, err
	}
	genres := make([]domain.Genre, 0, len(resp.Items))
	for _, item := range resp.Items {
		genres = append(genres, domain.Genre{ID: item.ID, Name: item.Name})
	}
	return genres, nil
}

func (c *Client) Playlists(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Playlist, error) {
	q := baseQuery("", startIndex, limit)
	q.Set("IncludeItemTypes", "Playlist")
	q.Set("SortBy", "SortName")
	// Playlists live outside the music library on the server; the library
	// scope is part of the port contract only.
	_ = libraryID
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	playlists := make([]domain.Playlist, 0, len(items))
	for _, item := range items {
		playlists = append(playlists, domain.Playlist{
			ID:         item.ID,
			Name:       item.Name,
			TrackCount: item.ChildCount,
		})
	}
	return playlists, nil
}

func (c *Client) Tracks(ctx context.Context, libraryID string, startIndex, limit int) ([]domain.Track, error) {
	q := baseQuery(libraryID, startIndex, limit)
	q.Set("IncludeItemTypes", "Audio")
	q.Set("SortBy", "SortName")
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toTracks(items), nil
}

func (c *Client) AlbumTracks(ctx context.Context, albumID string) ([]domain.Track, error) {
	q := url.Values{}
	q.Set("ParentId", albumID)
	q.Set("IncludeItemTypes", "Audio")
	q.Set("SortBy", "ParentIndexNumber,IndexNumber,SortName")
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toTracks(items), nil
}

func (c *Client) ArtistAlbums(ctx context.Context, artistID string) ([]domain.Album, error) {
	q := baseQuery("", 0, 0)
	q.Set("IncludeItemTypes", "MusicAlbum")
	q.Set("AlbumArtistIds", artistID)
	q.Set("SortBy", "ProductionYear,SortName")
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toAlbums(items), nil
}

func (c *Client) GenreAlbums(ctx context.Context, genreID string) ([]domain.Album, error) {
	q := baseQuery("", 0, 0)
	q.Set("IncludeItemTypes", "MusicAlbum")
	q.Set("GenreIds", genreID)
	q.Set("SortBy", "SortName")
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toAlbums(items), nil
}

func (c *Client) PlaylistTracks(ctx context.Context, playlistID string) ([]domain.Track, error) {
	_, userID := c.session()
	q := url.Values{}
	q.Set("UserId", userID)
	var resp jfItemsResponse
	if err := c.request(ctx, http.MethodGet, "/Playlists/"+playlistID+"/Items", q, nil, &resp); err != nil {
		return nil, err
	}
	return c.toTracks(resp.Items), nil
}

func (c *Client) search(ctx context.Context, libraryID, itemType, query string, limit int) ([]jfItem, error) {
	q := baseQuery(libraryID, 0, limit)
	q.Set("IncludeItemTypes", itemType)
	q.Set("SearchTerm", query)
	return c.items(ctx, q)
}

func (c *Client) SearchAlbums(ctx context.Context, libraryID, query string, limit int) ([]domain.Album, error) {
	items, err := c.search(ctx, libraryID, "MusicAlbum", query, limit)
	if err != nil {
		return nil, err
	}
	return c.toAlbums(items), nil
}

func (c *Client) SearchArtists(ctx context.Context, libraryID, query string, limit int) ([]domain.Artist, error) {
	items, err := c.search(ctx, libraryID, "MusicArtist", query, limit)
	if err != nil {
		return nil, err
	}
	artists := make([]domain.Artist, 0, len(items))
	for _, item := range items {
		artists = append(artists, domain.Artist{
			ID:         item.ID,
			Name:       item.Name,
			ArtworkRef: c.artworkRef(item),
			AlbumCount: item.AlbumCount,
		})
	}
	return artists, nil
}

func (c *Client) SearchTracks(ctx context.Context, libraryID, query string, limit int) ([]domain.Track, error) {
	items, err := c.search(ctx, libraryID, "Audio", query, limit)
	if err != nil {
		return nil, err
	}
	return c.toTracks(items), nil
}

func (c *Client) SearchPlaylists(ctx context.Context, libraryID, query string, limit int) ([]domain.Playlist, error) {
	items, err := c.search(ctx, "", "Playlist", query, limit)
	if err != nil {
		return nil, err
	}
	_ = libraryID
	playlists := make([]domain.Playlist, 0, len(items))
	for _, item := range items {
		playlists = append(playlists, domain.Playlist{ID: item.ID, Name: item.Name, TrackCount: item.ChildCount})
	}
	return playlists, nil
}

func (c *Client) smartTracks(ctx context.Context, libraryID, sortBy, sortOrder, filters string, limit int) ([]domain.Track, error) {
	q := baseQuery(libraryID, 0, limit)
	q.Set("IncludeItemTypes", "Audio")
	q.Set("SortBy", sortBy)
	if sortOrder != "" {
		q.Set("SortOrder", sortOrder)
	}
	if filters != "" {
		q.Set("Filters", filters)
	}
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toTracks(items), nil
}

func (c *Client) FavoriteTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	return c.smartTracks(ctx, libraryID, "SortName", "", "IsFavorite", limit)
}

func (c *Client) RecentlyPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	return c.smartTracks(ctx, libraryID, "DatePlayed", "Descending", "IsPlayed", limit)
}

func (c *Client) MostPlayed(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	return c.smartTracks(ctx, libraryID, "PlayCount", "Descending", "IsPlayed", limit)
}

func (c *Client) RecentlyAdded(ctx context.Context, libraryID string, limit int) ([]domain.Album, error) {
	q := baseQuery(libraryID, 0, limit)
	q.Set("IncludeItemTypes", "MusicAlbum")
	q.Set("SortBy", "DateCreated")
	q.Set("SortOrder", "Descending")
	items, err := c.items(ctx, q)
	if err != nil {
		return nil, err
	}
	return c.toAlbums(items), nil
}

func (c *Client) LongestTracks(ctx context.Context, libraryID string, limit int) ([]domain.Track, error) {
	return c.smartTracks(ctx, libraryID, "Runtime", "Descending", "", limit)
}

func (c *Client) CreatePlaylist(ctx context.Context, name string, trackIDs []string) (string, error) {
	_, userID := c.session()
	body := map[string]interface{}{
		"Name":      name,
		"Ids":       trackIDs,
		"UserId":    userID,
		"MediaType": "Audio",
	}
	var resp struct {
		ID string `json:"Id"`
	}
	if err := c.request(ctx, http.MethodPost, "/Playlists", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) AddToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	_, userID := c.session()
	q := url.Values{}
	q.Set("Ids", strings.Join(trackIDs, ","))
	q.Set("UserId", userID)
	return c.request(ctx, http.MethodPost, "/Playlists/"+playlistID+"/Items", q, nil, nil)
}

func (c *Client) RemoveFromPlaylist(ctx context.Context, playlistID string, entryIDs []string) error {
	q := url.Values{}
	q.Set("EntryIds", strings.Join(entryIDs, ","))
	return c.request(ctx, http.MethodDelete, "/Playlists/"+playlistID+"/Items", q, nil, nil)
}

func (c *Client) MovePlaylistItem(ctx context.Context, playlistID, itemID string, newIndex int) error {
	path := fmt.Sprintf("/Playlists/%s/Items/%s/Move/%d", playlistID, itemID, newIndex)
	return c.request(ctx, http.MethodPost, path, nil, nil, nil)
}

// Stream opens the original file of a track for download. The second return
// value is the response content type, used to pick a file extension.
func (c *Client) Stream(ctx context.Context, trackID string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/Items/"+trackID+"/Download", nil)
	if err != nil {
		return nil, "", err
	}
	req.Header.Set("Authorization", c.authHeader())

	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		return nil, "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, "", fmt.Errorf("server returned status %d for track download", resp.StatusCode)
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}

func (c *Client) toTracks(items []jfItem) []domain.Track {
	tracks := make([]domain.Track, 0, len(items))
	for _, item := range items {
		t := domain.Track{
			ID:         item.ID,
			Name:       item.Name,
			Artists:    item.Artists,
			AlbumID:    item.AlbumID,
			Album:      item.Album,
			Duration:   time.Duration(item.RunTimeTicks) * 100, // server reports 100ns ticks
			ArtworkRef: c.artworkRef(item),
		}
		if len(item.Artists) > 0 {
			t.Artist = item.Artists[0]
		} else {
			t.Artist = item.AlbumArtist
		}
		if len(item.Genres) > 0 {
			t.Genre = item.Genres[0]
		}
		if item.UserData != nil {
			t.Favorite = item.UserData.IsFavorite
			t.PlayCount = item.UserData.PlayCount
		}
		if len(item.MediaSources) > 0 {
			t.SizeBytes = item.MediaSources[0].Size
		}
		tracks = append(tracks, t)
	}
	return tracks
}

func (c *Client) toAlbums(items []jfItem) []domain.Album {
	albums := make([]domain.Album, 0, len(items))
	for _, item := range items {
		a := domain.Album{
			ID:         item.ID,
			Name:       item.Name,
			Artist:     item.AlbumArtist,
			ArtworkRef: c.artworkRef(item),
			Year:       item.ProductionYear,
			TrackCount: item.ChildCount,
		}
		if len(item.ArtistItems) > 0 {
			a.ArtistID = item.ArtistItems[0].ID
		}
		albums = append(albums, a)
	}
	return albums
}

// artworkRef builds a primary-image URL when the item carries one.
func (c *Client) artworkRef(item jfItem) string {
	tag, ok := item.ImageTags["Primary"]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s/Items/%s/Images/Primary?tag=%s", c.baseURL, item.ID, tag)
}
