// Package downloads keeps the per-track download bookkeeping: the
// queued→downloading→completed|failed|cancelled state machine, the bounded
// concurrency window, and the explicit cleanup policies over the local index.
package downloads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/PetertheMD/nautune/config"
	"github.com/PetertheMD/nautune/domain"
	"github.com/PetertheMD/nautune/logger"
	"github.com/PetertheMD/nautune/store"
)

// progressEvery is how many copied bytes pass between index size updates.
const progressEvery = 1 << 20

// Source supplies track bytes. *jellyfin.Client satisfies it.
type Source interface {
	Stream(ctx context.Context, trackID string) (io.ReadCloser, string, error)
}

type Config struct {
	Dir             string
	MaxConcurrent   int
	MaxStorageBytes int64 // 0 disables the ceiling
}

// Manager runs transfers with at most Config.MaxConcurrent in flight. Queued
// items wait on the concurrency window; cancelling an item releases its slot
// immediately so a waiting one can start.
type Manager struct {
	index  *store.DB
	source Source
	cfg    Config
	logger *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    chan struct{}

	mu      sync.Mutex
	cancels map[string]context.CancelFunc

	active atomic.Int32
}

func NewManager(index *store.DB, source Source, cfg Config, log *logger.Logger) *Manager {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = config.DefaultConcurrency
	}
	if log == nil {
		log = logger.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		index:   index,
		source:  source,
		cfg:     cfg,
		logger:  log.WithComponent("downloads"),
		ctx:     ctx,
		cancel:  cancel,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start recovers entries left over from a previous run and requeues them.
func (m *Manager) Start() error {
	interrupted, err := m.index.FindInterrupted()
	if err != nil {
		return fmt.Errorf("failed to find interrupted downloads: %w", err)
	}
	for _, d := range interrupted {
		m.logger.Info("Recovering interrupted download", "track_id", d.TrackID)
		if d.FilePath != "" {
			_ = removeFile(d.FilePath + ".part")
		}
		if err := m.index.UpdateDownloadStatus(d.TrackID, domain.DownloadStatusQueued, ""); err != nil {
			m.logger.Error("Failed to reset download status", "track_id", d.TrackID, "error", err)
		}
	}

	queued, err := m.index.ListDownloadsByStatus(domain.DownloadStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to list queued downloads: %w", err)
	}
	for _, d := range queued {
		m.spawn(d)
	}
	return nil
}

// Stop cancels every pending transfer and waits for the workers to drain.
func (m *Manager) Stop() {
	m.logger.Info("Stopping download manager")
	m.cancel()
	m.wg.Wait()
}

// Active returns the number of transfers currently holding a slot.
func (m *Manager) Active() int {
	return int(m.active.Load())
}

// Enqueue records a track for download and schedules the transfer. A track
// with an active or completed entry is rejected; a failed or cancelled entry
// is replaced.
func (m *Manager) Enqueue(track domain.Track) error {
	existing, err := m.index.GetDownload(track.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if existing != nil {
		if existing.Status.Active() || existing.Status == domain.DownloadStatusCompleted {
			return domain.ErrAlreadyQueued
		}
		if err := m.index.DeleteDownload(track.ID); err != nil {
			return err
		}
	}

	d := &domain.Download{
		TrackID:    track.ID,
		Title:      track.Name,
		Artist:     track.Artist,
		Artists:    track.Artists,
		AlbumID:    track.AlbumID,
		Album:      track.Album,
		Genre:      track.Genre,
		DurationMS: track.Duration.Milliseconds(),
		Favorite:   track.Favorite,
		PlayCount:  track.PlayCount,
		Status:     domain.DownloadStatusQueued,
	}
	if err := m.index.CreateDownload(d); err != nil {
		return fmt.Errorf("failed to queue download: %w", err)
	}

	m.logger.WithTrack(track.ID, track.Name).Info("Queued download")
	m.spawn(d)
	return nil
}

// Cancel aborts a queued or in-flight download. The concurrency slot, if
// held, is released as the worker unwinds.
func (m *Manager) Cancel(trackID string) error {
	m.mu.Lock()
	cancelItem, ok := m.cancels[trackID]
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotActive
	}
	cancelItem()
	return nil
}

// Delete removes a finished download: index entry, file, and emptied parent
// directories. Active entries must be cancelled first.
func (m *Manager) Delete(trackID string) error {
	d, err := m.index.GetDownload(trackID)
	if err != nil {
		return err
	}
	if d.Status.Active() {
		return domain.ErrActive
	}
	return m.removeEntry(d)
}

func (m *Manager) removeEntry(d *domain.Download) error {
	if d.FilePath != "" {
		if err := removeFile(d.FilePath); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		pruneEmptyParents(d.FilePath, m.cfg.Dir)
	}
	return m.index.DeleteDownload(d.TrackID)
}

func (m *Manager) spawn(d *domain.Download) {
	itemCtx, cancelItem := context.WithCancel(m.ctx)

	m.mu.Lock()
	m.cancels[d.TrackID] = cancelItem
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(itemCtx, cancelItem, d)
}

func (m *Manager) run(ctx context.Context, cancelItem context.CancelFunc, d *domain.Download) {
	defer m.wg.Done()
	defer cancelItem()
	defer func() {
		m.mu.Lock()
		delete(m.cancels, d.TrackID)
		m.mu.Unlock()
	}()

	// Wait for a transfer slot; a cancel while waiting releases nothing.
	// Manager shutdown leaves the entry queued for startup recovery; only
	// a per-item cancel is recorded as cancelled.
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		if m.ctx.Err() == nil {
			m.finish(d, domain.DownloadStatusCancelled, "")
		}
		return
	}
	defer func() { <-m.sem }()

	m.active.Add(1)
	defer m.active.Add(-1)

	log := m.logger.WithTrack(d.TrackID, d.Title)
	if err := m.index.UpdateDownloadStatus(d.TrackID, domain.DownloadStatusDownloading, ""); err != nil {
		log.Error("Failed to mark download started", "error", err)
		return
	}

	size, path, err := m.transfer(ctx, d)
	switch {
	case err == nil:
		if err := m.index.MarkDownloadCompleted(d.TrackID, path, size); err != nil {
			log.Error("Failed to mark download completed", "error", err)
			return
		}
		log.Info("Download completed", "bytes", size)
		if m.cfg.MaxStorageBytes > 0 {
			if _, err := m.EnforceStorageLimit(); err != nil {
				log.Error("Storage limit enforcement failed", "error", err)
			}
		}
	case errors.Is(err, context.Canceled):
		if m.ctx.Err() != nil {
			// Shutdown mid-transfer: the entry stays downloading so the
			// next Start resets it to queued and refetches.
			log.Info("Download interrupted by shutdown")
			return
		}
		log.Info("Download cancelled")
		m.finish(d, domain.DownloadStatusCancelled, "")
	default:
		log.Error("Download failed", "error", err)
		m.finish(d, domain.DownloadStatusFailed, err.Error())
	}
}

func (m *Manager) finish(d *domain.Download, status domain.DownloadStatus, errMsg string) {
	if err := m.index.UpdateDownloadStatus(d.TrackID, status, errMsg); err != nil {
		m.logger.Error("Failed to update download status", "track_id", d.TrackID, "error", err)
	}
}

// transfer streams the track into <dir>/<artist>/<album>/<title><ext>,
// writing through a .part file that is promoted on success.
func (m *Manager) transfer(ctx context.Context, d *domain.Download) (int64, string, error) {
	if m.source == nil {
		return 0, "", domain.ErrNoClient
	}
	body, contentType, err := m.source.Stream(ctx, d.TrackID)
	if err != nil {
		if ctx.Err() != nil {
			return 0, "", context.Canceled
		}
		return 0, "", fmt.Errorf("failed to open stream: %w", err)
	}
	defer body.Close() //nolint:errcheck // deferred cleanup

	artist := d.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	album := d.Album
	if album == "" {
		album = "Unknown Album"
	}
	dir := filepath.Join(m.cfg.Dir, sanitize(artist), sanitize(album))
	if err := ensureDir(dir); err != nil {
		return 0, "", fmt.Errorf("failed to create directory: %w", err)
	}

	base := sanitize(d.Title)
	ext := extForContentType(contentType)
	dest := filepath.Join(dir, base+ext)
	// Distinct tracks sharing artist/album/title must not overwrite each
	// other; on collision the track id disambiguates.
	if m.pathTaken(dest, d.TrackID) {
		dest = filepath.Join(dir, base+" ["+shortID(d.TrackID)+"]"+ext)
	}
	part := dest + ".part"

	out, err := os.Create(part)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create file: %w", err)
	}

	written, err := m.copy(ctx, out, body, d.TrackID)
	cerr := out.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		_ = removeFile(part)
		if ctx.Err() != nil {
			return 0, "", context.Canceled
		}
		return 0, "", err
	}

	if err := os.Rename(part, dest); err != nil {
		_ = removeFile(part)
		return 0, "", fmt.Errorf("failed to finalize file: %w", err)
	}
	return written, dest, nil
}

// pathTaken reports whether dest belongs to another track, either via the
// index or as a file already on disk.
func (m *Manager) pathTaken(dest, trackID string) bool {
	if inUse, err := m.index.PathInUse(dest, trackID); err != nil || inUse {
		return inUse
	}
	if _, err := os.Stat(dest); err == nil {
		return true
	}
	if _, err := os.Stat(dest + ".part"); err == nil {
		return true
	}
	return false
}

func (m *Manager) copy(ctx context.Context, dst io.Writer, src io.Reader, trackID string) (int64, error) {
	buf := make([]byte, 32*1024)
	var written, sinceUpdate int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			sinceUpdate += int64(n)
			if sinceUpdate >= progressEvery {
				sinceUpdate = 0
				_ = m.index.UpdateDownloadSize(trackID, written)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, rerr
		}
	}
}
