package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/PetertheMD/nautune/domain"
	"github.com/PetertheMD/nautune/logger"
	"github.com/PetertheMD/nautune/store"
)

// Mode is the operating state of the repository.
type Mode int

const (
	ModeOnline Mode = iota
	ModeOffline
)

func (m Mode) String() string {
	if m == ModeOffline {
		return "offline"
	}
	return "online"
}

// Select is the mode factory: a pure function from the mode flag and the two
// backing handles to a fresh adapter instance. It keeps no state and caches
// nothing, so it can never hand out an adapter bound to a stale session or a
// closed index.
func Select(mode Mode, client RemoteClient, index *store.DB) Repository {
	if mode == ModeOffline {
		return NewLocal(index)
	}
	return NewRemote(client)
}

// Switch is delivered to subscribers when the active adapter changes.
type Switch struct {
	Mode  Mode
	Epoch uint64
}

// Manager owns the active adapter. Mode changes re-invoke the factory and
// bump the epoch; consumers tag in-flight calls with the epoch they were
// issued under and drop results once Valid reports the tag stale. The old
// adapter is discarded, never mutated, so outstanding calls on it complete
// undisturbed.
type Manager struct {
	client RemoteClient
	index  *store.DB
	logger *logger.Logger

	mu      sync.RWMutex
	repo    Repository
	mode    Mode
	epoch   uint64
	subs    map[int]chan Switch
	nextSub int
}

func NewManager(client RemoteClient, index *store.DB, mode Mode, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		client: client,
		index:  index,
		logger: log.WithComponent("repository"),
		repo:   Select(mode, client, index),
		mode:   mode,
		epoch:  1,
		subs:   make(map[int]chan Switch),
	}
}

// Current returns the active adapter together with the epoch it belongs to.
// Callers must not hold the instance across a mode switch; re-fetch after any
// Switch notification.
func (m *Manager) Current() (Repository, uint64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.repo, m.epoch
}

func (m *Manager) Mode() Mode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

func (m *Manager) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// Valid reports whether a result tagged with the given epoch may still be
// applied. Results from a previous epoch must be discarded.
func (m *Manager) Valid(epoch uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return epoch == m.epoch
}

// SetMode swaps the active adapter. A no-op when the mode is unchanged;
// otherwise the factory runs again, the epoch advances and subscribers are
// notified. There is never a per-call fallback between adapters — switching
// is always explicit and caller-driven.
func (m *Manager) SetMode(mode Mode) {
	m.mu.Lock()
	if mode == m.mode {
		m.mu.Unlock()
		return
	}

	m.repo = Select(mode, m.client, m.index)
	m.mode = mode
	m.epoch++

	sw := Switch{Mode: mode, Epoch: m.epoch}
	typeName := m.repo.TypeName()
	channels := make([]chan Switch, 0, len(m.subs))
	for _, ch := range m.subs {
		channels = append(channels, ch)
	}
	m.mu.Unlock()

	m.logger.WithRepository(typeName, sw.Epoch).Info("Switched repository mode")

	for _, ch := range channels {
		select {
		case ch <- sw:
		default: // subscriber not keeping up, it re-reads Current anyway
		}
	}
}

// Subscribe returns a channel delivering mode-switch notifications and a
// cancel function releasing the subscription.
func (m *Manager) Subscribe() (<-chan Switch, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan Switch, 4)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
	return ch, cancel
}

// SnapshotPlaylists copies the remote playlists of a library into the local
// index so the offline adapter can serve playlist reads. Only callable while
// online.
func (m *Manager) SnapshotPlaylists(ctx context.Context, libraryID string) error {
	repo, _ := m.Current()
	if repo.TypeName() != "remote" {
		return domain.ErrReadOnly
	}
	if m.index == nil {
		return domain.ErrStoreClosed
	}

	playlists, err := repo.Playlists(ctx, libraryID, Page{})
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	for _, p := range playlists {
		tracks, err := repo.PlaylistTracks(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("failed to fetch playlist %s: %w", p.ID, err)
		}
		ids := make(domain.StringSlice, 0, len(tracks))
		for _, t := range tracks {
			ids = append(ids, t.ID)
		}
		snap := &domain.PlaylistSnapshot{ID: p.ID, Name: p.Name, TrackIDs: ids}
		if err := m.index.SavePlaylistSnapshot(snap); err != nil {
			return err
		}
		m.logger.Debug("Snapshotted playlist", "playlist_id", p.ID, "tracks", len(ids))
	}
	return nil
}
