package downloads

import (
	"fmt"
	"time"

	"github.com/PetertheMD/nautune/domain"
)

// Cleanup is explicit and user-invokable. There is no background pressure
// loop; each policy removes completed entries only and reports how many it
// removed.

// FreeBytes removes the fewest completed downloads whose sizes sum to at
// least target bytes, largest first. Returns freed bytes and removed count.
func (m *Manager) FreeBytes(target int64) (int64, int, error) {
	if target <= 0 {
		return 0, 0, nil
	}
	completed, err := m.index.ListCompletedLargestFirst()
	if err != nil {
		return 0, 0, err
	}

	var freed int64
	removed := 0
	for _, d := range completed {
		if freed >= target {
			break
		}
		if err := m.removeEntry(d); err != nil {
			return freed, removed, fmt.Errorf("cleanup failed at track %s: %w", d.TrackID, err)
		}
		freed += d.SizeBytes
		removed++
	}
	m.logger.Info("Freed storage", "bytes", freed, "removed", removed)
	return freed, removed, nil
}

// RemoveOlderThan removes completed downloads whose completion predates the
// given age.
func (m *Manager) RemoveOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().Add(-age)
	old, err := m.index.ListCompletedOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	return m.removeAll(old)
}

// RemoveAlbum removes every completed download grouped under the album name.
func (m *Manager) RemoveAlbum(album string) (int, error) {
	entries, err := m.index.ListCompletedByAlbum(album)
	if err != nil {
		return 0, err
	}
	return m.removeAll(entries)
}

// RemoveArtist removes every completed download by the artist name.
func (m *Manager) RemoveArtist(artist string) (int, error) {
	entries, err := m.index.ListCompletedByArtist(artist)
	if err != nil {
		return 0, err
	}
	return m.removeAll(entries)
}

// EnforceStorageLimit evicts oldest completions first until total stored
// bytes fit under the configured ceiling. A no-op when the ceiling is
// disabled.
func (m *Manager) EnforceStorageLimit() (int, error) {
	if m.cfg.MaxStorageBytes <= 0 {
		return 0, nil
	}
	total, err := m.index.TotalCompletedBytes()
	if err != nil {
		return 0, err
	}
	if total <= m.cfg.MaxStorageBytes {
		return 0, nil
	}

	completed, err := m.index.ListCompleted()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, d := range completed {
		if total <= m.cfg.MaxStorageBytes {
			break
		}
		if err := m.removeEntry(d); err != nil {
			return removed, err
		}
		total -= d.SizeBytes
		removed++
	}
	if removed > 0 {
		m.logger.Info("Evicted downloads over storage ceiling", "removed", removed, "total_bytes", total)
	}
	return removed, nil
}

// removeAll removes the given entries one by one, returning on the first
// failure with the count removed so far.
func (m *Manager) removeAll(entries []*domain.Download) (int, error) {
	removed := 0
	for _, d := range entries {
		if err := m.removeEntry(d); err != nil {
			return removed, fmt.Errorf("cleanup failed at track %s: %w", d.TrackID, err)
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("Removed downloads", "count", removed)
	}
	return removed, nil
}

// TotalBytes reports the bytes currently held by completed downloads.
func (m *Manager) TotalBytes() (int64, error) {
	return m.index.TotalCompletedBytes()
}
