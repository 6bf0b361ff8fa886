package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PetertheMD/nautune/domain"
)

func TestSelect(t *testing.T) {
	client := NewMockClient()
	index := setupIndex(t)

	assert.Equal(t, "remote", Select(ModeOnline, client, index).TypeName())
	assert.Equal(t, "local", Select(ModeOffline, client, index).TypeName())

	// The factory is pure: every call yields a fresh instance.
	a := Select(ModeOffline, client, index)
	b := Select(ModeOffline, client, index)
	assert.NotSame(t, a, b)
}

func TestManager_SwitchBumpsEpoch(t *testing.T) {
	m := NewManager(NewMockClient(), setupIndex(t), ModeOnline, nil)

	repo, epoch := m.Current()
	assert.Equal(t, "remote", repo.TypeName())
	assert.Equal(t, uint64(1), epoch)
	assert.True(t, m.Valid(epoch))

	m.SetMode(ModeOffline)

	repo, newEpoch := m.Current()
	assert.Equal(t, "local", repo.TypeName())
	assert.Equal(t, uint64(2), newEpoch)

	// A result tagged with the old epoch must be discarded.
	assert.False(t, m.Valid(epoch))
	assert.True(t, m.Valid(newEpoch))
}

func TestManager_SetModeNoOp(t *testing.T) {
	m := NewManager(NewMockClient(), setupIndex(t), ModeOnline, nil)

	before := m.Epoch()
	m.SetMode(ModeOnline)
	assert.Equal(t, before, m.Epoch())
	assert.Equal(t, ModeOnline, m.Mode())
}

func TestManager_Subscribe(t *testing.T) {
	m := NewManager(NewMockClient(), setupIndex(t), ModeOnline, nil)

	ch, cancel := m.Subscribe()
	defer cancel()

	m.SetMode(ModeOffline)

	sw := <-ch
	assert.Equal(t, ModeOffline, sw.Mode)
	assert.Equal(t, uint64(2), sw.Epoch)

	// After cancel no further notifications arrive.
	cancel()
	m.SetMode(ModeOnline)
	select {
	case sw, ok := <-ch:
		if ok {
			t.Fatalf("unexpected notification after cancel: %+v", sw)
		}
	default:
	}
}

func TestManager_SlowSubscriberDoesNotBlockSwitch(t *testing.T) {
	m := NewManager(NewMockClient(), setupIndex(t), ModeOnline, nil)

	// Never read from the channel; fill its buffer and keep switching.
	_, cancel := m.Subscribe()
	defer cancel()

	for i := 0; i < 16; i++ {
		if i%2 == 0 {
			m.SetMode(ModeOffline)
		} else {
			m.SetMode(ModeOnline)
		}
	}
	assert.Equal(t, uint64(17), m.Epoch())
}

func TestManager_OldAdapterStillServes(t *testing.T) {
	m := NewManager(NewMockClient(), setupIndex(t), ModeOnline, nil)

	old, _ := m.Current()
	m.SetMode(ModeOffline)

	// The discarded adapter is never mutated; in-flight calls on it finish.
	libs, err := old.Libraries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "lib1", libs[0].ID)
}

func TestManager_SnapshotPlaylists(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	index := setupIndex(t)
	m := NewManager(client, index, ModeOnline, nil)

	repo, _ := m.Current()
	id, err := repo.CreatePlaylist(ctx, "Favorites", []string{"t1", "t2"})
	require.NoError(t, err)

	require.NoError(t, m.SnapshotPlaylists(ctx, "lib1"))

	snap, err := index.GetPlaylistSnapshot(id)
	require.NoError(t, err)
	assert.Equal(t, "Favorites", snap.Name)
	assert.Equal(t, domain.StringSlice{"t1", "t2"}, snap.TrackIDs)

	// Snapshotting is an online operation.
	m.SetMode(ModeOffline)
	assert.ErrorIs(t, m.SnapshotPlaylists(ctx, "lib1"), domain.ErrReadOnly)
}
