// Package domain holds the catalog entities, the download index entry and the
// errors shared by both repository adapters.
package domain

import "errors"

// Precondition failures. These indicate caller bugs (calling into an adapter
// whose preconditions were never established) and are never retried here.
var (
	// ErrNoClient is returned by the remote adapter when it was built
	// without a client handle.
	ErrNoClient = errors.New("no client available")

	// ErrNoSession is returned by the remote adapter when the client holds
	// no authenticated session.
	ErrNoSession = errors.New("no active session")

	// ErrNoLibrarySelected is returned by library-scoped operations called
	// with an empty library id.
	ErrNoLibrarySelected = errors.New("no library selected")
)

// Availability and steady-state failures.
var (
	// ErrStoreClosed is returned by the offline adapter when the download
	// index is not initialized or already closed.
	ErrStoreClosed = errors.New("download index not available")

	// ErrReadOnly is returned by the offline adapter for playlist
	// mutations. Playlists are a server-side concept; offline writes do
	// not round-trip.
	ErrReadOnly = errors.New("repository is read-only")

	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Download bookkeeping failures.
var (
	// ErrAlreadyQueued is returned when a track already has an active
	// download entry.
	ErrAlreadyQueued = errors.New("track already queued")

	// ErrNotActive is returned when cancelling a download that is neither
	// queued nor in flight.
	ErrNotActive = errors.New("download is not active")

	// ErrActive is returned when deleting a download that still occupies
	// or awaits a transfer slot. Cancel it first.
	ErrActive = errors.New("download is still active")
)
