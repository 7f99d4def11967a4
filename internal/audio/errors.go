package audio

import "errors"

// Sentinel errors for audio sources.
// Fetch wraps one of the upstream kinds so callers can tell a missing track
// from a transient failure with errors.Is().
var (
	// ErrUpstreamNotFound indicates the remote track does not exist (404/410).
	ErrUpstreamNotFound = errors.New("upstream audio not found")

	// ErrUpstreamUnavailable indicates the audio source failed or timed out.
	ErrUpstreamUnavailable = errors.New("upstream audio unavailable")

	// ErrInvalidRange indicates a slice outside the clip or with end before start.
	ErrInvalidRange = errors.New("invalid clip range")
)
