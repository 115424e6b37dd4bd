// Package trackflags decides the canonical default/forced state for audio
// and subtitle tracks given one target language per track kind, and issues
// the container edits to get there. Each track is evaluated independently
// against a fixed rule table; commentary audio is never promoted to default.
package trackflags
