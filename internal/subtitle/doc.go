// Package subtitle prepares sidecar subtitle files before they are muxed:
// re-encoding to UTF-8, stripping advertisement cues, and synchronizing
// timing against the video's audio through ffsubsync. All operations work in
// place and leave the file valid and non-empty on success.
package subtitle
