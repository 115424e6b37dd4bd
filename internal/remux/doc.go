// Package remux performs container mutations through mkvmerge without ever
// leaving zero or partial bytes at the original path. Every operation writes
// to a sibling temp file, verifies the result by re-inspection, and only then
// swaps it over the original; failures before the swap leave the original
// byte-identical.
package remux
