// Package mkv reads and edits Matroska track metadata through the external
// mkvmerge and mkvpropedit tools.
//
// Track IDs are positional and only valid for the inspection snapshot they
// came from; any edit renumbers them. Track UIDs are assigned at container
// creation and survive edits, so every lookup that spans an edit goes through
// the UID and the positional ID is re-resolved immediately before use.
package mkv
