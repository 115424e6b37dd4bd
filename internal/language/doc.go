// Package language provides the static mapping between human language names
// and their ISO 639 code sets. The table is immutable and indexed once at
// init; lookups are pure functions over it.
package language
