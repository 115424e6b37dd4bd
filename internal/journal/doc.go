// Package journal persists processed-job outcomes in SQLite so repeated runs
// over the same library skip pairs that already completed. One row per
// (video, subtitle language); re-processing replaces the row.
package journal
