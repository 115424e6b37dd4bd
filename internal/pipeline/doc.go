// Package pipeline orchestrates the per-file processing stages: subtitle
// conversion, cleaning, synchronization, merging into the container, and
// track flag normalization. Jobs are independent; a failure in one file
// never stops the batch.
package pipeline
