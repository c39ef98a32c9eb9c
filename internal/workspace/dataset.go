// Package workspace keeps the manifest of input files behind a dashboard:
// which precomputed tables, indicator exports and lookup files to load.
package workspace

import "time"

// Dataset holds metadata for one registered input file.
type Dataset struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Columns     int       `json:"columns"`
	Rows        int       `json:"rows"`
	AddedAt     time.Time `json:"added_at"`
}
