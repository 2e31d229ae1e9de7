package db

import "time"

// Entry is one key-value record.
type Entry struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Import is a provenance record for a bulk change to the custom entries.
type Import struct {
	ID         int64     `json:"id" yaml:"id"`
	Kind       string    `json:"kind" yaml:"kind"`
	Origin     string    `json:"origin,omitempty" yaml:"origin,omitempty"`
	Entries    int       `json:"entries" yaml:"entries"`
	ImportedAt time.Time `json:"imported_at" yaml:"imported_at"`
}
