package dto

import (
	"encoding/json"
	"time"
)

// ReplayResponse describes one replay outcome. ID is empty when the run
// was not archived.
type ReplayResponse struct {
	ID        string          `json:"id,omitempty"`
	Digest    string          `json:"digest"`
	Cached    bool            `json:"cached"`
	Commands  int             `json:"commands"`
	CreatedAt *time.Time      `json:"created_at,omitempty"`
	Results   json.RawMessage `json:"results"`
}
