package models

import "time"

// APIKeyRecord represents an API key as returned by the management routes.
// Secret is populated only in the creation response; the server never
// returns it again and list responses leave it empty.
type APIKeyRecord struct {
	KeyID     string    `json:"key_id"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Secret    string    `json:"secret,omitempty"`
}

// APIKeyCreateRequest is the body for creating a new key.
type APIKeyCreateRequest struct {
	Label string `json:"label"`
}
