package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/dbquery-io/dbquery-engine/pkg/logging"
)

// Connection is a registered external database: a unique name mapped to
// a connection URL. The URL carries credentials and must never leave
// the engine unmasked.
type Connection struct {
	ID        uuid.UUID `json:"-"`
	Name      string    `json:"name"`
	URL       string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MaskedURL returns the connection URL with credentials redacted, safe
// for API responses and logs.
func (c *Connection) MaskedURL() string {
	return logging.SanitizeConnectionString(c.URL)
}

// ConnectionSummary is the API representation of a registered
// connection. Only the masked URL is exposed.
type ConnectionSummary struct {
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary converts a Connection to its API shape.
func (c *Connection) Summary() ConnectionSummary {
	return ConnectionSummary{
		Name:      c.Name,
		URL:       c.MaskedURL(),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// UpsertConnectionRequest is the body of PUT /api/v1/dbs/{name}.
type UpsertConnectionRequest struct {
	URL string `json:"url"`
}
