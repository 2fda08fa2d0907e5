// Package repositories provides data access for the engine metadata
// store.
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/database"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// ConnectionRepository defines data access for the connection registry.
// URLs are stored as given; masking happens at the model layer.
type ConnectionRepository interface {
	// Upsert inserts or updates the connection named conn.Name and
	// fills in ID and timestamps. The second return is true when a new
	// row was inserted.
	Upsert(ctx context.Context, conn *models.Connection) (bool, error)

	// GetByName retrieves a connection by its registered name.
	GetByName(ctx context.Context, name string) (*models.Connection, error)

	// List retrieves all registered connections in name order.
	List(ctx context.Context) ([]*models.Connection, error)

	// Delete removes a connection by name. Cascades to its snapshot.
	Delete(ctx context.Context, name string) error
}

type connectionRepository struct {
	db *database.DB
}

// NewConnectionRepository creates a connection repository backed by the
// metadata store.
func NewConnectionRepository(db *database.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

func (r *connectionRepository) Upsert(ctx context.Context, conn *models.Connection) (bool, error) {
	query := `
		INSERT INTO connections (name, url, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		ON CONFLICT (name) DO UPDATE
		SET url = EXCLUDED.url, updated_at = now()
		RETURNING id, created_at, updated_at, (created_at = updated_at)`

	var created bool
	err := r.db.QueryRow(ctx, query, conn.Name, conn.URL).
		Scan(&conn.ID, &conn.CreatedAt, &conn.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("failed to upsert connection: %w", err)
	}
	return created, nil
}

func (r *connectionRepository) GetByName(ctx context.Context, name string) (*models.Connection, error) {
	query := `
		SELECT id, name, url, created_at, updated_at
		FROM connections
		WHERE name = $1`

	var conn models.Connection
	err := r.db.QueryRow(ctx, query, name).
		Scan(&conn.ID, &conn.Name, &conn.URL, &conn.CreatedAt, &conn.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "unknown connection %q", name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}
	return &conn, nil
}

func (r *connectionRepository) List(ctx context.Context) ([]*models.Connection, error) {
	query := `
		SELECT id, name, url, created_at, updated_at
		FROM connections
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	conns := make([]*models.Connection, 0)
	for rows.Next() {
		var conn models.Connection
		if err := rows.Scan(&conn.ID, &conn.Name, &conn.URL, &conn.CreatedAt, &conn.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, &conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate connections: %w", err)
	}
	return conns, nil
}

func (r *connectionRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM connections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.KindNotFound, "unknown connection %q", name)
	}
	return nil
}
