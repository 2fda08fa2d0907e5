package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/database"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// SnapshotRepository persists cached schema snapshots, one per
// registered connection. Rows disappear with their connection via
// ON DELETE CASCADE.
type SnapshotRepository interface {
	// Get retrieves the cached snapshot for a connection.
	Get(ctx context.Context, connectionID uuid.UUID) (*models.SchemaSnapshot, error)

	// Put stores or replaces the snapshot for a connection.
	Put(ctx context.Context, connectionID uuid.UUID, snapshot *models.SchemaSnapshot) error

	// Delete drops the cached snapshot. Missing rows are not an error.
	Delete(ctx context.Context, connectionID uuid.UUID) error
}

type snapshotRepository struct {
	db *database.DB
}

// NewSnapshotRepository creates a snapshot repository backed by the
// metadata store.
func NewSnapshotRepository(db *database.DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

func (r *snapshotRepository) Get(ctx context.Context, connectionID uuid.UUID) (*models.SchemaSnapshot, error) {
	query := `SELECT snapshot FROM schema_snapshots WHERE connection_id = $1`

	var raw []byte
	err := r.db.QueryRow(ctx, query, connectionID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "no cached schema snapshot")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snapshot models.SchemaSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *snapshotRepository) Put(ctx context.Context, connectionID uuid.UUID, snapshot *models.SchemaSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	query := `
		INSERT INTO schema_snapshots (connection_id, snapshot, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (connection_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()`

	if _, err := r.db.Exec(ctx, query, connectionID, raw); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) Delete(ctx context.Context, connectionID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM schema_snapshots WHERE connection_id = $1`, connectionID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
