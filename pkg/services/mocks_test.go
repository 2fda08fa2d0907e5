package services

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
)

// mockConnectionRepo is an in-memory ConnectionRepository.
type mockConnectionRepo struct {
	mu    sync.Mutex
	conns map[string]*models.Connection
}

func newMockConnectionRepo() *mockConnectionRepo {
	return &mockConnectionRepo{conns: make(map[string]*models.Connection)}
}

func (m *mockConnectionRepo) Upsert(_ context.Context, conn *models.Connection) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.conns[conn.Name]
	if ok {
		conn.ID = existing.ID
		conn.CreatedAt = existing.CreatedAt
	} else {
		conn.ID = uuid.New()
	}
	stored := *conn
	m.conns[conn.Name] = &stored
	return !ok, nil
}

func (m *mockConnectionRepo) GetByName(_ context.Context, name string) (*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conn, ok := m.conns[name]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "unknown connection %q", name)
	}
	copied := *conn
	return &copied, nil
}

func (m *mockConnectionRepo) List(_ context.Context) ([]*models.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Connection, 0, len(m.conns))
	for _, conn := range m.conns {
		copied := *conn
		out = append(out, &copied)
	}
	return out, nil
}

func (m *mockConnectionRepo) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conns[name]; !ok {
		return apperrors.New(apperrors.KindNotFound, "unknown connection %q", name)
	}
	delete(m.conns, name)
	return nil
}

// mockSnapshotRepo is an in-memory SnapshotRepository.
type mockSnapshotRepo struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]*models.SchemaSnapshot
	putErr    error
}

func newMockSnapshotRepo() *mockSnapshotRepo {
	return &mockSnapshotRepo{snapshots: make(map[uuid.UUID]*models.SchemaSnapshot)}
}

func (m *mockSnapshotRepo) Get(_ context.Context, id uuid.UUID) (*models.SchemaSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot, ok := m.snapshots[id]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "no cached schema snapshot")
	}
	return snapshot, nil
}

func (m *mockSnapshotRepo) Put(_ context.Context, id uuid.UUID, snapshot *models.SchemaSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.snapshots[id] = snapshot
	return nil
}

func (m *mockSnapshotRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}

// mockPools records acquires and evictions. Acquire returns a nil pool;
// the paired executor and introspector mocks never touch it.
type mockPools struct {
	mu         sync.Mutex
	acquired   []string
	evicted    []string
	acquireErr error
}

func (m *mockPools) Acquire(_ context.Context, name, _ string) (*pgxpool.Pool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.acquireErr != nil {
		return nil, m.acquireErr
	}
	m.acquired = append(m.acquired, name)
	return nil, nil
}

func (m *mockPools) Evict(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evicted = append(m.evicted, name)
}

// mockExecutor returns a canned result and records executed SQL.
type mockExecutor struct {
	result   *models.ResultSet
	err      error
	executed []string
}

func (m *mockExecutor) Execute(_ context.Context, _ *pgxpool.Pool, sqlText string) (*models.ResultSet, error) {
	m.executed = append(m.executed, sqlText)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &models.ResultSet{Columns: []string{}, Rows: [][]models.CellValue{}}, nil
}

// mockIntrospector returns a canned snapshot.
type mockIntrospector struct {
	snapshot *models.SchemaSnapshot
	err      error
	calls    int
}

func (m *mockIntrospector) Introspect(_ context.Context, _ *pgxpool.Pool, dbName string) (*models.SchemaSnapshot, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &models.SchemaSnapshot{DBName: dbName}, nil
}
