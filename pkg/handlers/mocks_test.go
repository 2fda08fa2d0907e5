package handlers

import (
	"context"

	"github.com/dbquery-io/dbquery-engine/pkg/apperrors"
	"github.com/dbquery-io/dbquery-engine/pkg/models"
	"github.com/dbquery-io/dbquery-engine/pkg/services"
)

type mockRegistry struct {
	conns     map[string]*models.Connection
	upsertErr error
}

var _ services.RegistryService = (*mockRegistry)(nil)

func newMockRegistry() *mockRegistry {
	return &mockRegistry{conns: make(map[string]*models.Connection)}
}

func (m *mockRegistry) Upsert(_ context.Context, name, url string) (*models.Connection, bool, error) {
	if m.upsertErr != nil {
		return nil, false, m.upsertErr
	}
	_, existed := m.conns[name]
	conn := &models.Connection{Name: name, URL: url}
	m.conns[name] = conn
	return conn, !existed, nil
}

func (m *mockRegistry) Get(_ context.Context, name string) (*models.Connection, error) {
	conn, ok := m.conns[name]
	if !ok {
		return nil, apperrors.New(apperrors.KindNotFound, "unknown connection %q", name)
	}
	return conn, nil
}

func (m *mockRegistry) List(_ context.Context) ([]models.ConnectionSummary, error) {
	out := make([]models.ConnectionSummary, 0, len(m.conns))
	for _, conn := range m.conns {
		out = append(out, conn.Summary())
	}
	return out, nil
}

func (m *mockRegistry) Delete(_ context.Context, name string) error {
	if _, ok := m.conns[name]; !ok {
		return apperrors.New(apperrors.KindNotFound, "unknown connection %q", name)
	}
	delete(m.conns, name)
	return nil
}

type mockSchemaService struct {
	snapshot     *models.SchemaSnapshot
	err          error
	lastName     string
	lastRefresh  bool
	fetchCounter int
}

var _ services.SchemaService = (*mockSchemaService)(nil)

func (m *mockSchemaService) Fetch(_ context.Context, name string, forceRefresh bool) (*models.SchemaSnapshot, error) {
	m.fetchCounter++
	m.lastName = name
	m.lastRefresh = forceRefresh
	if m.err != nil {
		return nil, m.err
	}
	if m.snapshot != nil {
		return m.snapshot, nil
	}
	return &models.SchemaSnapshot{DBName: name}, nil
}

type mockQueryService struct {
	result  *models.ResultSet
	nlSQL   string
	err     error
	lastSQL string
}

var _ services.QueryService = (*mockQueryService)(nil)

func (m *mockQueryService) ExecuteSQL(_ context.Context, _, rawSQL string) (*models.ResultSet, error) {
	m.lastSQL = rawSQL
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockQueryService) ExecuteNaturalLanguage(_ context.Context, _, _ string) (*services.NaturalLanguageResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &services.NaturalLanguageResult{Result: m.result, SQL: m.nlSQL}, nil
}
