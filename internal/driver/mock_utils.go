package driver

import (
	"context"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MockDriver records every statement it sees. QueryResults maps a query
// substring to the result returned for matching ExecuteQuery calls.
// FailOn makes any query containing the substring fail with Err.
type MockDriver struct {
	mu           sync.Mutex
	Queries      []Statement
	Writes       [][]Statement
	QueryResults map[string]neo4j.EagerResult
	FailOn       string
	Err          error
	WriteErrs    []error
	IndicesBuilt bool
}

func (m *MockDriver) fails(query string) bool {
	if m.Err == nil {
		return false
	}
	return m.FailOn == "" || strings.Contains(query, m.FailOn)
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Queries = append(m.Queries, Statement{Query: query, Params: params})
	if m.fails(query) {
		return neo4j.EagerResult{}, m.Err
	}
	for key, res := range m.QueryResults {
		if strings.Contains(query, key) {
			return res, nil
		}
	}
	return neo4j.EagerResult{}, nil
}

// ExecuteWrite pops WriteErrs first, so a test can fail the first N
// transactions and let the next one through.
func (m *MockDriver) ExecuteWrite(ctx context.Context, statements []Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Writes = append(m.Writes, statements)
	if len(m.WriteErrs) > 0 {
		err := m.WriteErrs[0]
		m.WriteErrs = m.WriteErrs[1:]
		return err
	}
	for _, st := range statements {
		if m.fails(st.Query) {
			return m.Err
		}
	}
	return nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IndicesBuilt = true
	return nil
}

func (m *MockDriver) Close(ctx context.Context) error {
	return nil
}
