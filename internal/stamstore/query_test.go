package stamstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuerySelect(t *testing.T) {
	q, err := ParseQuery("SELECT ANNOTATION ?x")
	require.NoError(t, err)
	assert.True(t, q.ReadOnly(), "SELECT must be read-only")
	assert.Equal(t, "x", q.Var)
}

func TestParseQueryAddIsMutating(t *testing.T) {
	q, err := ParseQuery("ADD ANNOTATION TARGET RESOURCE r1 OFFSET 0 5")
	require.NoError(t, err)
	assert.False(t, q.ReadOnly(), "ADD must not be read-only")
	assert.Equal(t, "r1", q.TargetResource)
	assert.Equal(t, 0, q.Begin)
	assert.Equal(t, 5, q.End)
}

func TestQueryMutAddsAnnotation(t *testing.T) {
	dir := t.TempDir()
	s := New()
	s.SetFilename(filepath.Join(dir, "a.store.stam.json"))
	require.NoError(t, s.AddResource("r1", "hello world", filepath.Join(dir, "r1.txt")))
	q, err := ParseQuery("ADD ANNOTATION TARGET RESOURCE r1 OFFSET 0 5 DATA type=greeting")
	require.NoError(t, err)
	rows, err := s.QueryMut(q)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Len(t, s.Annotations(), 1)
}

func TestQueryRejectsWrongReadWriteKind(t *testing.T) {
	s := New()
	sel, _ := ParseQuery("SELECT ANNOTATION ?x")
	_, err := s.QueryMut(sel)
	assert.Error(t, err, "QueryMut should reject a read-only query")
	add, _ := ParseQuery("ADD RESOURCE r1 TEXT hi")
	_, err = s.Query(add)
	assert.Error(t, err, "Query should reject a mutating query")
}
