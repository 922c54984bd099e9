package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annotation/stamd/pool"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	p, err := pool.New(pool.Config{BaseDir: dir, Extension: "store.stam.json", BaseURL: "http://example.test"})
	require.NoError(t, err)
	return New(Config{Pool: p}), dir
}

func doRequest(s *Server, method, target, body, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestIndexListsStores(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.store.stam.json"), []byte("{}"), 0o644))
	rec := doRequest(s, http.MethodGet, "/", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Stores []string `json:"stores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"a"}, body.Stores)
}

func TestCreateStoreThenQuery(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/mystore", "", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/mystore?query=SELECT+RESOURCE+%3Fr", "", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestQueryMissingParamIsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(s, http.MethodPost, "/mystore", "", "")
	rec := doRequest(s, http.MethodGet, "/mystore", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestQueryUnacceptableAccept(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(s, http.MethodPost, "/mystore", "", "")
	rec := doRequest(s, http.MethodGet, "/mystore?query=SELECT+RESOURCE+%3Fr", "", "application/pdf")
	assert.Equal(t, http.StatusNotAcceptable, rec.Code, rec.Body.String())
}

func TestCreateResourceThenGetSlice(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(s, http.MethodPost, "/mystore", "", "")
	rec := doRequest(s, http.MethodPost, "/mystore/resources/doc1", "hello world", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/mystore/resources/doc1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(s, http.MethodGet, "/mystore/resources/doc1/0/5", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "hello", rec.Body.String())
}

func TestGetUnknownResourceIsNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	doRequest(s, http.MethodPost, "/mystore", "", "")
	rec := doRequest(s, http.MethodGet, "/mystore/resources/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestReadOnlyPoolRejectsCreate(t *testing.T) {
	dir := t.TempDir()
	p, err := pool.New(pool.Config{BaseDir: dir, Extension: "store.stam.json", ReadOnly: true})
	require.NoError(t, err)
	s := New(Config{Pool: p})
	rec := doRequest(s, http.MethodPost, "/mystore", "", "")
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
}
