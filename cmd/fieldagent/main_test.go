package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/flutter/login/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "success", "name": "Priya"}`))
	})
	mux.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"code": "C1", "name": "Ravi Traders", "place": "Salem"}]`))
	})
	mux.HandleFunc("/departments", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"id": 1, "department_name": "Coimbatore"}]}`))
	})
	mux.HandleFunc("/collections/", func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "emp1", user)
		w.Write([]byte(`{"data": [
			{"id": 5, "user_id": "emp1", "client_name": "Ravi Traders", "department_id": 1, "department": "Coimbatore", "amount": "100.00", "payment_method": "cash", "created_at": "2024-05-01T10:00:00+05:30"},
			{"id": 9, "user_id": "emp2", "client_name": "Other", "amount": "1", "created_at": "2024-05-01T10:00:00+05:30"}
		]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "api:\n  base_url: " + baseURL + "\n" +
		"retry:\n  delay: 1ms\n" +
		"store:\n  driver: memory\n" +
		"logging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// resetGlobals clears flag values and credential env left by earlier runs
func resetGlobals(t *testing.T) {
	t.Helper()
	configPath, userID, password, verbose = "", "", "", false
	exportPath = "collection-statement.pdf"
	t.Setenv("FIELD_USER", "")
	t.Setenv("FIELD_PASSWORD", "")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestCollectionsList(t *testing.T) {
	resetGlobals(t)
	cfg := writeConfig(t, newBackend(t).URL)

	out, err := execute(t, "collections", "list", "--config", cfg, "--user", "emp1", "--password", "pw")
	require.NoError(t, err)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Ravi Traders")
	assert.Contains(t, out, "Coimbatore")
	assert.Contains(t, out, "01 May 2024")
	assert.NotContains(t, out, "Other")
	assert.Contains(t, out, "1 collections (source: remote)")
}

func TestCollectionsList_CredentialsFromEnv(t *testing.T) {
	resetGlobals(t)
	cfg := writeConfig(t, newBackend(t).URL)
	t.Setenv("FIELD_USER", "emp1")
	t.Setenv("FIELD_PASSWORD", "pw")

	out, err := execute(t, "collections", "list", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Ravi Traders")
}

func TestCollectionsList_RequiresCredentials(t *testing.T) {
	resetGlobals(t)
	cfg := writeConfig(t, newBackend(t).URL)

	_, err := execute(t, "collections", "list", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials required")
}

func TestCollectionsExport(t *testing.T) {
	resetGlobals(t)
	cfg := writeConfig(t, newBackend(t).URL)
	out := filepath.Join(t.TempDir(), "statement.pdf")

	_, err := execute(t, "collections", "export", "--config", cfg, "-u", "emp1", "-p", "pw", "--out", out)
	require.NoError(t, err)

	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}
