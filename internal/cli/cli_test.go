package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/syllabus-sync/internal/entity"
)

// fixtureServer serves the roster API and registrar pages from package testdata.
func fixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	classes, err := os.ReadFile(filepath.Join("..", "catalog", "testdata", "classes_cs.json"))
	require.NoError(t, err)
	prelims, err := os.ReadFile(filepath.Join("..", "registrar", "testdata", "prelims.html"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/config/subjects.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","data":{"subjects":[{"value":"CS","descr":"Computer Science"}]}}`))
	})
	mux.HandleFunc("/api/search/classes.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(classes)
	})
	mux.HandleFunc("/prelims", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(prelims)
	})
	mux.HandleFunc("/finals", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	t.Setenv("DB_URL", "")
	t.Setenv("SYLLABUS_DATABASE_DSN", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	raw := fmt.Sprintf(`database:
  driver: sqlite
  dsn: %s
log:
  level: error
  format: text
catalog:
  base_url: %s/api
  cache_ttl: 0s
registrar:
  prelim_url: %s/prelims
  final_url: %s/finals
`, filepath.Join(dir, "import.db"), baseURL, baseURL, baseURL)
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMigrate(t *testing.T) {
	cfg := writeConfig(t, "http://127.0.0.1:1")

	out, err := execute(t, "--config", cfg, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrated sqlite database")
}

func TestCourses_ThenExams(t *testing.T) {
	srv := fixtureServer(t)
	cfg := writeConfig(t, srv.URL)

	out, err := execute(t, "--config", cfg, "--format", "json", "courses", "--roster", "fa23")
	require.NoError(t, err)
	var courses []RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &courses))
	require.Len(t, courses, 1)
	assert.Equal(t, "courses", courses[0].Kind)
	assert.Equal(t, "FA23", courses[0].Roster)
	assert.Equal(t, "COMPLETED", courses[0].Status)
	assert.Equal(t, 2, courses[0].Created)

	out, err = execute(t, "--config", cfg, "--format", "json", "exams", "--roster", "SP24", "--kind", "prelims")
	require.NoError(t, err)
	var exams []RunReport
	require.NoError(t, json.Unmarshal([]byte(out), &exams))
	require.Len(t, exams, 1)
	assert.Equal(t, "prelims", exams[0].Kind)
	assert.Equal(t, "COMPLETED", exams[0].Status)
	assert.Equal(t, 2, exams[0].Created)
	assert.Equal(t, 2, exams[0].Skipped)

	out, err = execute(t, "--config", cfg, "--format", "json", "runs", "--limit", "5")
	require.NoError(t, err)
	var runs []entity.ImportRun
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	assert.Len(t, runs, 2)
}

func TestExams_FailedPageDoesNotStopTheOther(t *testing.T) {
	srv := fixtureServer(t)
	cfg := writeConfig(t, srv.URL)

	out, err := execute(t, "--config", cfg, "exams", "--roster", "SP24")
	require.Error(t, err)
	assert.Contains(t, out, "prelims SP24: COMPLETED")
	assert.Contains(t, out, "finals SP24: FAILED")
	assert.Contains(t, out, "error:")
}

func TestExams_InvalidKind(t *testing.T) {
	_, err := execute(t, "exams", "--roster", "SP24", "--kind", "midterms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestCourses_InvalidRosterFailsBeforeConnecting(t *testing.T) {
	_, err := execute(t, "courses", "--roster", "2023")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_ARGUMENT")
}

func TestCourses_RosterRequired(t *testing.T) {
	_, err := execute(t, "courses")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roster")
}
