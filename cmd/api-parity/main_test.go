package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finops-claw-gang/api-parity/internal/testutil"
)

// isolate points configuration at a temp report dir and away from the
// caller's environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{
		"PARITY_LOG_LEVEL", "PARITY_TIMEOUT", "PARITY_CONCURRENCY", "PARITY_RATE_LIMIT",
		"PARITY_OLD_BASE_URL", "PARITY_NEW_BASE_URL", "PARITY_OTEL_ENABLED",
		"PARITY_CLOUDWATCH_NAMESPACE", "PARITY_CROSS_ACCOUNT_ROLE",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("PARITY_REPORT_DIR", dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"run", "compare", "diff", "normalize"} {
		assert.Contains(t, out, sub)
	}
}

func TestUnknownCommand(t *testing.T) {
	_, _, err := execute(t, "nope")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "payload.json", `{"items":[{"id":"b","n":2},{"id":"a","n":1}]}`)

	out, _, err := execute(t, "normalize", path)
	require.NoError(t, err)
	want := `{
  "items": [
    {
      "id": "a",
      "n": 1
    },
    {
      "id": "b",
      "n": 2
    }
  ]
}
`
	assert.Equal(t, want, out)
}

func TestNormalize_InvalidJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{`)
	_, _, err := execute(t, "normalize", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeFile(t, dir, "old.json", `{"id":1,"v":"a"}`)
	newPath := writeFile(t, dir, "new.json", `{"v":"b","id":1}`)
	samePath := writeFile(t, dir, "same.json", `{"v":"a","id":1}`)

	out, _, err := execute(t, "diff", oldPath, newPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Data match: ❌")
	assert.Contains(t, out, "--- Old API\n+++ New API\n")
	assert.Contains(t, out, "\n-  \"v\": \"a\"\n")

	out, _, err = execute(t, "diff", oldPath, samePath)
	require.NoError(t, err)
	assert.Equal(t, "Data match: ✅\n", out)

	_, _, err = execute(t, "diff", "--fail-on-mismatch", oldPath, newPath)
	assert.ErrorIs(t, err, errMismatch)

	_, _, err = execute(t, "diff", oldPath)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	reportDir := isolate(t)
	oldSrv := testutil.JSONServer(t, http.StatusOK, `{"items":[{"id":2},{"id":1}]}`)
	newSrv := testutil.JSONServer(t, http.StatusOK, `{"items":[{"id":1},{"id":2}]}`)

	out, stderr, err := execute(t, "compare",
		"--name", "Items",
		"--old", oldSrv.URL+"/items",
		"--new", newSrv.URL+"/items",
		"-H", "Accept-Language: ko",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "API comparison: Items\n")
	assert.Contains(t, out, "Old API status: 200\n")
	assert.Contains(t, out, "Data match: ✅\n")
	assert.Contains(t, out, "HTML report written: "+reportDir)
	assert.Contains(t, stderr, `"msg":"comparison finished"`)

	reports, err := filepath.Glob(filepath.Join(reportDir, "api_comparison_report_*.html"))
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestCompare_TransportFailure(t *testing.T) {
	reportDir := isolate(t)
	output := filepath.Join(reportDir, "down.html")

	out, _, err := execute(t, "compare",
		"--name", "Down",
		"--old", testutil.ClosedURL(t),
		"--new", testutil.ClosedURL(t),
		"--output", output,
		"--fail-on-mismatch",
	)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "Old API status: Error\n")
	assert.Contains(t, out, "Error: ")
	assert.FileExists(t, output)
}

func TestCompare_RequiresFlags(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "compare", "--name", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestCompare_InvalidHeader(t *testing.T) {
	isolate(t)
	_, _, err := execute(t, "compare", "--name", "x", "--old", "http://a", "--new", "http://b", "-H", "no-colon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid header")
}

func TestRun(t *testing.T) {
	reportDir := isolate(t)
	t.Setenv("PARITY_TEST_TOKEN", "secret")

	var rec headerRecorder
	oldSrv := testutil.RouteServer(t, map[string]testutil.Route{
		"/api/banner":  {Status: http.StatusOK, Body: string(testutil.Golden(t, "old_main_banner.json"))},
		"/api/article": {Status: http.StatusOK, Body: `{"id":1,"title":"a"}`},
		"/api/gone":    {Status: http.StatusInternalServerError, Body: `{}`},
	})
	newSrv := rec.server(t, map[string]testutil.Route{
		"/banner":  {Status: http.StatusOK, Body: string(testutil.Golden(t, "new_main_banner.json"))},
		"/article": {Status: http.StatusOK, Body: `{"id":1,"title":"b"}`},
		"/gone":    {Status: http.StatusOK, Body: `{}`},
	})

	suite := fmt.Sprintf(`
name: home
old_base_url: %s/api
new_base_url: %s
headers:
  Authorization: Bearer ${PARITY_TEST_TOKEN}
comparisons:
  - name: Banner
    path: /banner
  - name: Article
    path: /article
  - name: Gone
    path: /gone
`, oldSrv.URL, newSrv.URL)
	suitePath := writeFile(t, t.TempDir(), "home.yml", suite)
	jsonPath := filepath.Join(reportDir, "results.json")

	out, _, err := execute(t, "run", suitePath, "--json", jsonPath, "--concurrency", "2")
	require.NoError(t, err)

	blocks := strings.Split(out, "API comparison: ")
	require.Len(t, blocks, 4)
	assert.True(t, strings.HasPrefix(blocks[1], "Banner\n"))
	assert.Contains(t, blocks[1], "Data match: ✅")
	assert.True(t, strings.HasPrefix(blocks[2], "Article\n"))
	assert.Contains(t, blocks[2], "Data match: ❌")
	assert.Contains(t, blocks[3], "Old API status: 500")
	assert.Contains(t, out, "Total: 3  Matched: 1  Mismatched: 2  Errors: 0")
	assert.Equal(t, []string{"Bearer secret", "Bearer secret", "Bearer secret"}, rec.headers())

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var doc struct {
		Summary struct {
			Total   int `json:"total"`
			Matched int `json:"matched"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.Summary.Total)
	assert.Equal(t, 1, doc.Summary.Matched)

	_, _, err = execute(t, "run", suitePath, "--fail-on-mismatch")
	assert.ErrorIs(t, err, errMismatch)
}

func TestRun_SuiteErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	_, _, err := execute(t, "run", filepath.Join(dir, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read suite")

	path := writeFile(t, dir, "unset.yml", `
old_base_url: http://old.example.com
new_base_url: http://new.example.com
headers:
  Authorization: Bearer ${PARITY_UNSET_TOKEN_FOR_TEST}
comparisons:
  - name: A
    path: /a
`)
	_, _, err = execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARITY_UNSET_TOKEN_FOR_TEST")
}

func TestRun_InvalidConfig(t *testing.T) {
	isolate(t)
	t.Setenv("PARITY_TIMEOUT", "soon")
	path := writeFile(t, t.TempDir(), "s.yml", "comparisons:\n  - name: A\n    old_url: http://a\n    new_url: http://b\n")

	_, _, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PARITY_TIMEOUT")
}

// headerRecorder answers like testutil.RouteServer and records the
// Authorization header of every request.
type headerRecorder struct {
	mu   sync.Mutex
	seen []string
}

func (h *headerRecorder) server(t *testing.T, routes map[string]testutil.Route) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.seen = append(h.seen, r.Header.Get("Authorization"))
		h.mu.Unlock()

		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(route.Status)
		_, _ = w.Write([]byte(route.Body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func (h *headerRecorder) headers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.seen...)
}
