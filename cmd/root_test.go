package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// setEnv points the commands at a throwaway sqlite file and a key.
func setEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "tango.db")
	t.Setenv("SECRET_API_KEY", "test-key")
	t.Setenv("PORT", "")
	t.Setenv("TANGO_DATABASE_DRIVER", "sqlite")
	t.Setenv("TANGO_DATABASE_PATH", dbPath)
	return dbPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	noEnv := filepath.Join(t.TempDir(), "missing.env")
	err := run(context.Background(), append(args, "--env-file", noEnv), &out)
	return out.String(), err
}

func TestRootRequiresAPIKey(t *testing.T) {
	setEnv(t)
	t.Setenv("SECRET_API_KEY", "")

	_, err := execute(t, "migrate")
	require.Error(t, err)
	require.Contains(t, err.Error(), "auth.api_key must be set")
}

func TestResolveConfigWithoutPreRun(t *testing.T) {
	t.Parallel()

	_, err := resolveConfig(context.Background())
	require.EqualError(t, err, "configuration not loaded")
}

func TestMigrateCreatesSchema(t *testing.T) {
	dbPath := setEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "schema up to date (sqlite)")
	require.FileExists(t, dbPath)

	_, err = execute(t, "migrate")
	require.NoError(t, err)
}

func TestImportQuotes(t *testing.T) {
	setEnv(t)

	path := filepath.Join(t.TempDir(), "quotes.yaml")
	doc := `
- quote_ua: "ua"
  quote_es: "es"
  quote_en: "en"
  code: "print('tango')"
- quote_ua: "ua2"
  quote_es: "es2"
  quote_en: "en2"
  code: "pass"
  comment_en: "# second"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	out, err := execute(t, "import-quotes", path)
	require.NoError(t, err)
	require.Contains(t, out, "imported 2 quotes, 2 in store")

	out, err = execute(t, "import-quotes", path)
	require.NoError(t, err)
	require.Contains(t, out, "imported 2 quotes, 4 in store")
}

func TestImportQuotesStopsAtInvalidEntry(t *testing.T) {
	setEnv(t)

	path := filepath.Join(t.TempDir(), "quotes.yaml")
	doc := `
- quote_ua: "ua"
  quote_es: "es"
  quote_en: "en"
  code: "pass"
- quote_ua: "ua"
  quote_es: "es"
  quote_en: ""
  code: "pass"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	_, err := execute(t, "import-quotes", path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "imported 1 of 2 quotes")
}

func TestImportQuotesMissingFile(t *testing.T) {
	setEnv(t)

	_, err := execute(t, "import-quotes", filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "open quotes file")
}

func TestMilongasCountsAtGivenInstant(t *testing.T) {
	setEnv(t)

	page := `<html><head>
<script type="application/ld+json">{"@type":"DanceEvent","name":"La Viruta","startDate":"2026-10-17T23:00:00-03:00"}</script>
<script type="application/ld+json">{"@type":"DanceEvent","name":"Salon Canning","startDate":"2026-10-17T21:30:00-03:00"}</script>
<script type="application/ld+json">{"@type":"DanceEvent","name":"Tomorrow","startDate":"2026-10-18T21:30:00-03:00"}</script>
</head></html>`
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer ts.Close()
	t.Setenv("TANGO_MILONGAS_URL", ts.URL)

	// 01:00 UTC on the 18th is still the 17th in Buenos Aires.
	out, err := execute(t, "milongas", "--at", "2026-10-18T01:00:00Z")
	require.NoError(t, err)

	var snap struct {
		Count  int    `json:"milongas_now"`
		State  string `json:"state"`
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	require.Equal(t, 2, snap.Count)
	require.Equal(t, "fresh", snap.State)
	require.Equal(t, ts.URL, snap.Source)
}

func TestMilongasRejectsBadInstant(t *testing.T) {
	setEnv(t)

	_, err := execute(t, "milongas", "--at", "yesterday")
	require.ErrorContains(t, err, "parse --at")
}

func TestMilongasUpstreamFailure(t *testing.T) {
	setEnv(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()
	t.Setenv("TANGO_MILONGAS_URL", ts.URL)

	_, err := execute(t, "milongas")
	require.ErrorContains(t, err, "refresh milongas")
}
