package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/remote-sensing-etl/internal/adapter/httpadapter"
	"github.com/couchcryptid/remote-sensing-etl/internal/dataset"
	"github.com/couchcryptid/remote-sensing-etl/internal/normalize"
	"github.com/couchcryptid/remote-sensing-etl/internal/observability"
	"github.com/couchcryptid/remote-sensing-etl/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = "ma_xa;ten_xa;toa_do_x;toa_do_y;NDVI;LST;TVDI\n" +
	"26734;Phường 1;106,70;10,77;0,45;31,2;0,21\n" +
	"26737;Phường 4;106,68;10,76;;32,0;\n"

type readiness struct{ err error }

func (r readiness) CheckReadiness(context.Context) error { return r.err }

func newTestServer(t *testing.T, dir string, ready error) *httpadapter.Server {
	t.Helper()
	enc, err := source.LookupEncoding("latin1")
	require.NoError(t, err)
	loader := dataset.NewLoader(dir, source.NewReader(enc), normalize.DefaultBounds, slog.Default(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", readiness{err: ready}, loader, slog.Default())
}

func dataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mtime := time.Date(2023, time.April, 1, 0, 0, 0, 0, time.UTC)
	for name, content := range map[string]string{
		"15-03-2023.csv": export,
		"01-04-2023.csv": export,
		"garbage.csv":    "\x00\x01\x02\x00",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		require.NoError(t, os.Chtimes(path, mtime, mtime))
	}
	return dir
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	assert.Equal(t, http.StatusOK, get(t, srv, "/healthz").Code)
}

func TestReadyz(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	assert.Equal(t, http.StatusOK, get(t, srv, "/readyz").Code)

	notReady := newTestServer(t, t.TempDir(), errors.New("dataset has not been loaded yet"))
	assert.NotEqual(t, http.StatusOK, get(t, notReady, "/readyz").Code)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, t.TempDir(), nil)
	assert.Equal(t, http.StatusOK, get(t, srv, "/metrics").Code)
}

func TestTimepoints(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	rec := get(t, srv, "/api/timepoints")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Timepoints []string `json:"timepoints"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"2023-03-15", "2023-04-01"}, body.Timepoints)
}

func TestValues(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	rec := get(t, srv, "/api/values?date=2023-03-15")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Index  string `json:"index"`
		Values []struct {
			RegionName string   `json:"region_name"`
			Value      *float64 `json:"value"`
			LST        *float64 `json:"lst"`
		} `json:"values"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "NDVI", body.Index)
	require.Len(t, body.Values, 2)
	require.NotNil(t, body.Values[0].Value)
	assert.InDelta(t, 0.45, *body.Values[0].Value, 1e-9)
	assert.Nil(t, body.Values[1].Value)
	require.NotNil(t, body.Values[1].LST)
	assert.InDelta(t, 32.0, *body.Values[1].LST, 1e-9)
}

func TestValues_BadParams(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/values").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/values?date=15-03-2023").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/values?date=2023-03-15&index=EVI").Code)
}

func TestValues_EmptyDateEncodesEmptyList(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	rec := get(t, srv, "/api/values?date=2020-01-01&index=lst")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"values":[]`)
}

func TestSeries(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	rec := get(t, srv, "/api/series?region=Ph%C6%B0%E1%BB%9Dng+1")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Region       string `json:"region"`
		Observations []struct {
			Date string `json:"date"`
		} `json:"observations"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "Phường 1", body.Region)
	require.Len(t, body.Observations, 2)
	assert.Equal(t, "2023-03-15", body.Observations[0].Date)
	assert.Equal(t, "2023-04-01", body.Observations[1].Date)

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/api/series").Code)
}

func TestRegions(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	rec := get(t, srv, "/api/regions")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Regions []string `json:"regions"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"Phường 1", "Phường 4"}, body.Regions)
}

func TestFiles(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	rec := get(t, srv, "/api/files")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Files []struct {
			Name    string `json:"name"`
			Skipped bool   `json:"skipped"`
		} `json:"files"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Files, 3)
	assert.Equal(t, "01-04-2023.csv", body.Files[0].Name)
	assert.Equal(t, "garbage.csv", body.Files[2].Name)
	assert.True(t, body.Files[2].Skipped)
}

func TestReload(t *testing.T) {
	srv := newTestServer(t, dataDir(t), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reload", http.NoBody)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rows    int `json:"rows"`
		Files   int `json:"files"`
		Skipped []struct {
			Name string `json:"name"`
		} `json:"skipped"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 4, body.Rows)
	assert.Equal(t, 3, body.Files)
	require.Len(t, body.Skipped, 1)
	assert.Equal(t, "garbage.csv", body.Skipped[0].Name)
}

func TestMissingDataDir(t *testing.T) {
	srv := newTestServer(t, filepath.Join(t.TempDir(), "missing"), nil)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv, "/api/timepoints").Code)
}
