package listsync

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neorecon/internal/config"
	"neorecon/internal/pkg/client"
)

type fakeFetcher struct {
	body  string
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func source(t *testing.T) Source {
	return Source{Name: "username", URL: "https://lists.example/wmn-data.json", Path: filepath.Join(t.TempDir(), "wmn-data.json")}
}

func TestSyncNoLocalFile(t *testing.T) {
	f := &fakeFetcher{body: `{"sites":[{"name":"A & B","e_code":200}]}`}
	s := NewSynchronizer(f)
	src := source(t)

	result, err := s.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ResultDownloaded, result)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Equal(t, int64(0), s.Comparisons())

	data, err := os.ReadFile(src.Path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"name": "A & B"`)
}

func TestSyncUpToDate(t *testing.T) {
	src := source(t)
	// 格式与键顺序不同但内容一致
	require.NoError(t, os.WriteFile(src.Path, []byte(`{"sites": [{"e_code": 200, "name": "A"}]}`), 0o644))
	before, _ := os.Stat(src.Path)

	f := &fakeFetcher{body: `{"sites":[{"name":"A","e_code":200}]}`}
	s := NewSynchronizer(f)
	result, err := s.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ResultUpToDate, result)
	assert.Equal(t, int64(1), s.Comparisons())
	assert.Equal(t, int32(1), f.calls.Load())

	after, _ := os.Stat(src.Path)
	assert.Equal(t, before.ModTime(), after.ModTime())
}

func TestSyncUpdated(t *testing.T) {
	src := source(t)
	require.NoError(t, os.WriteFile(src.Path, []byte(`{"sites":[{"name":"A"}]}`), 0o644))

	f := &fakeFetcher{body: `{"sites":[{"name":"A"},{"name":"B"}]}`}
	s := NewSynchronizer(f)
	result, err := s.Sync(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ResultUpdated, result)
	assert.Equal(t, int32(1), f.calls.Load())

	data, _ := os.ReadFile(src.Path)
	assert.Contains(t, string(data), `"B"`)
}

func TestSyncCorruptLocalRefreshes(t *testing.T) {
	src := source(t)
	require.NoError(t, os.WriteFile(src.Path, []byte(`{not json`), 0o644))

	f := &fakeFetcher{body: `{"sites":[]}`}
	result, err := NewSynchronizer(f).Sync(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, ResultRefreshed, result)
	assert.Equal(t, int32(1), f.calls.Load())

	d1, _ := Digest([]byte(`{"sites":[]}`))
	data, _ := os.ReadFile(src.Path)
	d2, err := Digest(data)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestSyncFetchFailureKeepsLocal(t *testing.T) {
	src := source(t)
	require.NoError(t, os.WriteFile(src.Path, []byte(`{"sites":[]}`), 0o644))

	f := &fakeFetcher{err: errors.New("dns failure")}
	result, err := NewSynchronizer(f).Sync(context.Background(), src)
	assert.Error(t, err)
	assert.Equal(t, ResultFailed, result)

	data, _ := os.ReadFile(src.Path)
	assert.Equal(t, `{"sites":[]}`, string(data))
}

func TestSyncSkipsWithoutURL(t *testing.T) {
	f := &fakeFetcher{}
	result, err := NewSynchronizer(f).Sync(context.Background(), Source{Name: "email", Path: "unused.json"})
	require.NoError(t, err)
	assert.Equal(t, ResultSkipped, result)
	assert.Equal(t, int32(0), f.calls.Load())
}

func TestDigestIgnoresKeyOrder(t *testing.T) {
	a, err := Digest([]byte(`{"b":1,"a":{"y":2,"x":[1,2]}}`))
	require.NoError(t, err)
	b, err := Digest([]byte("{\n  \"a\": {\"x\": [1, 2], \"y\": 2},\n  \"b\": 1\n}"))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, _ := Digest([]byte(`{"a":{"x":[2,1],"y":2},"b":1}`))
	assert.NotEqual(t, a, c)
}

func TestDoerFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/list.json" {
			w.Write([]byte(`{"sites":[]}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := client.NewHTTPClient(client.Options{Timeout: time.Second})
	require.NoError(t, err)
	f := &DoerFetcher{Doer: c}

	body, err := f.Fetch(context.Background(), srv.URL+"/list.json")
	require.NoError(t, err)
	assert.Equal(t, `{"sites":[]}`, string(body))

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.json")
	assert.Error(t, err)
}

func TestSyncAllFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Lists.Directory = t.TempDir()

	sources := SourcesFromConfig(cfg.Lists)
	require.Len(t, sources, 2)
	assert.Equal(t, filepath.Join(cfg.Lists.Directory, "wmn-data.json"), sources[0].Path)

	f := &fakeFetcher{body: `{"sites":[]}`}
	results := NewSynchronizer(f).SyncAll(context.Background(), sources)
	assert.Equal(t, ResultDownloaded, results["username"])
	assert.Equal(t, ResultSkipped, results["email"])
	assert.EqualValues(t, 1, f.calls.Load())
	assert.FileExists(t, sources[0].Path)
}
