package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/AlanRandon/subdivisions-game/internal/dataset"
)

const polygon = `{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}`

func writeCache(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"regions.json":   `[{"id":"Q1","name":"Testland"}]`,
		"divisions.json": `[{"id":"D1","preferredName":"North","names":["North","Nord"],"regionId":"Q1","osm":123,"geo":null}]`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCombineCommand(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("id") != "123" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(polygon))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cache := filepath.Join(dir, "cache")
	if err := os.Mkdir(cache, 0755); err != nil {
		t.Fatal(err)
	}
	writeCache(t, cache)
	out := filepath.Join(dir, "data.json")

	cmd := newRootCmd()
	cmd.SetArgs([]string{
		"--cache-dir", cache,
		"--shape-dir", filepath.Join(dir, "shapes"),
		"--out", out,
		"--osm-url", srv.URL,
	})
	for run := 0; run < 2; run++ {
		if err := cmd.Execute(); err != nil {
			t.Fatalf("run %d: Execute() error = %v", run, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("shape service hit %d times, want 1 (cached on the second run)", n)
	}

	catalog, err := dataset.Load(out)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	region, err := catalog.Lookup("Q1")
	if err != nil {
		t.Fatalf("Lookup(Q1) error = %v", err)
	}
	if len(region.Divisions) != 1 || region.Divisions[0].PreferredName != "North" {
		t.Errorf("divisions = %+v, want North", region.Divisions)
	}
}

func TestCombineCommandMissingCache(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--cache-dir", t.TempDir(), "--out", filepath.Join(t.TempDir(), "data.json")})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() with an empty cache dir should fail")
	}
}

func TestCombineCommandRejectsArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() with positional args should fail")
	}
}
