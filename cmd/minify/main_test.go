package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCSSMinification(t *testing.T) {
	m := newMinifier()
	got, err := m.String("text/css", `
		body {
			color: #fff;
			margin: 0  ;
		}
	`)
	if err != nil {
		t.Fatalf("CSS minification failed: %v", err)
	}
	if want := `body{color:#fff;margin:0}`; got != want {
		t.Errorf("CSS minification mismatch:\nGot:      %q\nExpected: %q", got, want)
	}
}

func TestJSMinification(t *testing.T) {
	m := newMinifier()
	got, err := m.String("application/javascript", `
		function add(a, b) {
			return a + b;
		}
	`)
	if err != nil {
		t.Fatalf("JS minification failed: %v", err)
	}
	if want := `function add(e,t){return e+t}`; got != want {
		t.Errorf("JS minification mismatch:\nGot:      %q\nExpected: %q", got, want)
	}
}

func TestJSONMinification(t *testing.T) {
	m := newMinifier()
	got, err := m.String("application/json", "{\n  \"type\": \"Polygon\",\n  \"coordinates\": []\n}")
	if err != nil {
		t.Fatalf("JSON minification failed: %v", err)
	}
	if want := `{"type":"Polygon","coordinates":[]}`; got != want {
		t.Errorf("JSON minification mismatch:\nGot:      %q\nExpected: %q", got, want)
	}
}

func TestTemplateActionsSurvive(t *testing.T) {
	m := newMinifier()
	got, err := m.String("text/html", `{{define "x"}}
<section id="game" data-status="{{.Status}}">
    {{if .Loading}}   <p>Loading</p>   {{end}}
</section>
{{end}}`)
	if err != nil {
		t.Fatalf("HTML minification failed: %v", err)
	}
	for _, want := range []string{`{{define "x"}}`, `data-status="{{.Status}}"`, `{{if .Loading}}`, `</section>`} {
		if !strings.Contains(got, want) {
			t.Errorf("minified template %q lost %q", got, want)
		}
	}
}

func TestMinifyTree(t *testing.T) {
	src := t.TempDir()
	out := t.TempDir()
	files := map[string]string{
		"static/css/a.css":      "a {  color : red ; }",
		"static/js/b.js":        "var  x = 1 ;",
		"static/img/logo.png":   "PNGDATA",
		"templates/index.html": "<p>  hi  </p>",
	}
	for name, body := range files {
		path := filepath.Join(src, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}

	wd, _ := os.Getwd()
	if err := os.Chdir(src); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	stats, err := minifyTree(newMinifier(), []string{"templates", "static"}, out)
	if err != nil {
		t.Fatalf("minifyTree() error = %v", err)
	}
	if stats.Files != 3 {
		t.Errorf("Files = %d, want 3", stats.Files)
	}
	if stats.After >= stats.Before {
		t.Errorf("after %d bytes, before %d: nothing was minified", stats.After, stats.Before)
	}
	png, err := os.ReadFile(filepath.Join(out, "static/img/logo.png"))
	if err != nil || string(png) != "PNGDATA" {
		t.Errorf("logo.png copy = %q, %v", png, err)
	}
	css, _ := os.ReadFile(filepath.Join(out, "static/css/a.css"))
	if string(css) != "a{color:red}" {
		t.Errorf("a.css = %q, want a{color:red}", css)
	}
}

func TestMinifyFileRejectsUnknownType(t *testing.T) {
	if _, err := minifyFile(newMinifier(), "logo.png", filepath.Join(t.TempDir(), "logo.png")); err == nil {
		t.Error("minifyFile() on a png should fail")
	}
}
