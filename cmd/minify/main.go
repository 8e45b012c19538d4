// Command minify writes minified copies of the templates and static assets
// into dist/, which the server prefers in production.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/json"
)

// mediaTypes maps the extensions we minify to their media types.
var mediaTypes = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".json": "application/json",
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		TemplateDelims:   html.GoTemplateDelims,
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("application/json", json.Minify)
	return m
}

func main() {
	var (
		inputFile  = flag.String("input", "", "Minify a single file instead of the asset tree")
		outputFile = flag.String("output", "", "Output file path for -input")
		outDir     = flag.String("out", "dist", "Output directory for the asset tree")
	)
	flag.Parse()

	m := newMinifier()
	if *inputFile != "" {
		if *outputFile == "" {
			log.Fatal("Usage: minify -input=<file> -output=<file>")
		}
		if _, err := minifyFile(m, *inputFile, *outputFile); err != nil {
			log.Fatalf("Failed to minify %s: %v", *inputFile, err)
		}
		return
	}

	stats, err := minifyTree(m, []string{"templates", "static"}, *outDir)
	if err != nil {
		log.Fatalf("Minification failed: %v", err)
	}
	fmt.Printf("Minified %d files into %s (%d bytes → %d bytes)\n", stats.Files, *outDir, stats.Before, stats.After)
}

// Stats totals the work of one run.
type Stats struct {
	Files  int
	Before int
	After  int
}

// minifyTree minifies every known file under each source directory into
// outDir, keeping relative paths. Other files are copied as they are.
func minifyTree(m *minify.M, srcDirs []string, outDir string) (Stats, error) {
	var stats Stats
	for _, dir := range srcDirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			dst := filepath.Join(outDir, path)
			if _, ok := mediaTypes[strings.ToLower(filepath.Ext(path))]; !ok {
				return copyFile(path, dst)
			}
			before, err := os.Stat(path)
			if err != nil {
				return err
			}
			after, err := minifyFile(m, path, dst)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			stats.Files++
			stats.Before += int(before.Size())
			stats.After += after
			return nil
		})
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// minifyFile minifies srcPath into dstPath and returns the minified size.
func minifyFile(m *minify.M, srcPath, dstPath string) (int, error) {
	mediaType, ok := mediaTypes[strings.ToLower(filepath.Ext(srcPath))]
	if !ok {
		return 0, fmt.Errorf("unsupported file type: %s", filepath.Ext(srcPath))
	}
	src, err := os.ReadFile(srcPath)
	if err != nil {
		return 0, err
	}
	minified, err := m.Bytes(mediaType, src)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(dstPath, minified, 0644); err != nil {
		return 0, err
	}
	if len(src) > 0 {
		ratio := float64(len(src)-len(minified)) / float64(len(src)) * 100
		fmt.Printf("%s: %d bytes → %d bytes (%.1f%% reduction)\n", srcPath, len(src), len(minified), ratio)
	}
	return len(minified), nil
}

func copyFile(srcPath, dstPath string) error {
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return err
	}
	return os.WriteFile(dstPath, data, 0644)
}
