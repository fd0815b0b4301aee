// Package ingest discovers freight paperwork on disk: page images to send
// for extraction and raw page JSON to normalize offline.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/freight-reader/constants"
)

// ImageExts are the page image extensions accepted for extraction.
var ImageExts = extSet(keys(constants.ContentTypeByExt)...)

// RawPageExts are the extensions read as raw page JSON.
var RawPageExts = extSet("json")

type FileResult struct {
	Path string
	ID   string
	Err  string
}

type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// HandleFunc processes one matched file and returns an identifier for the
// result summary.
type HandleFunc func(ctx context.Context, path string) (string, error)

// ScanDirectory walks root in lexical order, keeps files whose extension is
// in exts, skips hidden entries when asked, and calls handle for each match.
// A failing file is recorded and the walk continues.
func ScanDirectory(ctx context.Context, root string, exts map[string]struct{}, skipHidden bool, handle HandleFunc) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !Allowed(path, exts) {
			return nil
		}
		stats.Matched++

		id, err := handle(ctx, path)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}
		results = append(results, FileResult{Path: path, ID: id})
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// Allowed reports whether path has one of exts.
func Allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

func extSet(exts ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		if e = constants.NormalizeExt(strings.TrimSpace(e)); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
