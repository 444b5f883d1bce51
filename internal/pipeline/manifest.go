package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/fracture/internal/outline"
)

// ReadManifest parses a CSV manifest with a header row naming the columns
// path, start, end and output. Only path is required. Relative paths are
// resolved against baseDir. Blank cells take their value from defaults.
func ReadManifest(r io.Reader, baseDir string, defaults outline.Window) ([]Input, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	reader.Comment = '#'

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("manifest is empty")
	}

	cols := map[string]int{}
	for i, h := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["path"]; !ok {
		return nil, errors.New(`manifest header must include a "path" column`)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var inputs []Input
	for n, row := range records[1:] {
		line := n + 2 // 1-indexed, after header
		path := cell(row, "path")
		if path == "" {
			continue
		}

		w := defaults
		if v := cell(row, "start"); v != "" {
			if w.Start, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("manifest line %d: bad start %q", line, v)
			}
		}
		if v := cell(row, "end"); v != "" {
			if w.End, err = strconv.Atoi(v); err != nil {
				return nil, fmt.Errorf("manifest line %d: bad end %q", line, v)
			}
		}
		if err := w.Validate(); err != nil {
			return nil, fmt.Errorf("manifest line %d: %w", line, err)
		}

		in := Input{Path: resolve(baseDir, path), Window: w}
		if out := cell(row, "output"); out != "" {
			in.OutputDir = resolve(baseDir, out)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// LoadManifest reads a manifest file, resolving relative paths against the
// file's directory.
func LoadManifest(path string, defaults outline.Window) ([]Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f, filepath.Dir(path), defaults)
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}
