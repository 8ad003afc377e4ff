package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"formc/internal/config"
	"formc/internal/formfile"
)

// collectFormFiles expands directories in args into the form files below
// them. Explicit file arguments are kept whatever their extension; the
// result is deduplicated and sorted.
func collectFormFiles(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no input files")
	}
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, arg := range args {
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", arg, err)
		}
		if !st.IsDir() {
			add(arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != arg && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Name() == config.FileName {
				return nil
			}
			if formfile.DetectFormat(path) != formfile.FormatUnknown {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", arg, err)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no form files found in %v", args)
	}
	slices.Sort(files)
	return files, nil
}
