package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"sliceview/pkg/backend"
)

// isDICOM reports whether name carries a DICOM file extension.
func isDICOM(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".dcm" || ext == ".dicom"
}

// collectFiles reads every DICOM file named by paths. Directories are walked
// recursively and only .dcm/.dicom files inside them are taken; files named
// explicitly are always read. The result is sorted by path.
func collectFiles(paths []string) ([]backend.File, error) {
	var found []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("error reading input: %w", err)
		}
		if !info.IsDir() {
			found = append(found, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && isDICOM(d.Name()) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error scanning %s: %w", root, err)
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("no DICOM files found in %s", strings.Join(paths, ", "))
	}
	sort.Strings(found)

	files := make([]backend.File, 0, len(found))
	for _, path := range found {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading %s: %w", path, err)
		}
		files = append(files, backend.File{Name: filepath.Base(path), Data: data})
	}
	return files, nil
}
