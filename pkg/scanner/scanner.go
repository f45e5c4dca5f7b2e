// Package scanner validates an input directory and works out how many image sets it holds.
package scanner

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"gastruloid/internal/logger"
	"gastruloid/internal/models"
)

// DefaultMinFileSize is the size in bytes a file must exceed to count as image data
const DefaultMinFileSize = 5000

const component = "scanner"

// Scan lists the regular files in dir larger than minFileSize, sorted by name, and
// returns floor(count / channels) as the number of image sets.
//
// The set count assumes exactly one file per channel per set and no other large
// files in the directory; it does not check that file names group by suffix.
func Scan(dir string, channels int, minFileSize int64, log logger.Logger) (int, []string, error) {
	if log == nil {
		log = logger.NullLogger{}
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return 0, nil, &models.NotFoundError{Kind: "directory", Name: dir}
	}

	if channels != 3 && channels != 4 {
		return 0, nil, &models.ConfigurationError{Field: "channels", Reason: "number of channels must be 3 or 4"}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, nil, errors.Wrapf(err, "failed to list %s", dir)
	}

	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			return 0, nil, errors.Wrapf(err, "failed to stat %s", filepath.Join(dir, entry.Name()))
		}
		if fi.Size() > minFileSize {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	numSets := len(files) / channels
	if channels == 3 {
		log.Info(component, "Running data analysis for a 3-channel image set", nil)
	}
	log.Info(component, "Found image sets", map[string]interface{}{
		"directory": dir,
		"sets":      numSets,
		"files":     len(files),
	})

	return numSets, files, nil
}
