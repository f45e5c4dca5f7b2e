package fileaccess

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FSAccess implements FileAccess on the local file system
type FSAccess struct {
}

func (a *FSAccess) ListObjects(rootPath string, prefix string) ([]string, error) {
	result := []string{}

	root := filepath.Clean(rootPath)
	fullPath := a.filePath(rootPath, prefix)

	err := filepath.Walk(fullPath, func(pathFound string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(root, pathFound)
			if err != nil {
				return err
			}
			result = append(result, filepath.ToSlash(rel))
		}
		return nil
	})

	sort.Strings(result)
	return result, err
}

func (a *FSAccess) ReadObject(rootPath string, path string) ([]byte, error) {
	return os.ReadFile(a.filePath(rootPath, path))
}

func (a *FSAccess) WriteObject(rootPath string, path string, data []byte) error {
	fullPath := a.filePath(rootPath, path)

	// Ensure any subdirs in between are created
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	return os.WriteFile(fullPath, data, 0644)
}

func (a *FSAccess) ReadJSON(rootPath string, path string, itemsPtr interface{}, emptyIfNotFound bool) error {
	data, err := a.ReadObject(rootPath, path)
	if err != nil {
		if emptyIfNotFound && a.IsNotFoundError(err) {
			return nil
		}
		return err
	}

	return json.Unmarshal(data, itemsPtr)
}

func (a *FSAccess) WriteJSON(rootPath string, path string, itemsPtr interface{}) error {
	data, err := json.MarshalIndent(itemsPtr, "", jsonIndent)
	if err != nil {
		return errors.Wrap(err, "failed to marshal JSON")
	}

	return a.WriteObject(rootPath, path, data)
}

func (a *FSAccess) MakeDir(rootPath string, path string) error {
	return os.MkdirAll(a.filePath(rootPath, path), 0755)
}

func (a *FSAccess) IsNotFoundError(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func (a *FSAccess) filePath(rootPath string, path string) string {
	return filepath.Join(rootPath, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}
