package profilestore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gastruloid/internal/models"
)

const profileExt = ".yaml"

// YAMLStore keeps one <name>.yaml file per profile in a directory
type YAMLStore struct {
	dir string
}

// NewYAMLStore creates a store rooted at dir. The directory is created on first write.
func NewYAMLStore(dir string) *YAMLStore {
	return &YAMLStore{dir: dir}
}

func (s *YAMLStore) path(name string) string {
	return filepath.Join(s.dir, name+profileExt)
}

func (s *YAMLStore) Create(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.Wrap(err, "error creating profile directory")
	}

	err := createExclusive(s.path(p.Name), func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(p); err != nil {
			return err
		}
		return enc.Close()
	})
	if errors.Is(err, fs.ErrExist) {
		return errors.Wrap(ErrProfileExists, p.Name)
	}
	return err
}

// createExclusive creates path, failing if it exists, and fills it through write.
// A failed write or close removes the file so the name can be used again.
func createExclusive(path string, write func(w io.Writer) error) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrap(err, "error creating profile file")
	}

	if err := write(file); err != nil {
		file.Close()
		os.Remove(path)
		return errors.Wrap(err, "error writing profile file")
	}
	if err := file.Close(); err != nil {
		os.Remove(path)
		return errors.Wrap(err, "error closing profile file")
	}
	return nil
}

func (s *YAMLStore) Get(ctx context.Context, name string) (*models.Profile, error) {
	data, err := os.ReadFile(s.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, errors.Wrap(err, "error reading profile file")
	}

	p := &models.Profile{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, errors.Wrapf(err, "error parsing profile %s", name)
	}
	if p.Name == "" {
		p.Name = name
	}
	return p, nil
}

func (s *YAMLStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "error listing profiles")
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), profileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), profileExt))
	}
	sort.Strings(names)
	return names, nil
}
