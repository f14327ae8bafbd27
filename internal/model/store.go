package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Store persists models in a JSON file.
//
// The file holds a JSON array of models in creation order. A missing file is
// an empty store; the file and its directory are created on the first write.
// Writes go to a temporary file that is renamed over the original, so a crash
// never leaves a truncated store behind.
//
// Store is safe for concurrent use within one process.
type Store struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// List returns every model in creation order.
func (s *Store) List() ([]Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read()
}

// Get returns the model called name.
func (s *Store) Get(name string) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	models, err := s.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(models, name)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return &models[i], nil
}

// Create validates m and appends it to the store.
func (s *Store) Create(m Model) (*Model, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	models, err := s.read()
	if err != nil {
		return nil, err
	}
	if indexOf(models, m.Name) >= 0 {
		return nil, errors.Wrapf(ErrExists, "%q", m.Name)
	}
	models = append(models, m)
	if err := s.write(models); err != nil {
		return nil, err
	}
	return &m, nil
}

// Update applies fn to the model called name and saves the result.
//
// fn may rename the model; renaming onto an existing name fails with
// ErrExists. The updated model is validated before it is written.
func (s *Store) Update(name string, fn func(*Model) error) (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	models, err := s.read()
	if err != nil {
		return nil, err
	}
	i := indexOf(models, name)
	if i < 0 {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}

	updated := models[i]
	updated.AdditionalImages = append([]string(nil), models[i].AdditionalImages...)
	if err := fn(&updated); err != nil {
		return nil, err
	}
	if err := updated.Validate(); err != nil {
		return nil, err
	}
	if updated.Name != name && indexOf(models, updated.Name) >= 0 {
		return nil, errors.Wrapf(ErrExists, "%q", updated.Name)
	}

	models[i] = updated
	if err := s.write(models); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes the model called name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	models, err := s.read()
	if err != nil {
		return err
	}
	i := indexOf(models, name)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}
	return s.write(append(models[:i], models[i+1:]...))
}

// AddImage appends path to the model's additional images. Adding a path that
// is already listed is a no-op.
func (s *Store) AddImage(name, path string) (*Model, error) {
	return s.Update(name, func(m *Model) error {
		if path == "" {
			return errors.Wrap(ErrInvalid, "image path is required")
		}
		for _, p := range m.AdditionalImages {
			if p == path {
				return nil
			}
		}
		m.AdditionalImages = append(m.AdditionalImages, path)
		return nil
	})
}

func (s *Store) read() ([]Model, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []Model{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model store")
	}
	if len(data) == 0 {
		return []Model{}, nil
	}

	var models []Model
	if err := json.Unmarshal(data, &models); err != nil {
		return nil, errors.Wrapf(err, "failed to parse model store %s", s.path)
	}
	return models, nil
}

func (s *Store) write(models []Model) error {
	data, err := json.MarshalIndent(models, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode models")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create model directory")
	}

	tmp, err := os.CreateTemp(dir, ".models-*.json")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary model file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "failed to write models")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "failed to write models")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "failed to replace model store")
}

func indexOf(models []Model, name string) int {
	for i := range models {
		if models[i].Name == name {
			return i
		}
	}
	return -1
}
