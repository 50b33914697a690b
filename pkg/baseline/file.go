package baseline

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/motherdb/pkg/constants"
	"github.com/agentstation/motherdb/pkg/errors"
)

var (
	_ Store     = (*FileStore)(nil)
	_ Registrar = (*FileStore)(nil)
)

// document is the on-disk shape of one equipment type baseline.
type document struct {
	EquipmentTypeID string    `yaml:"equipment_type_id"`
	UpdatedAt       time.Time `yaml:"updated_at"`
	Parameters      []Entry   `yaml:"parameters"`
}

// FileStore keeps one YAML document per equipment type in a directory.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// path maps an ID to its document. Escaping is reversible so distinct IDs
// never share a file, and separators cannot leave the directory.
func (s *FileStore) path(equipmentTypeID string) string {
	return filepath.Join(s.dir, url.PathEscape(equipmentTypeID)+".yaml")
}

// Register writes an empty baseline document if none exists.
func (s *FileStore) Register(ctx context.Context, equipmentTypeID string) error {
	if err := validateID(equipmentTypeID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path(equipmentTypeID)); err == nil {
		return nil
	}
	return s.write(equipmentTypeID, &document{EquipmentTypeID: equipmentTypeID})
}

// Registered implements Store.
func (s *FileStore) Registered(_ context.Context, equipmentTypeID string) (bool, error) {
	_, err := os.Stat(s.path(equipmentTypeID))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.WrapPersistence("get", equipmentTypeID, errors.WrapIO("stat", s.path(equipmentTypeID), err))
	}
}

// GetExisting implements Store.
func (s *FileStore) GetExisting(_ context.Context, equipmentTypeID string) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(equipmentTypeID)
	if err != nil {
		return nil, errors.WrapPersistence("get", equipmentTypeID, err)
	}
	return Index(doc.Parameters), nil
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, equipmentTypeID string, entries []Entry) error {
	if err := validateID(equipmentTypeID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return errors.WrapPersistence("save", equipmentTypeID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(equipmentTypeID)
	if err != nil {
		return errors.WrapPersistence("save", equipmentTypeID, err)
	}

	now := time.Now().UTC()
	current := Index(doc.Parameters)
	for _, e := range entries {
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
		current[e.ParameterName] = e
	}
	doc.EquipmentTypeID = equipmentTypeID
	doc.UpdatedAt = now
	doc.Parameters = Sorted(current)

	if err := s.write(equipmentTypeID, doc); err != nil {
		return errors.WrapPersistence("save", equipmentTypeID, err)
	}
	return nil
}

// read loads a document; a missing file is an empty baseline. Caller holds mu.
func (s *FileStore) read(equipmentTypeID string) (*document, error) {
	path := s.path(equipmentTypeID)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &document{EquipmentTypeID: equipmentTypeID}, nil
	}
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapIO("parse", path, err)
	}
	return &doc, nil
}

// write replaces a document through a temp file and rename. Caller holds mu.
func (s *FileStore) write(equipmentTypeID string, doc *document) error {
	if err := os.MkdirAll(s.dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", s.dir, err)
	}

	data, err := yaml.MarshalWithOptions(doc, yaml.Indent(2), yaml.IndentSequence(false))
	if err != nil {
		return errors.WrapIO("encode", equipmentTypeID, err)
	}

	tmp, err := os.CreateTemp(s.dir, "baseline_*.yaml")
	if err != nil {
		return errors.WrapIO("create", s.dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", tmpPath, err)
	}

	path := s.path(equipmentTypeID)
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("rename", path, err)
	}
	return nil
}
