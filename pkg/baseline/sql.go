package baseline

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/agentstation/motherdb/pkg/errors"
)

var (
	_ Store     = (*SQLStore)(nil)
	_ Registrar = (*SQLStore)(nil)
)

// schema works on both PostgreSQL and SQLite.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS equipment_types (
		id            TEXT PRIMARY KEY,
		registered_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS baseline_parameters (
		equipment_type_id TEXT NOT NULL,
		parameter_name    TEXT NOT NULL,
		value             TEXT NOT NULL,
		confidence        DOUBLE PRECISION NOT NULL,
		min_spec          DOUBLE PRECISION,
		max_spec          DOUBLE PRECISION,
		updated_at        TIMESTAMP NOT NULL,
		PRIMARY KEY (equipment_type_id, parameter_name)
	)`,
}

const (
	registerQuery = `INSERT INTO equipment_types (id, registered_at) VALUES (?, ?)
		ON CONFLICT (id) DO NOTHING`

	registeredQuery = `SELECT COUNT(*) FROM equipment_types WHERE id = ?`

	selectQuery = `SELECT parameter_name, value, confidence, min_spec, max_spec, updated_at
		FROM baseline_parameters WHERE equipment_type_id = ?`

	upsertQuery = `INSERT INTO baseline_parameters
		(equipment_type_id, parameter_name, value, confidence, min_spec, max_spec, updated_at)
		VALUES (:equipment_type_id, :parameter_name, :value, :confidence, :min_spec, :max_spec, :updated_at)
		ON CONFLICT (equipment_type_id, parameter_name) DO UPDATE SET
			value = excluded.value,
			confidence = excluded.confidence,
			min_spec = excluded.min_spec,
			max_spec = excluded.max_spec,
			updated_at = excluded.updated_at`
)

// row is an Entry bound to its equipment type.
type row struct {
	EquipmentTypeID string `db:"equipment_type_id"`
	Entry
}

// SQLStore keeps baselines in a SQL database through sqlx. The driver must
// be registered by the caller (lib/pq as "postgres", go-sqlite3 as "sqlite3").
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open database.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// OpenSQLStore opens a database and creates the schema.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.WrapPersistence("connect", driver, err)
	}
	s := NewSQLStore(db)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// DB returns the underlying database handle.
func (s *SQLStore) DB() *sqlx.DB {
	return s.db
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// Migrate creates the baseline tables if they do not exist.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.WrapPersistence("migrate", "", err)
		}
	}
	return nil
}

// Register implements Registrar.
func (s *SQLStore) Register(ctx context.Context, equipmentTypeID string) error {
	if err := validateID(equipmentTypeID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(registerQuery), equipmentTypeID, time.Now().UTC())
	return errors.WrapPersistence("register", equipmentTypeID, err)
}

// Registered implements Store.
func (s *SQLStore) Registered(ctx context.Context, equipmentTypeID string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.db.Rebind(registeredQuery), equipmentTypeID); err != nil {
		return false, errors.WrapPersistence("get", equipmentTypeID, err)
	}
	return n > 0, nil
}

// GetExisting implements Store.
func (s *SQLStore) GetExisting(ctx context.Context, equipmentTypeID string) (map[string]Entry, error) {
	var entries []Entry
	if err := s.db.SelectContext(ctx, &entries, s.db.Rebind(selectQuery), equipmentTypeID); err != nil {
		return nil, errors.WrapPersistence("get", equipmentTypeID, err)
	}
	return Index(entries), nil
}

// Save implements Store. Entries are upserted in one transaction and the
// equipment type is registered alongside them.
func (s *SQLStore) Save(ctx context.Context, equipmentTypeID string, entries []Entry) error {
	if err := validateID(equipmentTypeID); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WrapPersistence("save", equipmentTypeID, err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, tx.Rebind(registerQuery), equipmentTypeID, now); err != nil {
		return errors.WrapPersistence("save", equipmentTypeID, err)
	}

	for _, e := range entries {
		if e.UpdatedAt.IsZero() {
			e.UpdatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, upsertQuery, row{EquipmentTypeID: equipmentTypeID, Entry: e}); err != nil {
			perr := errors.NewPersistenceError("save", equipmentTypeID, err)
			perr.Parameters = []string{e.ParameterName}
			return perr
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapPersistence("save", equipmentTypeID, err)
	}
	return nil
}
