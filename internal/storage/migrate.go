package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schema drives the snapshot migrations. It owns its own connection since
// the migrate driver closes the database it was given.
type schema struct {
	m *migrate.Migrate
}

func openSchema(dbPath string) (*schema, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open schema connection: %w", err)
	}
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite migrate driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("embedded migrations: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return &schema{m: m}, nil
}

func (s *schema) close() error {
	srcErr, dbErr := s.m.Close()
	return errors.Join(srcErr, dbErr)
}

// version returns 0 for a database no migration has touched.
func (s *schema) version() (uint, bool, error) {
	v, dirty, err := s.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// up applies pending migrations. A dirty version, left by an interrupted
// run, is rolled back one step and reapplied: every migration is written
// with IF NOT EXISTS, and the data is only a cache.
func (s *schema) up() error {
	v, dirty, err := s.version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		slog.Warn("Snapshot schema left dirty, reapplying", "version", v)
		if err := s.m.Force(int(v) - 1); err != nil {
			return fmt.Errorf("reset dirty version %d: %w", v, err)
		}
	}
	if err := s.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// RunMigrations brings the snapshot schema at dbPath up to date and
// returns the resulting version.
func RunMigrations(dbPath string) (uint, error) {
	s, err := openSchema(dbPath)
	if err != nil {
		return 0, err
	}
	defer s.close()

	if err := s.up(); err != nil {
		return 0, fmt.Errorf("migrate snapshot schema: %w", err)
	}
	v, _, err := s.version()
	return v, err
}

// SchemaVersion reports the applied version at dbPath and whether the last
// migration was interrupted.
func SchemaVersion(dbPath string) (version uint, dirty bool, err error) {
	s, err := openSchema(dbPath)
	if err != nil {
		return 0, false, err
	}
	defer s.close()
	return s.version()
}
