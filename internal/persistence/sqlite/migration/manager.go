package migration

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
)

// Status summarizes the schema state of a database.
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Manager applies the migrations found in an fs.FS.
type Manager struct {
	source   fs.FS
	dir      string
	executor *Executor
	logger   *slog.Logger
}

// NewManager wires a manager reading migration files from dir within source.
func NewManager(db *sql.DB, source fs.FS, dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		source:   source,
		dir:      dir,
		executor: NewExecutor(db),
		logger:   logger.With("component", "migration"),
	}
}

// Run applies all pending migrations in version order. It stops at the first failure.
func (m *Manager) Run(ctx context.Context) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "schema status",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for i, migration := range status.Pending {
		elapsed, err := m.executor.Apply(ctx, migration)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				"version", migration.Version,
				"file", migration.FilePath,
				"error", err,
			)
			return NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %v", ErrMigrationFailed, err))
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"position", i+1,
			"total", len(status.Pending),
			"duration", elapsed,
		)
	}
	return nil
}

// Status compares the files in the source with the versions recorded in the
// database. A recorded version without a file, or whose checksum changed, is
// an error.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}

	available, err := Scan(m.source, m.dir)
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}

	byVersion := make(map[string]Migration, len(available))
	for _, migration := range available {
		byVersion[migration.Version] = migration
	}

	appliedSet := make(map[string]struct{}, len(applied))
	for _, record := range applied {
		file, ok := byVersion[record.Version]
		if !ok {
			return Status{}, NewMigrationError(record.Version, "", "validate sequence", ErrUnknownVersion)
		}
		if record.Checksum != "" && record.Checksum != file.Checksum {
			return Status{}, NewMigrationError(record.Version, file.FilePath, "validate sequence", ErrChecksumMismatch)
		}
		appliedSet[record.Version] = struct{}{}
	}

	status := Status{Applied: applied}
	if len(applied) > 0 {
		status.CurrentVersion = applied[len(applied)-1].Version
	}
	for _, migration := range available {
		if _, ok := appliedSet[migration.Version]; !ok {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}
