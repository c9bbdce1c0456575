package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// Store bundles the SQLite repositories around one connection pool.
type Store struct {
	*ConnectionPool

	Users         *UserRepository
	Sessions      *SessionRepository
	Events        *EventRepository
	RSVPs         *RSVPRepository
	Invitations   *InvitationRepository
	Notifications *NotificationRepository
}

// Open opens the database file at path with the default configuration.
func Open(path string) (*Store, error) {
	return OpenWithConfig(migration.DefaultSQLiteConfig(path))
}

// OpenWithConfig opens a store using config.
func OpenWithConfig(config migration.SQLiteConfig) (*Store, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Store{
		ConnectionPool: pool,
		Users:          NewUserRepository(pool),
		Sessions:       NewSessionRepository(pool),
		Events:         NewEventRepository(pool),
		RSVPs:          NewRSVPRepository(pool),
		Invitations:    NewInvitationRepository(pool),
		Notifications:  NewNotificationRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	if err := s.migrator(logger).Run(ctx); err != nil {
		return fmt.Errorf("migrate sqlite schema: %w", err)
	}
	return nil
}

// SchemaStatus reports applied and pending migrations.
func (s *Store) SchemaStatus(ctx context.Context) (migration.Status, error) {
	return s.migrator(nil).Status(ctx)
}

func (s *Store) migrator(logger *slog.Logger) *migration.Manager {
	return migration.NewManager(s.DB(), migrationFiles, migrationDir, logger)
}
