package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

const userColumns = `id, email, username, first_name, last_name, contact_email, bio, avatar_url, needs_profile, created_at, updated_at`

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateUser inserts a new user. Email and username collisions return persistence.ErrDuplicate.
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" || strings.TrimSpace(user.Email) == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		user.ID,
		normalizeEmail(user.Email),
		nullString(normalizeUsername(user.Username)),
		user.FirstName,
		user.LastName,
		user.ContactEmail,
		user.Bio,
		user.AvatarURL,
		user.NeedsProfile,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateUser replaces the profile fields of an existing user. The email is immutable.
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	result, err := r.helper.Exec(ctx, `
		UPDATE users
		SET username = ?, first_name = ?, last_name = ?, contact_email = ?, bio = ?, avatar_url = ?,
		    needs_profile = ?, updated_at = ?
		WHERE id = ?
	`,
		nullString(normalizeUsername(user.Username)),
		user.FirstName,
		user.LastName,
		user.ContactEmail,
		user.Bio,
		user.AvatarURL,
		user.NeedsProfile,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by school email, case-insensitively
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	normalized := normalizeEmail(email)
	if normalized == "" {
		return persistence.User{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, normalized)
	user, err := scanUser(row)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}
	return user, nil
}

// SearchUsers returns onboarded users whose username, first name, last name or
// full name starts with query.
func (r *UserRepository) SearchUsers(ctx context.Context, query string, limit int) ([]persistence.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	prefix := escapeLike(strings.TrimPrefix(query, "@")) + "%"

	rows, err := r.helper.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE needs_profile = 0
		  AND (username LIKE ? ESCAPE '\'
		       OR first_name LIKE ? ESCAPE '\'
		       OR last_name LIKE ? ESCAPE '\'
		       OR (first_name || ' ' || last_name) LIKE ? ESCAPE '\')
		ORDER BY username ASC, id ASC
		LIMIT ?
	`, prefix, prefix, prefix, prefix, limit)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var users []persistence.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return users, nil
}

// MissingUserIDs returns the subset of ids with no matching user, in input order.
func (r *UserRepository) MissingUserIDs(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.helper.Query(ctx, `SELECT id FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	found := make(map[string]struct{}, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, r.mapper.MapError(err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (persistence.User, error) {
	var (
		user                 persistence.User
		username             sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&username,
		&user.FirstName,
		&user.LastName,
		&user.ContactEmail,
		&user.Bio,
		&user.AvatarURL,
		&user.NeedsProfile,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.User{}, err
	}
	user.Username = stringPtr(username)

	var err error
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.User{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return user, nil
}

// normalizeEmail normalizes email addresses for consistent storage and lookup
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizeUsername(username *string) *string {
	if username == nil {
		return nil
	}
	normalized := strings.ToLower(strings.TrimSpace(*username))
	if normalized == "" {
		return nil
	}
	return &normalized
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
