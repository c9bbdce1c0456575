package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

// RSVPRepository implements persistence.RSVPRepository using SQLite
type RSVPRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRSVPRepository creates a new SQLite RSVP repository
func NewRSVPRepository(pool *ConnectionPool) *RSVPRepository {
	return &RSVPRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// UpsertRSVP records the response, keeping the original created_at when the
// user already answered.
func (r *RSVPRepository) UpsertRSVP(ctx context.Context, rsvp persistence.RSVP) (persistence.RSVP, error) {
	if rsvp.EventID == "" || rsvp.UserID == "" {
		return persistence.RSVP{}, persistence.ErrConstraintViolation
	}

	row := r.helper.QueryRow(ctx, `
		INSERT INTO rsvps (event_id, user_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (event_id, user_id) DO UPDATE
		SET status = excluded.status, updated_at = excluded.updated_at
		RETURNING event_id, user_id, status, created_at, updated_at
	`,
		rsvp.EventID,
		rsvp.UserID,
		rsvp.Status,
		formatTime(rsvp.CreatedAt),
		formatTime(rsvp.UpdatedAt),
	)
	stored, err := scanRSVP(row)
	if err != nil {
		return persistence.RSVP{}, r.mapper.MapError(err)
	}
	return stored, nil
}

// GetRSVP retrieves the response of one user to one event
func (r *RSVPRepository) GetRSVP(ctx context.Context, eventID, userID string) (persistence.RSVP, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT event_id, user_id, status, created_at, updated_at
		FROM rsvps
		WHERE event_id = ? AND user_id = ?
	`, eventID, userID)
	rsvp, err := scanRSVP(row)
	if err != nil {
		return persistence.RSVP{}, r.mapper.MapError(err)
	}
	return rsvp, nil
}

// DeleteRSVP withdraws a response
func (r *RSVPRepository) DeleteRSVP(ctx context.Context, eventID, userID string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM rsvps WHERE event_id = ? AND user_id = ?`, eventID, userID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// ListGuests joins every response to the event with the responder's profile,
// going first, then maybe, then not going.
func (r *RSVPRepository) ListGuests(ctx context.Context, eventID string) ([]persistence.Guest, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT rv.event_id, rv.user_id, rv.status, rv.created_at, rv.updated_at,
		       u.username, u.first_name, u.last_name, u.avatar_url
		FROM rsvps rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.event_id = ?
		ORDER BY CASE rv.status WHEN 'going' THEN 0 WHEN 'maybe' THEN 1 ELSE 2 END,
		         rv.created_at ASC, rv.user_id ASC
	`, eventID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var guests []persistence.Guest
	for rows.Next() {
		var (
			guest                persistence.Guest
			username             sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(
			&guest.RSVP.EventID,
			&guest.RSVP.UserID,
			&guest.RSVP.Status,
			&createdAt,
			&updatedAt,
			&username,
			&guest.FirstName,
			&guest.LastName,
			&guest.AvatarURL,
		); err != nil {
			return nil, r.mapper.MapError(err)
		}
		guest.Username = stringPtr(username)
		if guest.RSVP.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		if guest.RSVP.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, fmt.Errorf("failed to parse updated_at: %w", err)
		}
		guests = append(guests, guest)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return guests, nil
}

func scanRSVP(row rowScanner) (persistence.RSVP, error) {
	var (
		rsvp                 persistence.RSVP
		createdAt, updatedAt string
	)
	if err := row.Scan(&rsvp.EventID, &rsvp.UserID, &rsvp.Status, &createdAt, &updatedAt); err != nil {
		return persistence.RSVP{}, err
	}

	var err error
	if rsvp.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.RSVP{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if rsvp.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.RSVP{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return rsvp, nil
}
