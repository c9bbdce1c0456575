package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

const invitationColumns = `i.id, i.code, i.event_id, i.inviter_id, i.invitee_id, i.status, i.created_at, i.responded_at,
	e.title, e.starts_at`

// InvitationRepository implements persistence.InvitationRepository using SQLite
type InvitationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewInvitationRepository creates a new SQLite invitation repository
func NewInvitationRepository(pool *ConnectionPool) *InvitationRepository {
	return &InvitationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateInvitation stores a pending invitation. Inviting the same user twice
// returns persistence.ErrDuplicate.
func (r *InvitationRepository) CreateInvitation(ctx context.Context, invitation persistence.Invitation) error {
	if invitation.ID == "" || invitation.Code == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.helper.Exec(ctx, `
		INSERT INTO invitations (id, code, event_id, inviter_id, invitee_id, status, created_at, responded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		invitation.ID,
		invitation.Code,
		invitation.EventID,
		invitation.InviterID,
		invitation.InviteeID,
		invitation.Status,
		formatTime(invitation.CreatedAt),
		nullTime(invitation.RespondedAt),
	)
	return r.mapper.MapError(err)
}

// GetInvitationByCode resolves a share code
func (r *InvitationRepository) GetInvitationByCode(ctx context.Context, code string) (persistence.Invitation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return persistence.Invitation{}, persistence.ErrNotFound
	}
	row := r.helper.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.code = ?
	`, code)
	invitation, err := scanInvitation(row)
	if err != nil {
		return persistence.Invitation{}, r.mapper.MapError(err)
	}
	return invitation, nil
}

// GetInvitationForUser returns the invitation of userID to eventID
func (r *InvitationRepository) GetInvitationForUser(ctx context.Context, eventID, userID string) (persistence.Invitation, error) {
	row := r.helper.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.event_id = ? AND i.invitee_id = ?
	`, eventID, userID)
	invitation, err := scanInvitation(row)
	if err != nil {
		return persistence.Invitation{}, r.mapper.MapError(err)
	}
	return invitation, nil
}

// UpdateInvitationStatus records the invitee's answer
func (r *InvitationRepository) UpdateInvitationStatus(ctx context.Context, id, status string, respondedAt time.Time) error {
	result, err := r.helper.Exec(ctx,
		`UPDATE invitations SET status = ?, responded_at = ? WHERE id = ?`,
		status, formatTime(respondedAt), id,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// ListInvitationsForUser lists invitations addressed to userID, soonest event first.
func (r *InvitationRepository) ListInvitationsForUser(ctx context.Context, userID string) ([]persistence.Invitation, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM invitations i
		JOIN events e ON e.id = i.event_id
		WHERE i.invitee_id = ? AND e.status = 'published'
		ORDER BY e.starts_at ASC, i.id ASC
	`, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var invitations []persistence.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		invitations = append(invitations, invitation)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return invitations, nil
}

// ListUnrespondedInvitees returns invitees of eventID who neither answered the
// invitation nor RSVPed.
func (r *InvitationRepository) ListUnrespondedInvitees(ctx context.Context, eventID string) ([]persistence.User, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.contact_email, u.bio, u.avatar_url,
		       u.needs_profile, u.created_at, u.updated_at
		FROM invitations i
		JOIN users u ON u.id = i.invitee_id
		LEFT JOIN rsvps rv ON rv.event_id = i.event_id AND rv.user_id = i.invitee_id
		WHERE i.event_id = ? AND i.status = 'pending' AND rv.user_id IS NULL
		ORDER BY u.id ASC
	`, eventID)
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

func scanInvitation(row rowScanner) (persistence.Invitation, error) {
	var (
		invitation               persistence.Invitation
		createdAt, eventStartsAt string
		respondedAt              sql.NullString
	)
	if err := row.Scan(
		&invitation.ID,
		&invitation.Code,
		&invitation.EventID,
		&invitation.InviterID,
		&invitation.InviteeID,
		&invitation.Status,
		&createdAt,
		&respondedAt,
		&invitation.EventTitle,
		&eventStartsAt,
	); err != nil {
		return persistence.Invitation{}, err
	}

	var err error
	if invitation.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Invitation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invitation.RespondedAt, err = parseNullTime(respondedAt); err != nil {
		return persistence.Invitation{}, fmt.Errorf("failed to parse responded_at: %w", err)
	}
	if invitation.EventStartsAt, err = parseTime(eventStartsAt); err != nil {
		return persistence.Invitation{}, fmt.Errorf("failed to parse starts_at: %w", err)
	}
	return invitation, nil
}
