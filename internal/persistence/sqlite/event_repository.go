package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/NTMQuannuaQMTN/sizzl-prototype-sub000/internal/persistence"
)

const eventColumns = `e.id, e.host_id, e.slug, e.title, e.bio, e.image_url, e.is_public, e.status, e.starts_at, e.ends_at,
	e.rsvp_deadline, e.location_name, e.location_address, e.latitude, e.longitude, e.reminder_sent_at,
	e.created_at, e.updated_at`

// EventRepository implements persistence.EventRepository using SQLite
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEvent inserts the event with its cohosts and perks in one transaction.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || event.HostID == "" || event.Slug == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(ctx, tx, `
			INSERT INTO events (id, host_id, slug, title, bio, image_url, is_public, status, starts_at, ends_at,
				rsvp_deadline, location_name, location_address, latitude, longitude, reminder_sent_at,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			event.ID,
			event.HostID,
			event.Slug,
			event.Title,
			event.Bio,
			event.ImageURL,
			event.Public,
			event.Status,
			formatTime(event.StartsAt),
			nullTime(event.EndsAt),
			nullTime(event.RSVPDeadline),
			event.LocationName,
			event.LocationAddress,
			nullFloat(event.Latitude),
			nullFloat(event.Longitude),
			nullTime(event.ReminderSentAt),
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return r.replaceChildren(ctx, tx, event)
	})
}

// UpdateEvent rewrites the mutable event fields and replaces cohosts and perks.
// Host, slug and creation time never change.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE events
			SET title = ?, bio = ?, image_url = ?, is_public = ?, status = ?, starts_at = ?, ends_at = ?,
				rsvp_deadline = ?, location_name = ?, location_address = ?, latitude = ?, longitude = ?,
				reminder_sent_at = ?, updated_at = ?
			WHERE id = ?
		`,
			event.Title,
			event.Bio,
			event.ImageURL,
			event.Public,
			event.Status,
			formatTime(event.StartsAt),
			nullTime(event.EndsAt),
			nullTime(event.RSVPDeadline),
			event.LocationName,
			event.LocationAddress,
			nullFloat(event.Latitude),
			nullFloat(event.Longitude),
			nullTime(event.ReminderSentAt),
			formatTime(event.UpdatedAt),
			event.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}

		for _, stmt := range []string{
			`DELETE FROM event_cohosts WHERE event_id = ?`,
			`DELETE FROM event_perks WHERE event_id = ?`,
		} {
			if _, err := r.helper.ExecTx(ctx, tx, stmt, event.ID); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return r.replaceChildren(ctx, tx, event)
	})
}

func (r *EventRepository) replaceChildren(ctx context.Context, tx *sql.Tx, event persistence.Event) error {
	for i, cohost := range event.Cohosts {
		if _, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO event_cohosts (event_id, position, user_id, label) VALUES (?, ?, ?, ?)`,
			event.ID, i, nullString(cohost.UserID), cohost.Label,
		); err != nil {
			return r.mapper.MapError(err)
		}
	}
	for _, perk := range event.Perks {
		if _, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO event_perks (event_id, kind, detail) VALUES (?, ?, ?)`,
			event.ID, perk.Kind, perk.Detail,
		); err != nil {
			return r.mapper.MapError(err)
		}
	}
	return nil
}

// GetEvent retrieves an event by ID with cohosts and perks
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	return r.getOne(ctx, `e.id = ?`, id)
}

// GetEventBySlug retrieves an event by its share slug
func (r *EventRepository) GetEventBySlug(ctx context.Context, slug string) (persistence.Event, error) {
	return r.getOne(ctx, `e.slug = ?`, strings.ToLower(strings.TrimSpace(slug)))
}

func (r *EventRepository) getOne(ctx context.Context, condition string, arg string) (persistence.Event, error) {
	if arg == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}
	events, err := r.query(ctx, `SELECT `+eventColumns+` FROM events e WHERE `+condition, arg)
	if err != nil {
		return persistence.Event{}, err
	}
	if len(events) == 0 {
		return persistence.Event{}, persistence.ErrNotFound
	}
	return events[0], nil
}

// DeleteEvent removes an event. Cohosts, perks, RSVPs, invitations and
// notifications referencing it cascade.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	result, err := r.helper.Exec(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// ListEvents returns the events related to filter.UserID in the requested way,
// ordered by start time. Each relation resolves in one joined query.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	query, args, err := buildEventListQuery(filter)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, query, args...)
}

func buildEventListQuery(filter persistence.EventFilter) (string, []any, error) {
	var (
		joins      string
		conditions []string
		args       []any
	)

	switch filter.Relation {
	case persistence.RelationHosting:
		conditions = append(conditions, `e.host_id = ?`, `e.status = 'published'`)
		args = append(args, filter.UserID)
	case persistence.RelationDrafts:
		conditions = append(conditions, `e.host_id = ?`, `e.status = 'draft'`)
		args = append(args, filter.UserID)
	case persistence.RelationCohosting:
		joins = `JOIN event_cohosts c ON c.event_id = e.id AND c.user_id = ?`
		conditions = append(conditions, `e.status = 'published'`)
		args = append(args, filter.UserID)
	case persistence.RelationAttending:
		joins = `JOIN rsvps rv ON rv.event_id = e.id AND rv.user_id = ? AND rv.status IN ('going', 'maybe')`
		conditions = append(conditions, `e.status = 'published'`)
		args = append(args, filter.UserID)
	case persistence.RelationInvited:
		joins = `JOIN invitations i ON i.event_id = e.id AND i.invitee_id = ? AND i.status = 'pending'`
		conditions = append(conditions, `e.status = 'published'`)
		args = append(args, filter.UserID)
	case persistence.RelationDiscover:
		conditions = append(conditions, `e.status = 'published'`, `e.is_public = 1`)
	default:
		return "", nil, fmt.Errorf("%w: unknown relation %q", persistence.ErrConstraintViolation, filter.Relation)
	}

	if filter.StartsAfter != nil {
		conditions = append(conditions, `e.starts_at >= ?`)
		args = append(args, formatTime(*filter.StartsAfter))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, `e.starts_at < ?`)
		args = append(args, formatTime(*filter.StartsBefore))
	}

	query := `SELECT ` + eventColumns + ` FROM events e ` + joins +
		` WHERE ` + strings.Join(conditions, " AND ") +
		` ORDER BY e.starts_at ASC, e.id ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return query, args, nil
}

// DueReminders returns published events whose RSVP deadline lies in (after, until]
// and that have not been reminded yet.
func (r *EventRepository) DueReminders(ctx context.Context, after, until time.Time) ([]persistence.Event, error) {
	return r.query(ctx, `
		SELECT `+eventColumns+`
		FROM events e
		WHERE e.status = 'published'
		  AND e.reminder_sent_at IS NULL
		  AND e.rsvp_deadline IS NOT NULL
		  AND e.rsvp_deadline > ?
		  AND e.rsvp_deadline <= ?
		ORDER BY e.rsvp_deadline ASC, e.id ASC
	`, formatTime(after), formatTime(until))
}

// MarkReminderSent records that RSVP reminders went out for the event.
func (r *EventRepository) MarkReminderSent(ctx context.Context, eventID string, sentAt time.Time) error {
	result, err := r.helper.Exec(ctx, `UPDATE events SET reminder_sent_at = ? WHERE id = ?`, formatTime(sentAt), eventID)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// query runs an event select and attaches cohosts and perks with one extra
// query each for the whole result set.
func (r *EventRepository) query(ctx context.Context, query string, args ...any) ([]persistence.Event, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	if len(events) == 0 {
		return events, nil
	}

	index := make(map[string]int, len(events))
	ids := make([]any, len(events))
	for i, event := range events {
		index[event.ID] = i
		ids[i] = event.ID
	}

	if err := r.attachCohosts(ctx, events, index, ids); err != nil {
		return nil, err
	}
	if err := r.attachPerks(ctx, events, index, ids); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) attachCohosts(ctx context.Context, events []persistence.Event, index map[string]int, ids []any) error {
	rows, err := r.helper.Query(ctx, `
		SELECT event_id, user_id, label
		FROM event_cohosts
		WHERE event_id IN (`+placeholders(len(ids))+`)
		ORDER BY event_id, position
	`, ids...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			userID  sql.NullString
			cohost  persistence.Cohost
		)
		if err := rows.Scan(&eventID, &userID, &cohost.Label); err != nil {
			return r.mapper.MapError(err)
		}
		cohost.UserID = stringPtr(userID)
		i := index[eventID]
		events[i].Cohosts = append(events[i].Cohosts, cohost)
	}
	return r.mapper.MapError(rows.Err())
}

func (r *EventRepository) attachPerks(ctx context.Context, events []persistence.Event, index map[string]int, ids []any) error {
	rows, err := r.helper.Query(ctx, `
		SELECT event_id, kind, detail
		FROM event_perks
		WHERE event_id IN (`+placeholders(len(ids))+`)
		ORDER BY event_id, kind
	`, ids...)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			perk    persistence.Perk
		)
		if err := rows.Scan(&eventID, &perk.Kind, &perk.Detail); err != nil {
			return r.mapper.MapError(err)
		}
		i := index[eventID]
		events[i].Perks = append(events[i].Perks, perk)
	}
	return r.mapper.MapError(rows.Err())
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event                            persistence.Event
		startsAt, createdAt, updatedAt   string
		endsAt, rsvpDeadline, reminderAt sql.NullString
		latitude, longitude              sql.NullFloat64
	)
	if err := row.Scan(
		&event.ID,
		&event.HostID,
		&event.Slug,
		&event.Title,
		&event.Bio,
		&event.ImageURL,
		&event.Public,
		&event.Status,
		&startsAt,
		&endsAt,
		&rsvpDeadline,
		&event.LocationName,
		&event.LocationAddress,
		&latitude,
		&longitude,
		&reminderAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Event{}, err
	}

	event.Latitude = floatPtr(latitude)
	event.Longitude = floatPtr(longitude)

	var err error
	if event.StartsAt, err = parseTime(startsAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse starts_at: %w", err)
	}
	if event.EndsAt, err = parseNullTime(endsAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse ends_at: %w", err)
	}
	if event.RSVPDeadline, err = parseNullTime(rsvpDeadline); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse rsvp_deadline: %w", err)
	}
	if event.ReminderSentAt, err = parseNullTime(reminderAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse reminder_sent_at: %w", err)
	}
	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Event{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return event, nil
}
