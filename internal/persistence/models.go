package persistence

import "time"

// User is a student account keyed by school email.
type User struct {
	ID           string
	Email        string
	Username     *string
	FirstName    string
	LastName     string
	ContactEmail string
	Bio          string
	AvatarURL    string
	NeedsProfile bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID          string
	UserID      string
	Token       string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	RevokedAt   *time.Time
}

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
)

// Event is a stored event. All timestamps are absolute.
type Event struct {
	ID              string
	HostID          string
	Slug            string
	Title           string
	Bio             string
	ImageURL        string
	Public          bool
	Status          string
	StartsAt        time.Time
	EndsAt          *time.Time
	RSVPDeadline    *time.Time
	LocationName    string
	LocationAddress string
	Latitude        *float64
	Longitude       *float64
	Cohosts         []Cohost
	Perks           []Perk
	ReminderSentAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Cohost references a registered user or carries a free-text label.
type Cohost struct {
	UserID *string
	Label  string
}

// Perk is an enabled perk on an event.
type Perk struct {
	Kind   string
	Detail string
}

// EventRelation selects how events relate to the requesting user.
type EventRelation string

const (
	RelationHosting   EventRelation = "hosting"
	RelationCohosting EventRelation = "cohosting"
	RelationAttending EventRelation = "attending"
	RelationInvited   EventRelation = "invited"
	RelationDrafts    EventRelation = "drafts"
	RelationDiscover  EventRelation = "discover"
)

// EventFilter narrows event listings.
type EventFilter struct {
	UserID       string
	Relation     EventRelation
	StartsAfter  *time.Time
	StartsBefore *time.Time
	Limit        int
}

const (
	RSVPGoing    = "going"
	RSVPMaybe    = "maybe"
	RSVPNotGoing = "not_going"
)

// RSVP is a user's response to an event.
type RSVP struct {
	EventID   string
	UserID    string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Guest is an RSVP joined with the responding user's public fields.
type Guest struct {
	RSVP      RSVP
	Username  *string
	FirstName string
	LastName  string
	AvatarURL string
}

const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// Invitation invites one user to one event.
type Invitation struct {
	ID            string
	Code          string
	EventID       string
	InviterID     string
	InviteeID     string
	Status        string
	CreatedAt     time.Time
	RespondedAt   *time.Time
	EventTitle    string
	EventStartsAt time.Time
}

const (
	NotificationInvitation   = "invitation"
	NotificationRSVPReminder = "rsvp_reminder"
	NotificationCohostAdded  = "cohost_added"
)

// Notification is an in-app message for a user.
type Notification struct {
	ID        string
	UserID    string
	Kind      string
	EventID   *string
	ActorID   *string
	Message   string
	CreatedAt time.Time
	ReadAt    *time.Time
}
