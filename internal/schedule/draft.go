package schedule

import (
	"strings"
	"time"
)

// State is the position of a Draft in its submit flow.
type State int

const (
	StateEditing State = iota
	StateConfirming
	StatePublished
	StateDrafted
	StateDiscarded
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateConfirming:
		return "confirming"
	case StatePublished:
		return "published"
	case StateDrafted:
		return "drafted"
	case StateDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Cohost is either a registered user (UserID set) or a free-text label.
type Cohost struct {
	UserID string
	Label  string
}

// IsUser reports whether the cohost references a registered user.
func (c Cohost) IsUser() bool { return c.UserID != "" }

func (c Cohost) key() string {
	if c.IsUser() {
		return "user:" + c.UserID
	}
	return "label:" + strings.ToLower(c.Label)
}

// Location describes where an event happens.
type Location struct {
	Name    string
	Address string
	Coords  *Coordinates
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// PerkKind names one of the independent perk toggles.
type PerkKind string

const (
	PerkCashPrize  PerkKind = "cash_prize"
	PerkFreeFood   PerkKind = "free_food"
	PerkFreeDrinks PerkKind = "free_drinks"
	PerkFreeMerch  PerkKind = "free_merch"
	PerkGiveaway   PerkKind = "giveaway"
)

var perkOrder = []PerkKind{PerkCashPrize, PerkFreeFood, PerkFreeDrinks, PerkFreeMerch, PerkGiveaway}

// PerkKinds lists the known perks in display order.
func PerkKinds() []PerkKind {
	return append([]PerkKind(nil), perkOrder...)
}

// Valid reports whether k is a known perk.
func (k PerkKind) Valid() bool {
	for _, known := range perkOrder {
		if k == known {
			return true
		}
	}
	return false
}

// Perk is an enabled perk with its optional detail text.
type Perk struct {
	Kind   PerkKind
	Detail string
}

// Submission is the flat record handed to persistence. The schedule and the
// RSVP deadline are absolute timestamps.
type Submission struct {
	Title        string
	Public       bool
	Image        string
	Start        time.Time
	End          *time.Time
	RSVPDeadline *time.Time
	Cohosts      []Cohost
	Location     Location
	Bio          string
	Perks        []Perk
	Final        bool
}

// Draft holds one event being authored. It is single-owner mutable state.
type Draft struct {
	now   func() time.Time
	state State

	title        string
	public       bool
	image        string
	schedule     EventSchedule
	span         Span
	dateChosen   bool
	rsvpDeadline *time.Time
	cohosts      []Cohost
	location     Location
	bio          string
	perks        map[PerkKind]string

	// livePublished marks a reopened published event whose span has not been changed.
	livePublished bool
}

// NewDraft starts an editing session with the default schedule. now defaults to time.Now.
func NewDraft(now func() time.Time) *Draft {
	if now == nil {
		now = time.Now
	}
	return &Draft{
		now:      now,
		state:    StateEditing,
		public:   true,
		schedule: DefaultSchedule(now()),
		perks:    make(map[PerkKind]string),
	}
}

// DraftFromSubmission reopens a saved event for editing. A published
// submission keeps its start: Publish re-checks it only after SetSchedule.
func DraftFromSubmission(sub Submission, now func() time.Time) *Draft {
	d := NewDraft(now)
	d.title = sub.Title
	d.public = sub.Public
	d.image = sub.Image
	d.location = sub.Location
	d.bio = sub.Bio
	if !sub.Start.IsZero() {
		span := Span{Start: sub.Start}
		if sub.End != nil {
			span.End = *sub.End
			span.HasEnd = true
		}
		d.span = span
		d.schedule = ScheduleFromSpan(span)
		d.dateChosen = true
		d.livePublished = sub.Final
	}
	if sub.RSVPDeadline != nil {
		deadline := *sub.RSVPDeadline
		d.rsvpDeadline = &deadline
	}
	for _, c := range sub.Cohosts {
		_ = d.AddCohost(c)
	}
	for _, p := range sub.Perks {
		if p.Kind.Valid() {
			d.perks[p.Kind] = strings.TrimSpace(p.Detail)
		}
	}
	return d
}

func (d *Draft) State() State { return d.state }

func (d *Draft) Title() string { return d.title }

func (d *Draft) Public() bool { return d.public }

func (d *Draft) Image() string { return d.image }

// Schedule returns the last committed selection, or the default one before any commit.
func (d *Draft) Schedule() EventSchedule { return d.schedule }

// DateChosen reports whether a schedule has passed validation.
func (d *Draft) DateChosen() bool { return d.dateChosen }

func (d *Draft) Location() Location { return d.location }

func (d *Draft) Bio() string { return d.bio }

func (d *Draft) Cohosts() []Cohost { return append([]Cohost(nil), d.cohosts...) }

// Span returns the committed schedule. ok is false until a schedule passed validation.
func (d *Draft) Span() (Span, bool) {
	return d.span, d.dateChosen
}

// RSVPDeadline returns the deadline if one is set.
func (d *Draft) RSVPDeadline() (time.Time, bool) {
	if d.rsvpDeadline == nil {
		return time.Time{}, false
	}
	return *d.rsvpDeadline, true
}

// RSVPWindow is the range the RSVP picker offers. ok is false until a schedule is committed.
func (d *Draft) RSVPWindow() (Window, bool) {
	if !d.dateChosen {
		return Window{}, false
	}
	return WindowFor(d.span.Start).NotBefore(d.now()), true
}

// Perks returns the enabled perks in display order.
func (d *Draft) Perks() []Perk {
	out := make([]Perk, 0, len(d.perks))
	for _, kind := range perkOrder {
		if detail, ok := d.perks[kind]; ok {
			out = append(out, Perk{Kind: kind, Detail: detail})
		}
	}
	return out
}

func (d *Draft) editable() error {
	if d.state != StateEditing {
		return ErrInvalidTransition
	}
	return nil
}

func (d *Draft) SetTitle(title string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.title = title
	return nil
}

func (d *Draft) SetPublic(public bool) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.public = public
	return nil
}

func (d *Draft) SetImage(ref string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.image = strings.TrimSpace(ref)
	return nil
}

func (d *Draft) SetLocation(loc Location) error {
	if err := d.editable(); err != nil {
		return err
	}
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Address = strings.TrimSpace(loc.Address)
	d.location = loc
	return nil
}

func (d *Draft) SetBio(bio string) error {
	if err := d.editable(); err != nil {
		return err
	}
	d.bio = bio
	return nil
}

// SetSchedule validates s against the current time and commits it. On
// failure the committed schedule is left untouched. A set RSVP deadline that
// no longer fits the new start is cleared.
func (d *Draft) SetSchedule(s EventSchedule) error {
	if err := d.editable(); err != nil {
		return err
	}
	now := d.now()
	span, err := ValidateSchedule(s, now)
	if err != nil {
		return err
	}
	d.schedule = s
	d.span = span
	d.dateChosen = true
	d.livePublished = false
	if d.rsvpDeadline != nil && WindowFor(span.Start).NotBefore(now).Check(*d.rsvpDeadline) != nil {
		d.rsvpDeadline = nil
	}
	return nil
}

// SetRSVPDeadline sets the deadline when it lies within RSVPWindow.
func (d *Draft) SetRSVPDeadline(deadline time.Time) error {
	if err := d.editable(); err != nil {
		return err
	}
	window, ok := d.RSVPWindow()
	if !ok {
		return ErrRSVPDeadlineOutOfWindow
	}
	if err := window.Check(deadline); err != nil {
		return err
	}
	d.rsvpDeadline = &deadline
	return nil
}

func (d *Draft) ClearRSVPDeadline() error {
	if err := d.editable(); err != nil {
		return err
	}
	d.rsvpDeadline = nil
	return nil
}

// AddCohost appends c unless an equivalent cohost is already present. Empty entries are ignored.
func (d *Draft) AddCohost(c Cohost) error {
	if err := d.editable(); err != nil {
		return err
	}
	c.UserID = strings.TrimSpace(c.UserID)
	c.Label = strings.TrimSpace(c.Label)
	if c.UserID == "" && c.Label == "" {
		return nil
	}
	for _, existing := range d.cohosts {
		if existing.key() == c.key() {
			return nil
		}
	}
	d.cohosts = append(d.cohosts, c)
	return nil
}

func (d *Draft) RemoveCohost(c Cohost) error {
	if err := d.editable(); err != nil {
		return err
	}
	c.UserID = strings.TrimSpace(c.UserID)
	c.Label = strings.TrimSpace(c.Label)
	kept := d.cohosts[:0]
	for _, existing := range d.cohosts {
		if existing.key() != c.key() {
			kept = append(kept, existing)
		}
	}
	d.cohosts = kept
	return nil
}

// SetPerk toggles a perk. The detail is dropped when the perk is disabled.
func (d *Draft) SetPerk(kind PerkKind, enabled bool, detail string) error {
	if err := d.editable(); err != nil {
		return err
	}
	if !kind.Valid() {
		return ErrUnknownPerk
	}
	if !enabled {
		delete(d.perks, kind)
		return nil
	}
	d.perks[kind] = strings.TrimSpace(detail)
	return nil
}

// CanSubmit reports whether the title is non-blank and a schedule has been committed.
func (d *Draft) CanSubmit() bool {
	return strings.TrimSpace(d.title) != "" && d.dateChosen
}

// Submit moves an editable draft to confirming.
func (d *Draft) Submit() error {
	if err := d.editable(); err != nil {
		return err
	}
	if !d.CanSubmit() {
		return ErrSubmitDisabled
	}
	d.state = StateConfirming
	return nil
}

// ContinueEditing returns from confirming to editing.
func (d *Draft) ContinueEditing() error {
	if d.state != StateConfirming {
		return ErrInvalidTransition
	}
	d.state = StateEditing
	return nil
}

// Publish finalizes the draft. The committed start is checked again against
// the current time unless it belongs to an already published event that was
// reopened without a schedule change. A start that has slipped into the past
// sends the draft back to editing with the date unconfirmed.
func (d *Draft) Publish() (Submission, error) {
	if d.state != StateConfirming {
		return Submission{}, ErrInvalidTransition
	}
	if d.livePublished {
		d.state = StatePublished
		return d.submission(true), nil
	}
	if err := CheckSpan(d.span, d.now()); err != nil {
		d.state = StateEditing
		d.dateChosen = false
		return Submission{}, err
	}
	d.state = StatePublished
	return d.submission(true), nil
}

// SaveDraft stores the event as incomplete so it can be resumed later.
func (d *Draft) SaveDraft() (Submission, error) {
	if d.state != StateConfirming {
		return Submission{}, ErrInvalidTransition
	}
	d.state = StateDrafted
	return d.submission(false), nil
}

// Discard drops the draft. It cannot be resumed.
func (d *Draft) Discard() error {
	if d.state != StateConfirming {
		return ErrInvalidTransition
	}
	d.state = StateDiscarded
	return nil
}

// Resume reopens a published or saved draft for editing.
func (d *Draft) Resume() error {
	if d.state != StatePublished && d.state != StateDrafted {
		return ErrInvalidTransition
	}
	d.state = StateEditing
	return nil
}

func (d *Draft) submission(final bool) Submission {
	sub := Submission{
		Title:    strings.TrimSpace(d.title),
		Public:   d.public,
		Image:    d.image,
		Start:    d.span.Start,
		Cohosts:  d.Cohosts(),
		Location: d.location,
		Bio:      strings.TrimSpace(d.bio),
		Perks:    d.Perks(),
		Final:    final,
	}
	if d.span.HasEnd {
		end := d.span.End
		sub.End = &end
	}
	if d.rsvpDeadline != nil {
		deadline := *d.rsvpDeadline
		sub.RSVPDeadline = &deadline
	}
	return sub
}
