// Package model defines the core domain types for the repair café system.
package model

import "time"

// User is an account keyed by lower-cased email. Users are created on first
// magic-link request or registration and are never deleted.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

// Venue is read-only reference data for events.
type Venue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// Event represents a single repair café date.
type Event struct {
	ID                  string      `json:"id"`
	Title               string      `json:"title"`
	Description         string      `json:"description,omitempty"`
	Date                time.Time   `json:"date"`
	StartTime           string      `json:"start_time"`
	EndTime             string      `json:"end_time"`
	VenueID             *string     `json:"venue_id,omitempty"`
	Capacity            int         `json:"capacity"`
	WaitlistEnabled     bool        `json:"waitlist_enabled"`
	Status              EventStatus `json:"status"`
	RegistrationOpensAt time.Time   `json:"registration_opens_at"`
	CreatedAt           time.Time   `json:"created_at"`

	// Denormalized fields populated by list/get queries.
	VenueName         string `json:"venue_name,omitempty"`
	VenueAddress      string `json:"venue_address,omitempty"`
	VenueCity         string `json:"venue_city,omitempty"`
	RegistrationCount int    `json:"registration_count"`
}

// SpotsLeft returns remaining capacity, never negative.
func (e *Event) SpotsLeft() int {
	if left := e.Capacity - e.RegistrationCount; left > 0 {
		return left
	}
	return 0
}

// IsFull reports whether the live registration count has reached capacity.
func (e *Event) IsFull() bool {
	return e.RegistrationCount >= e.Capacity
}

// Registration is an attendee's reservation for an event.
type Registration struct {
	ID              string             `json:"id"`
	EventID         string             `json:"event_id"`
	UserID          string             `json:"user_id"`
	Status          RegistrationStatus `json:"status"`
	Position        int                `json:"position"`
	QRCode          string             `json:"qr_code"`
	ManagementToken string             `json:"-"`
	CheckedInAt     *time.Time         `json:"checked_in_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`

	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	Items     []Item `json:"items,omitempty"`
}

// Item is a single physical object submitted for repair.
type Item struct {
	ID             string     `json:"id"`
	RegistrationID string     `json:"registration_id"`
	EventID        string     `json:"event_id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	Problem        string     `json:"problem"`
	Status         ItemStatus `json:"status"`
	FixerID        *string    `json:"fixer_id,omitempty"`
	QueuePosition  *int       `json:"queue_position,omitempty"`
	Outcome        Outcome    `json:"outcome,omitempty"`
	OutcomeNotes   string     `json:"outcome_notes,omitempty"`
	RepairMethod   string     `json:"repair_method,omitempty"`
	PartsUsed      string     `json:"parts_used,omitempty"`
	StartedAt      *time.Time `json:"repair_started_at,omitempty"`
	CompletedAt    *time.Time `json:"repair_completed_at,omitempty"`

	// Material fields, used only by reporting.
	WeightKg      float64 `json:"weight_kg,omitempty"`
	PctElectronic float64 `json:"pct_electronic,omitempty"`
	PctMetal      float64 `json:"pct_metal,omitempty"`
	PctPlastic    float64 `json:"pct_plastic,omitempty"`
	PctTextile    float64 `json:"pct_textile,omitempty"`
	PctOther      float64 `json:"pct_other,omitempty"`

	OwnerName  string `json:"owner_name,omitempty"`
	FixerName  string `json:"fixer_name,omitempty"`
	SkillMatch bool   `json:"skill_match,omitempty"`
}

// ItemComment is one message on an item's discussion thread between the
// owner and fixers.
type ItemComment struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	UserID    string    `json:"user_id"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`

	UserName string `json:"user_name,omitempty"`
}

// Skill is a structured skill tag fixers can attach to their profile.
type Skill struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Fixer is a volunteer repairer's profile, linked to a user by email.
type Fixer struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	Phone        string      `json:"phone,omitempty"`
	Skills       string      `json:"skills,omitempty"`
	Availability string      `json:"availability,omitempty"`
	Status       FixerStatus `json:"status"`
	ApprovedAt   *time.Time  `json:"approved_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`

	SkillTags []Skill `json:"skill_tags,omitempty"`
}

// FixerRSVP is a fixer's attendance answer for one event. Yes answers feed
// the volunteer count in event reports.
type FixerRSVP struct {
	EventID  string `json:"event_id"`
	Response string `json:"response"`
}

// Helper is a volunteer covering non-repair roles, independent of Fixer.
type Helper struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	Phone        string       `json:"phone,omitempty"`
	Availability string       `json:"availability,omitempty"`
	Roles        []string     `json:"roles"`
	Status       HelperStatus `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NotificationPreferences are per-user opt-in flags. Absent rows mean
// "notify" for events and comments.
type NotificationPreferences struct {
	UserID            string `json:"user_id,omitempty"`
	NotifyComments    bool   `json:"notify_comments"`
	NotifyEvents      bool   `json:"notify_events"`
	NotifyDailyDigest bool   `json:"notify_daily_digest"`
	NotifyWeekly      bool   `json:"notify_weekly_digest"`
}

// DefaultPreferences returns the flags applied when a user has no stored row.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		NotifyComments: true,
		NotifyEvents:   true,
	}
}

// ItemInput is a {name, problem} pair supplied at registration time.
// Pairs with an empty name or problem are dropped without error.
type ItemInput struct {
	Name    string `json:"name"`
	Problem string `json:"problem"`
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
