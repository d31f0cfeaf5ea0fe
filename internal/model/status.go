package model

// Role is a user's access level.
type Role string

const (
	RoleAttendee Role = "attendee"
	RoleFixer    Role = "fixer"
	RoleAdmin    Role = "admin"
)

// EventStatus is the lifecycle state of an event.
type EventStatus string

const (
	EventDraft     EventStatus = "draft"
	EventPublished EventStatus = "published"
	EventCancelled EventStatus = "cancelled"
	EventCompleted EventStatus = "completed"
)

// Valid reports whether s is a known event status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventPublished, EventCancelled, EventCompleted:
		return true
	}
	return false
}

// RegistrationStatus is the lifecycle state of a registration.
//
// registered | waitlisted → checked_in; any non-cancelled state → cancelled
// (terminal). Cancelled registrations are invisible to capacity counts,
// check-in, and reminders.
type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "registered"
	RegistrationWaitlisted RegistrationStatus = "waitlisted"
	RegistrationCheckedIn  RegistrationStatus = "checked_in"
	RegistrationCancelled  RegistrationStatus = "cancelled"
)

// ItemStatus is the queue state of a repair item.
//
// registered (queued) → in-progress (claimed) → completed (outcome logged).
// in-progress and completed items may be returned to registered, which
// clears the fixer assignment, timestamps, and outcome fields.
type ItemStatus string

const (
	ItemRegistered ItemStatus = "registered"
	ItemInProgress ItemStatus = "in-progress"
	ItemCompleted  ItemStatus = "completed"
	ItemCancelled  ItemStatus = "cancelled"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemRegistered, ItemInProgress, ItemCompleted, ItemCancelled:
		return true
	}
	return false
}

// Outcome classifies a completed repair.
type Outcome string

const (
	OutcomeFixed          Outcome = "fixed"
	OutcomePartiallyFixed Outcome = "partially_fixed"
	OutcomeNotRepairable  Outcome = "not_repairable"
	OutcomeNeedsParts     Outcome = "needs_parts"
	OutcomeReferred       Outcome = "referred"
)

// NormalizeOutcome maps an input string to the canonical outcome value,
// accepting the legacy spellings that older clients still send. The second
// return is false for unrecognized values.
func NormalizeOutcome(s string) (Outcome, bool) {
	switch Outcome(s) {
	case OutcomeFixed, OutcomePartiallyFixed, OutcomeNotRepairable,
		OutcomeNeedsParts, OutcomeReferred:
		return Outcome(s), true
	}
	// Legacy spellings from earlier clients.
	switch s {
	case "partial_fix":
		return OutcomePartiallyFixed, true
	case "not_fixable":
		return OutcomeNotRepairable, true
	}
	return "", false
}

// Label returns the human-readable form used in notification emails.
func (o Outcome) Label() string {
	switch o {
	case OutcomeFixed:
		return "Fixed!"
	case OutcomePartiallyFixed:
		return "Partially Fixed"
	case OutcomeNotRepairable:
		return "Not Repairable"
	case OutcomeNeedsParts:
		return "Needs Parts"
	case OutcomeReferred:
		return "Referred"
	}
	return "Completed"
}

// FixerStatus is the approval state of a fixer profile.
type FixerStatus string

const (
	FixerPending  FixerStatus = "pending"
	FixerActive   FixerStatus = "active"
	FixerRejected FixerStatus = "rejected"
	FixerRemoved  FixerStatus = "removed"
)

// Valid reports whether s is a known fixer status.
func (s FixerStatus) Valid() bool {
	switch s {
	case FixerPending, FixerActive, FixerRejected, FixerRemoved:
		return true
	}
	return false
}

// HelperStatus is the coordination state of a helper volunteer.
type HelperStatus string

const (
	HelperPending   HelperStatus = "pending"
	HelperContacted HelperStatus = "contacted"
	HelperActive    HelperStatus = "active"
	HelperInactive  HelperStatus = "inactive"
)

// Valid reports whether s is a known helper status.
func (s HelperStatus) Valid() bool {
	switch s {
	case HelperPending, HelperContacted, HelperActive, HelperInactive:
		return true
	}
	return false
}
