package domain

import "time"

// Event is the closed set of things the server pushes to subscribed admin
// sessions. One variant per wire event name; the payload shape is fixed by
// the variant, so dispatch on either end is checked at compile time instead
// of via string-keyed maps.
//
// Events are transient: constructed, handed to a Broadcaster, discarded.
// They are never persisted or replayed.
type Event interface {
	// Name is the SSE event name on the wire.
	Name() string
	isEvent()
}

// Wire event names understood by both server and subscriber.
const (
	EventConnected      = "connected"
	EventNewLead        = "new_lead"
	EventNewActivity    = "new_activity"
	EventUserUpdate     = "user_update"
	EventSettingsUpdate = "settings_update"
)

// ConnectedEvent is the handshake emitted once on every new subscription,
// before anything else, so the client can tell "stream open" from "pending".
type ConnectedEvent struct {
	Message string `json:"message"`
}

func (ConnectedEvent) Name() string { return EventConnected }
func (ConnectedEvent) isEvent()     {}

// NewLeadEvent announces a freshly captured lead. The payload carries the
// identifying fields only; subscribers refetch the full list.
type NewLeadEvent struct {
	ID        int64     `json:"id"`
	LeadName  string    `json:"name"`
	Grade     string    `json:"grade,omitempty"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (NewLeadEvent) Name() string { return EventNewLead }
func (NewLeadEvent) isEvent()     {}

// NewActivityEvent carries the full recorded activity entry, including the
// actor, so subscribers can suppress notifications for their own actions.
type NewActivityEvent struct {
	Activity ActivityLog `json:"activity"`
}

func (NewActivityEvent) Name() string { return EventNewActivity }
func (NewActivityEvent) isEvent()     {}

// UserAction tags what happened to the admin roster.
type UserAction string

const (
	UserActionCreate UserAction = "create"
	UserActionUpdate UserAction = "update"
	UserActionDelete UserAction = "delete"
)

// UserUpdateEvent signals a roster change without an entity body; the
// receiving client refetches the user list.
type UserUpdateEvent struct {
	Action UserAction `json:"action"`
}

func (UserUpdateEvent) Name() string { return EventUserUpdate }
func (UserUpdateEvent) isEvent()     {}

// SettingsUpdateEvent carries the full settings object after a change.
type SettingsUpdateEvent struct {
	Config EmailConfig `json:"config"`
}

func (SettingsUpdateEvent) Name() string { return EventSettingsUpdate }
func (SettingsUpdateEvent) isEvent()     {}
