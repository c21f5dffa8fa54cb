package session

import "time"

// Stage is the position of a session in the dialogue state machine.
type Stage string

const (
	StageAwaitingModeSelection     Stage = "awaiting_mode_selection"
	StageAwaitingLocation          Stage = "awaiting_location"
	StageAwaitingItineraryLocation Stage = "awaiting_itinerary_location"
	StageAwaitingQuery             Stage = "awaiting_query"
)

// Mode is the coarse purpose picked at mode selection.
type Mode string

const (
	ModeUnset     Mode = ""
	ModePlaces    Mode = "places"
	ModeItinerary Mode = "itinerary"
)

// Session is the dialogue context of one sender.
type Session struct {
	ID             string    `json:"session_id"`
	Sender         string    `json:"sender"`
	Stage          Stage     `json:"stage"`
	Mode           Mode      `json:"mode,omitempty"`
	Location       string    `json:"location,omitempty"`
	LastQuery      string    `json:"last_query,omitempty"`
	LastIntent     string    `json:"last_intent,omitempty"`
	ShownNames     []string  `json:"shown_names,omitempty"`
	HasResults     bool      `json:"has_results"`
	StartedAt      time.Time `json:"started_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

// SnapshotResponse is the operator view of a live session.
type SnapshotResponse struct {
	Session         *Session `json:"session"`
	Allowed         bool     `json:"allowed"`
	InactivityTTLMS int64    `json:"inactivity_ttl_ms"`
}
