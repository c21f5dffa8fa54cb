package dialogue

import (
	"context"
	"strings"

	"github.com/antoniostano/tripgenie/internal/protocol"
	"github.com/antoniostano/tripgenie/internal/session"
)

// EventKind is the routing class of an inbound event once pre-routing has
// passed.
type EventKind string

const (
	KindChoosePlaces    EventKind = "choose_places"
	KindChooseItinerary EventKind = "choose_itinerary"
	KindCoordinates     EventKind = "coordinates"
	KindMore            EventKind = "more"
	KindText            EventKind = "text"
)

// Stages lists every stage a live session can be in.
var Stages = []session.Stage{
	session.StageAwaitingModeSelection,
	session.StageAwaitingLocation,
	session.StageAwaitingItineraryLocation,
	session.StageAwaitingQuery,
}

// turn is the mutable state of one routed event.
type turn struct {
	ev   protocol.InboundEvent
	text string // trimmed message
	cmd  string // trimmed, lowercased message
	s    *session.Session
}

type handlerFunc func(r *Router, ctx context.Context, t *turn) Reply

// transitions is the stage x event-kind dispatch table. A kind missing for a
// stage is routed as KindText.
var transitions = map[session.Stage]map[EventKind]handlerFunc{
	session.StageAwaitingModeSelection: {
		KindChoosePlaces:    (*Router).choosePlaces,
		KindChooseItinerary: (*Router).chooseItinerary,
		KindCoordinates:     (*Router).modeSelectionCoordinates,
		KindText:            (*Router).modeSelectionText,
	},
	session.StageAwaitingLocation: {
		KindCoordinates: (*Router).locationCoordinates,
		KindText:        (*Router).locationText,
	},
	session.StageAwaitingItineraryLocation: {
		KindCoordinates: (*Router).itineraryCoordinates,
		KindText:        (*Router).itineraryText,
	},
	session.StageAwaitingQuery: {
		KindCoordinates: (*Router).locationCoordinates,
		KindMore:        (*Router).more,
		KindText:        (*Router).queryText,
	},
}

func classify(ev protocol.InboundEvent, cmd string) EventKind {
	if ev.HasCoordinates() {
		return KindCoordinates
	}
	switch cmd {
	case "1":
		return KindChoosePlaces
	case "2":
		return KindChooseItinerary
	case "more":
		return KindMore
	default:
		return KindText
	}
}

func lookup(stage session.Stage, kind EventKind) handlerFunc {
	row, ok := transitions[stage]
	if !ok {
		return nil
	}
	if h, ok := row[kind]; ok {
		return h
	}
	return row[KindText]
}

func normalizeCommand(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
