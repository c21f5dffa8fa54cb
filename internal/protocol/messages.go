package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeChatMessage  MessageType = "chat_message"
	TypeChatLocation MessageType = "chat_location"
	TypeChatReply    MessageType = "chat_reply"
	TypeSystemEvent  MessageType = "system_event"
	TypeErrorEvent   MessageType = "error_event"
)

var (
	ErrUnsupportedType = errors.New("unsupported message type")
	ErrMissingSender   = errors.New("sender is required")
	ErrPartialLocation = errors.New("latitude and longitude must be sent together")
	ErrInvalidLocation = errors.New("latitude or longitude out of range")
)

// InboundEvent is one message from a messaging transport. A coordinate
// payload is present only when both Latitude and Longitude are set.
type InboundEvent struct {
	Sender    string   `json:"sender"`
	Message   string   `json:"message"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

func (e InboundEvent) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

func (e InboundEvent) Validate() error {
	if strings.TrimSpace(e.Sender) == "" {
		return ErrMissingSender
	}
	if (e.Latitude == nil) != (e.Longitude == nil) {
		return ErrPartialLocation
	}
	if e.HasCoordinates() {
		return validateLatLng(*e.Latitude, *e.Longitude)
	}
	return nil
}

// LocationRequest is the body of POST /location.
type LocationRequest struct {
	Sender    string   `json:"sender"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r LocationRequest) Event() (InboundEvent, error) {
	ev := InboundEvent{Sender: r.Sender, Latitude: r.Latitude, Longitude: r.Longitude}
	if err := ev.Validate(); err != nil {
		return InboundEvent{}, err
	}
	if !ev.HasCoordinates() {
		return InboundEvent{}, ErrPartialLocation
	}
	return ev, nil
}

// ReplyResponse is the only shape ever returned to a transport.
type ReplyResponse struct {
	Reply string `json:"reply"`
}

type Envelope struct {
	Type MessageType `json:"type"`
}

type ChatMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

type ChatLocation struct {
	Type      MessageType `json:"type"`
	Latitude  *float64    `json:"latitude"`
	Longitude *float64    `json:"longitude"`
}

type ChatReply struct {
	Type  MessageType `json:"type"`
	Reply string      `json:"reply"`
}

type SystemEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail,omitempty"`
}

type ErrorEvent struct {
	Type   MessageType `json:"type"`
	Code   string      `json:"code"`
	Detail string      `json:"detail"`
}

// ParseClientMessage decodes a websocket frame into ChatMessage or
// ChatLocation.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeChatMessage:
		var msg ChatMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		return msg, nil
	case TypeChatLocation:
		var msg ChatLocation
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Latitude == nil || msg.Longitude == nil {
			return nil, ErrPartialLocation
		}
		if err := validateLatLng(*msg.Latitude, *msg.Longitude); err != nil {
			return nil, err
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// Event converts a websocket frame into an InboundEvent for sender.
func Event(sender string, msg any) (InboundEvent, error) {
	switch m := msg.(type) {
	case ChatMessage:
		return InboundEvent{Sender: sender, Message: m.Message}, nil
	case ChatLocation:
		return InboundEvent{Sender: sender, Latitude: m.Latitude, Longitude: m.Longitude}, nil
	default:
		return InboundEvent{}, ErrUnsupportedType
	}
}

func validateLatLng(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
		return ErrInvalidLocation
	}
	return nil
}
