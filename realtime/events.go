// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType discriminates server-to-client messages.
type EventType string

const (
	EventInitialStats         EventType = "initial_stats"
	EventParticipantJoined    EventType = "participant_joined"
	EventParticipantLeft      EventType = "participant_left"
	EventResponseSubmitted    EventType = "response_submitted"
	EventSurveyStarted        EventType = "survey_started"
	EventSurveyFinished       EventType = "survey_finished"
	EventSurveyStartConfirmed EventType = "survey_start_confirmed"
	EventSurveyEndConfirmed   EventType = "survey_end_confirmed"
	EventHeartbeat            EventType = "heartbeat"
	EventPong                 EventType = "pong"
)

// Event is a server-to-client message. The set of implementations is closed
// to this package.
type Event interface {
	Type() EventType
	event()
}

type InitialStats struct {
	SurveyID     string `json:"survey_id"`
	WaitingCount int    `json:"waiting_count"`
}

type ParticipantJoined struct {
	SurveyID     string `json:"survey_id"`
	SessionID    string `json:"session_id"`
	WaitingCount int    `json:"waiting_count"`
}

type ParticipantLeft struct {
	SurveyID     string `json:"survey_id"`
	SessionID    string `json:"session_id"`
	WaitingCount int    `json:"waiting_count"`
}

type ResponseSubmitted struct {
	SurveyID        string    `json:"survey_id"`
	ResponseCount   int       `json:"response_count"`
	ParticipantName string    `json:"participant_name"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type SurveyStarted struct {
	SurveyID string `json:"survey_id"`
	Message  string `json:"message"`
}

type SurveyFinished struct {
	SurveyID string `json:"survey_id"`
	Message  string `json:"message"`
}

type SurveyStartConfirmed struct {
	SurveyID string `json:"survey_id"`
}

type SurveyEndConfirmed struct {
	SurveyID string `json:"survey_id"`
}

type Heartbeat struct{}

type Pong struct{}

func (InitialStats) Type() EventType         { return EventInitialStats }
func (ParticipantJoined) Type() EventType    { return EventParticipantJoined }
func (ParticipantLeft) Type() EventType      { return EventParticipantLeft }
func (ResponseSubmitted) Type() EventType    { return EventResponseSubmitted }
func (SurveyStarted) Type() EventType        { return EventSurveyStarted }
func (SurveyFinished) Type() EventType       { return EventSurveyFinished }
func (SurveyStartConfirmed) Type() EventType { return EventSurveyStartConfirmed }
func (SurveyEndConfirmed) Type() EventType   { return EventSurveyEndConfirmed }
func (Heartbeat) Type() EventType            { return EventHeartbeat }
func (Pong) Type() EventType                 { return EventPong }

func (InitialStats) event()         {}
func (ParticipantJoined) event()    {}
func (ParticipantLeft) event()      {}
func (ResponseSubmitted) event()    {}
func (SurveyStarted) event()        {}
func (SurveyFinished) event()       {}
func (SurveyStartConfirmed) event() {}
func (SurveyEndConfirmed) event()   {}
func (Heartbeat) event()            {}
func (Pong) event()                 {}

// EncodeEvent renders an event as a single JSON object whose first field is
// "type", followed by the event's own fields.
func EncodeEvent(e Event) ([]byte, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	if len(body) < 2 || body[0] != '{' {
		return nil, fmt.Errorf("encode %s: payload is not an object", e.Type())
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(e.Type()) + 12)
	buf.WriteString(`{"type":`)
	typ, _ := json.Marshal(string(e.Type()))
	buf.Write(typ)
	if !bytes.Equal(body, []byte("{}")) {
		buf.WriteByte(',')
		buf.Write(body[1:])
	} else {
		buf.WriteByte('}')
	}
	return buf.Bytes(), nil
}

// CommandType discriminates client-to-server messages.
type CommandType string

const (
	CommandPing        CommandType = "ping"
	CommandStartSurvey CommandType = "start_survey"
	CommandEndSurvey   CommandType = "end_survey"
)

// Command is an inbound client message. Only the discriminator matters for
// the recognised commands; extra fields are ignored.
type Command struct {
	Type CommandType `json:"type"`
}

var ErrMalformedMessage = errors.New("malformed message")

// DecodeCommand parses one inbound frame. Frames that are not a JSON object
// with a string "type" are malformed. Unknown types decode successfully and
// are left to the caller's default arm.
func DecodeCommand(data []byte) (Command, error) {
	var raw struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if raw.Type == nil {
		return Command{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return Command{Type: CommandType(*raw.Type)}, nil
}
