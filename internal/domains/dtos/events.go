package dtos

import (
	"encoding/json"

	"github.com/chess-vn/livematch/internal/domains/entities"
)

// Inbound event types.
const (
	EventJoinInviteRoom  = "joinInviteRoom"
	EventLeaveInviteRoom = "leaveInviteRoom"
	EventInvite          = "invite"
	EventInviteAnswer    = "inviteAnswer"
	EventJoinMatchRoom   = "joinMatchRoom"
	EventLeaveMatchRoom  = "leaveMatchRoom"
	EventMakeMove        = "makeMove"
	EventResign          = "resign"
	EventOfferDraw       = "offerDraw"
	EventDeclineDraw     = "declineDraw"
)

// Outbound-only event types.
const (
	EventInviteAsk   = "inviteAsk"
	EventStartMatch  = "startMatch"
	EventValidMove   = "validMove"
	EventMoveError   = "moveError"
	EventAcceptDraw  = "acceptDraw"
	EventUpdateClock = "updateClock"
	EventAbandoned   = "matchAbandoned"
	EventError       = "error"
)

type Payload struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type InviteRequest struct {
	Recipient string `json:"recipient"`
}

type InviteAnswerRequest struct {
	Answer   string `json:"answer"`
	InviteId string `json:"inviteId"`
}

type MatchRequest struct {
	MatchId string `json:"matchId"`
}

type MoveRequest struct {
	MatchId string        `json:"matchId"`
	Move    entities.Move `json:"move"`
}

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type StatusResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message"`
}

type InviteAskResponse struct {
	InviterUsername string `json:"inviterUsername"`
	InviteId        string `json:"inviteId"`
}

type StartMatchResponse struct {
	MatchId string `json:"matchId"`
	Color   string `json:"color"`
}

type ValidMoveResponse struct {
	Move   entities.Move `json:"move"`
	Status string        `json:"status"`
}

type ResignResponse struct {
	Color string `json:"color"`
}

type UpdateClockResponse struct {
	Color       string `json:"color"`
	RemainingMs int64  `json:"remainingMs"`
}

func NewMessage(eventType string, data any) Message {
	return Message{Type: eventType, Data: data}
}

func NewStatusMessage(eventType, status, message string) Message {
	return Message{
		Type: eventType,
		Data: StatusResponse{Status: status, Message: message},
	}
}
