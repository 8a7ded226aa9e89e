package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chess-vn/livematch/internal/app/hub"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/chess-vn/livematch/pkg/logging"
	"go.uber.org/zap"
)

const (
	answerAccept  = "accept"
	answerDecline = "decline"
)

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, errs.ErrInvalidPayload
	}
	return v, nil
}

// handleMessage runs one inbound event. Rejections go back to the sending
// connection only.
func (s *Server) handleMessage(ctx context.Context, client *hub.Client, payload dtos.Payload) {
	switch payload.Type {
	case dtos.EventJoinInviteRoom:
		client.Join(hub.LobbyRoom)

	case dtos.EventLeaveInviteRoom:
		client.Leave(hub.LobbyRoom)

	case dtos.EventInvite:
		req, err := decode[dtos.InviteRequest](payload.Data)
		if err == nil {
			_, err = s.invites.CreateInvite(ctx, client.User(), req.Recipient)
		}
		if err != nil {
			s.reject(client, dtos.EventInvite, err)
			return
		}
		s.send(client, dtos.NewStatusMessage(dtos.EventInvite, "", "Invite sent"))

	case dtos.EventInviteAnswer:
		req, err := decode[dtos.InviteAnswerRequest](payload.Data)
		if err == nil && req.Answer != answerAccept && req.Answer != answerDecline {
			err = errs.ErrInvalidPayload
		}
		if err == nil {
			_, err = s.invites.AnswerInvite(ctx, client.User(), req.InviteId, req.Answer == answerAccept)
		}
		if err != nil {
			s.reject(client, dtos.EventInviteAnswer, err)
		}

	case dtos.EventJoinMatchRoom:
		req, err := decode[dtos.MatchRequest](payload.Data)
		if err == nil {
			err = s.matches.JoinMatchRoom(ctx, req.MatchId, client)
		}
		if err != nil {
			s.reject(client, dtos.EventJoinMatchRoom, err)
		}

	case dtos.EventLeaveMatchRoom:
		req, err := decode[dtos.MatchRequest](payload.Data)
		if err != nil {
			s.reject(client, dtos.EventLeaveMatchRoom, err)
			return
		}
		s.matches.LeaveMatchRoom(req.MatchId, client)

	case dtos.EventMakeMove:
		req, err := decode[dtos.MoveRequest](payload.Data)
		if err == nil {
			_, err = s.matches.ApplyMove(ctx, req.MatchId, client.UserId(), req.Move)
		}
		if err != nil {
			s.reject(client, dtos.EventMoveError, err)
		}

	case dtos.EventResign, dtos.EventOfferDraw, dtos.EventDeclineDraw:
		req, err := decode[dtos.MatchRequest](payload.Data)
		if err == nil {
			err = s.matchAction(ctx, payload.Type, req.MatchId, client.UserId())
		}
		if err != nil {
			// An unknown match is reported under the action itself, every
			// other rejection as a move error.
			event := dtos.EventMoveError
			if errors.Is(err, errs.ErrMatchNotFound) || errors.Is(err, errs.ErrInvalidPayload) {
				event = payload.Type
			}
			s.reject(client, event, err)
		}

	default:
		s.reject(client, dtos.EventError, errs.ErrInvalidPayload)
	}
}

func (s *Server) matchAction(ctx context.Context, eventType, matchId, userId string) error {
	switch eventType {
	case dtos.EventResign:
		return s.matches.Resign(ctx, matchId, userId)
	case dtos.EventOfferDraw:
		return s.matches.OfferDraw(ctx, matchId, userId)
	default:
		return s.matches.DeclineDraw(ctx, matchId, userId)
	}
}

func (s *Server) reject(client *hub.Client, eventType string, err error) {
	status := errs.StatusOf(err)
	if status == errs.StatusInternal {
		logging.Error("request failed",
			zap.String("event", eventType),
			zap.String("user_id", client.UserId()),
			zap.Error(err),
		)
	}
	s.send(client, dtos.NewStatusMessage(eventType, status, errs.MessageOf(err)))
}

func (s *Server) send(client *hub.Client, msg dtos.Message) {
	if err := client.Send(msg); err != nil {
		logging.Error("couldn't reply to client",
			zap.String("user_id", client.UserId()),
			zap.Error(err),
		)
	}
}
