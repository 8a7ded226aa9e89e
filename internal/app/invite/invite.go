package invite

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/chess-vn/livematch/internal/app/hub"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/chess-vn/livematch/pkg/utils"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const declinedMessage = "User declined invite"

type Presence interface {
	IsOnline(userId string) bool
	InLobby(userId string) bool
}

type Broadcaster interface {
	Publish(room string, msg dtos.Message)
}

type MatchCreator interface {
	CreateMatch(white, black entities.User) string
}

type Option func(*Registry)

func WithClock(source clockwork.Clock) Option {
	return func(r *Registry) {
		r.source = source
	}
}

// WithCoin replaces the color draw. The inviter plays white when coin
// returns true.
func WithCoin(coin func() bool) Option {
	return func(r *Registry) {
		r.coin = coin
	}
}

// WithTTL makes Sweep drop invites older than ttl. Zero keeps invites
// until they are answered.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// Registry holds outstanding invites. An invite is consumed by exactly one
// answer.
type Registry struct {
	mu      sync.Mutex
	invites map[string]entities.Invite

	directory   interfaces.UserDirectory
	presence    Presence
	broadcaster Broadcaster
	matches     MatchCreator
	source      clockwork.Clock
	coin        func() bool
	ttl         time.Duration
}

func NewRegistry(
	directory interfaces.UserDirectory,
	presence Presence,
	broadcaster Broadcaster,
	matches MatchCreator,
	opts ...Option,
) *Registry {
	r := &Registry{
		invites:     make(map[string]entities.Invite),
		directory:   directory,
		presence:    presence,
		broadcaster: broadcaster,
		matches:     matches,
		source:      clockwork.NewRealClock(),
		coin: func() bool {
			return rand.IntN(2) == 0
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) CreateInvite(
	ctx context.Context,
	inviter entities.User,
	recipientUsername string,
) (string, error) {
	recipient, err := r.directory.GetUserByUsername(ctx, recipientUsername)
	if err != nil {
		if errors.Is(err, errs.ErrUserNotFound) {
			return "", errs.ErrUserNotFound
		}
		return "", fmt.Errorf("failed to resolve recipient: %w", err)
	}
	if recipient.Id == inviter.Id {
		return "", errs.ErrSelfInvite
	}
	if !r.presence.IsOnline(recipient.Id) {
		return "", errs.ErrRecipientOffline
	}
	if !r.presence.InLobby(recipient.Id) {
		return "", errs.ErrRecipientNotReceptive
	}

	inv := entities.Invite{
		Id:        utils.GenerateUUID(),
		Inviter:   inviter,
		Recipient: recipient,
		CreatedAt: r.source.Now(),
	}
	r.mu.Lock()
	r.invites[inv.Id] = inv
	r.mu.Unlock()

	r.broadcaster.Publish(hub.UserRoom(recipient.Id), dtos.NewMessage(dtos.EventInviteAsk, dtos.InviteAskResponse{
		InviterUsername: inviter.Username,
		InviteId:        inv.Id,
	}))
	logging.Info("invite created",
		zap.String("invite_id", inv.Id),
		zap.String("inviter_id", inviter.Id),
		zap.String("recipient_id", recipient.Id),
	)
	return inv.Id, nil
}

// AnswerInvite consumes the invite. Only the recipient can answer; anyone
// else gets ErrInvalidInvite and the invite stays. On accept the new match
// id is returned.
func (r *Registry) AnswerInvite(
	ctx context.Context,
	responder entities.User,
	inviteId string,
	accept bool,
) (string, error) {
	inv, err := r.consume(responder, inviteId)
	if err != nil {
		return "", err
	}

	if !accept {
		r.broadcaster.Publish(hub.UserRoom(inv.Inviter.Id), dtos.NewMessage(dtos.EventInviteAnswer, dtos.StatusResponse{
			Message: declinedMessage,
		}))
		logging.Info("invite declined", zap.String("invite_id", inv.Id))
		return "", nil
	}

	white, black := inv.Inviter, inv.Recipient
	if !r.coin() {
		white, black = black, white
	}
	matchId := r.matches.CreateMatch(white, black)

	r.notifyStart(white, matchId, entities.White)
	r.notifyStart(black, matchId, entities.Black)
	logging.Info("invite accepted",
		zap.String("invite_id", inv.Id),
		zap.String("match_id", matchId),
	)
	return matchId, nil
}

func (r *Registry) consume(responder entities.User, inviteId string) (entities.Invite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invites[inviteId]
	if !ok || inv.Recipient.Id != responder.Id {
		return entities.Invite{}, errs.ErrInvalidInvite
	}
	delete(r.invites, inviteId)
	return inv, nil
}

func (r *Registry) notifyStart(user entities.User, matchId string, color entities.Color) {
	r.broadcaster.Publish(hub.UserRoom(user.Id), dtos.NewMessage(dtos.EventStartMatch, dtos.StartMatchResponse{
		MatchId: matchId,
		Color:   color.String(),
	}))
}

// Sweep drops invites older than the configured TTL and returns how many
// were removed.
func (r *Registry) Sweep(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, inv := range r.invites {
		if now.Sub(inv.CreatedAt) >= r.ttl {
			delete(r.invites, id)
			removed++
		}
	}
	if removed > 0 {
		logging.Info("expired invites removed", zap.Int("count", removed))
	}
	return removed
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.invites)
}
