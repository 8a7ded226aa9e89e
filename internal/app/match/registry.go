package match

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chess-vn/livematch/internal/app/hub"
	"github.com/chess-vn/livematch/internal/app/rules"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/chess-vn/livematch/pkg/utils"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Game is the rules engine handle of one match.
type Game interface {
	Turn() entities.Color
	Move(move entities.Move) (rules.Verdict, error)
	Conclude(result entities.Result)
	PortableRecord() string
}

type GameFactory func(white, black entities.User, createdAt time.Time) Game

// Broadcaster delivers messages to rooms and lists their subscribers.
type Broadcaster interface {
	Publish(room string, msg dtos.Message)
	Members(room string) []string
}

// Subscriber is a connection that can join and leave rooms.
type Subscriber interface {
	UserId() string
	Join(room string) bool
	Leave(room string)
}

type Option func(*Registry)

func WithClock(source clockwork.Clock) Option {
	return func(r *Registry) {
		r.source = source
	}
}

func WithGameFactory(factory GameFactory) Option {
	return func(r *Registry) {
		r.newGame = factory
	}
}

// WithObserver registers fn to be called with the number of active
// matches every time it changes.
func WithObserver(fn func(active int32)) Option {
	return func(r *Registry) {
		r.observer = fn
	}
}

// Registry owns every live match.
type Registry struct {
	matches sync.Map
	total   atomic.Int32

	cfg         Config
	source      clockwork.Clock
	newGame     GameFactory
	broadcaster Broadcaster
	recorder    interfaces.GameRecorder
	observer    func(active int32)
}

func NewRegistry(
	cfg Config,
	broadcaster Broadcaster,
	recorder interfaces.GameRecorder,
	opts ...Option,
) *Registry {
	r := &Registry{
		cfg:         cfg.withDefaults(),
		source:      clockwork.NewRealClock(),
		broadcaster: broadcaster,
		recorder:    recorder,
		newGame: func(white, black entities.User, createdAt time.Time) Game {
			return rules.NewGame(white, black, createdAt)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateMatch allocates a forming match for the two players and returns
// its id.
func (r *Registry) CreateMatch(white, black entities.User) string {
	createdAt := r.source.Now()
	m := &Match{
		id:          utils.GenerateUUID(),
		players:     [2]entities.User{white, black},
		game:        r.newGame(white, black, createdAt),
		phase:       Forming,
		clock:       newClock(r.cfg.MatchDuration),
		createdAt:   createdAt,
		cfg:         r.cfg,
		source:      r.source,
		broadcaster: r.broadcaster,
		recorder:    r.recorder,
		endHandler:  r.remove,
		cmdCh:       make(chan command),
		done:        make(chan struct{}),
	}
	r.matches.Store(m.id, m)
	r.notify(r.total.Add(1))
	go m.run()

	logging.Info("match created",
		zap.String("match_id", m.id),
		zap.String("white_id", white.Id),
		zap.String("black_id", black.Id),
	)
	return m.id
}

func (r *Registry) load(matchId string) (*Match, error) {
	value, ok := r.matches.Load(matchId)
	if !ok {
		return nil, errs.ErrMatchNotFound
	}
	return value.(*Match), nil
}

// remove is the end handler of every match. Only the first call for a
// given match has an effect.
func (r *Registry) remove(m *Match) {
	if _, loaded := r.matches.LoadAndDelete(m.id); !loaded {
		return
	}
	total := r.total.Add(-1)
	r.notify(total)
	logging.Info("match removed", zap.Int32("total_matches", total))
}

func (r *Registry) notify(total int32) {
	if r.observer != nil {
		r.observer(total)
	}
}

func (r *Registry) Len() int {
	return int(r.total.Load())
}

// JoinMatchRoom subscribes sub to the match room. The match goes live once
// both participants are subscribed at the same time. Joining a room the
// subscriber is already in does nothing.
func (r *Registry) JoinMatchRoom(ctx context.Context, matchId string, sub Subscriber) error {
	m, err := r.load(matchId)
	if err != nil {
		return err
	}
	if !m.isParticipant(sub.UserId()) {
		return errs.ErrNotParticipant
	}
	room := hub.MatchRoom(matchId)
	if !sub.Join(room) {
		return nil
	}
	logging.Info("player joined match room",
		zap.String("match_id", matchId),
		zap.String("player_id", sub.UserId()),
	)
	if !r.bothPresent(m, room) {
		return nil
	}
	_, err = m.submit(ctx, command{kind: cmdStart})
	if errors.Is(err, errs.ErrMatchEnded) {
		return nil
	}
	return err
}

// LeaveMatchRoom only unsubscribes. The match and its clock keep running.
func (r *Registry) LeaveMatchRoom(matchId string, sub Subscriber) {
	sub.Leave(hub.MatchRoom(matchId))
}

func (r *Registry) bothPresent(m *Match, room string) bool {
	var white, black bool
	for _, id := range r.broadcaster.Members(room) {
		switch id {
		case m.players[entities.White].Id:
			white = true
		case m.players[entities.Black].Id:
			black = true
		}
	}
	return white && black
}

func (r *Registry) ApplyMove(
	ctx context.Context,
	matchId,
	userId string,
	move entities.Move,
) (MoveOutcome, error) {
	m, err := r.load(matchId)
	if err != nil {
		return MoveOutcome{}, err
	}
	res, err := m.submit(ctx, command{kind: cmdMove, userId: userId, move: move})
	return res.outcome, err
}

func (r *Registry) Resign(ctx context.Context, matchId, userId string) error {
	return r.dispatch(ctx, matchId, command{kind: cmdResign, userId: userId})
}

func (r *Registry) OfferDraw(ctx context.Context, matchId, userId string) error {
	return r.dispatch(ctx, matchId, command{kind: cmdOfferDraw, userId: userId})
}

func (r *Registry) DeclineDraw(ctx context.Context, matchId, userId string) error {
	return r.dispatch(ctx, matchId, command{kind: cmdDeclineDraw, userId: userId})
}

func (r *Registry) Snapshot(ctx context.Context, matchId string) (Snapshot, error) {
	m, err := r.load(matchId)
	if err != nil {
		return Snapshot{}, err
	}
	res, err := m.submit(ctx, command{kind: cmdSnapshot})
	return res.snapshot, err
}

// SweepForming abandons matches that are still waiting for a player after
// the configured FormingTTL and returns how many were removed.
func (r *Registry) SweepForming(ctx context.Context) int {
	if r.cfg.FormingTTL <= 0 {
		return 0
	}
	now := r.source.Now()
	var matches []*Match
	r.matches.Range(func(_, value any) bool {
		matches = append(matches, value.(*Match))
		return true
	})
	removed := 0
	for _, m := range matches {
		res, err := m.submit(ctx, command{kind: cmdAbandon, at: now})
		if err != nil {
			if !errors.Is(err, errs.ErrMatchEnded) {
				logging.Error("couldn't sweep match", zap.String("match_id", m.id), zap.Error(err))
			}
			continue
		}
		if res.abandoned {
			removed++
		}
	}
	if removed > 0 {
		logging.Info("forming matches swept", zap.Int("removed", removed))
	}
	return removed
}

func (r *Registry) dispatch(ctx context.Context, matchId string, cmd command) error {
	m, err := r.load(matchId)
	if err != nil {
		return err
	}
	_, err = m.submit(ctx, cmd)
	return err
}
