package match

import (
	"context"
	"time"

	"github.com/chess-vn/livematch/internal/app/hub"
	"github.com/chess-vn/livematch/internal/app/rules"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/entities"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/chess-vn/livematch/pkg/pgn"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Phase uint8

const (
	Forming Phase = iota
	Live
	Ended
)

func (p Phase) String() string {
	switch p {
	case Forming:
		return "FORMING"
	case Live:
		return "LIVE"
	case Ended:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

type commandKind uint8

const (
	cmdStart commandKind = iota
	cmdMove
	cmdResign
	cmdOfferDraw
	cmdDeclineDraw
	cmdSnapshot
	cmdAbandon
)

type command struct {
	kind   commandKind
	userId string
	move   entities.Move
	at     time.Time
	reply  chan reply
}

type reply struct {
	outcome  MoveOutcome
	snapshot  Snapshot
	abandoned bool
	err       error
}

type MoveOutcome struct {
	Move    entities.Move
	Verdict rules.Verdict
	Status  string
}

// Snapshot is a copy of a match state taken inside the match goroutine.
type Snapshot struct {
	Id              string
	White           entities.User
	Black           entities.User
	Phase           Phase
	Turn            entities.Color
	WhiteRemaining  time.Duration
	BlackRemaining  time.Duration
	WhiteDecrements int
	BlackDecrements int
	DrawOffers      [2]bool
	Result          entities.Result
}

// Match is one live session. Every mutation happens on the goroutine
// started by run: player commands and both clock ticks are received from
// a single select, so they never interleave.
type Match struct {
	id        string
	players   [2]entities.User
	game      Game
	phase     Phase
	clock     *clock
	tick      *ticker
	drawOffer [2]bool
	result    entities.Result
	createdAt time.Time
	startedAt time.Time

	cfg         Config
	source      clockwork.Clock
	broadcaster Broadcaster
	recorder    interfaces.GameRecorder
	endHandler  func(*Match)

	cmdCh chan command
	done  chan struct{}
}

func (m *Match) Id() string {
	return m.id
}

func (m *Match) colorOf(userId string) (entities.Color, bool) {
	switch userId {
	case m.players[entities.White].Id:
		return entities.White, true
	case m.players[entities.Black].Id:
		return entities.Black, true
	}
	return entities.White, false
}

func (m *Match) isParticipant(userId string) bool {
	_, ok := m.colorOf(userId)
	return ok
}

func (m *Match) run() {
	defer close(m.done)
	for {
		select {
		case cmd := <-m.cmdCh:
			m.handle(cmd)
		case <-m.tick.decrementC():
			m.onDecrement()
		case <-m.tick.pollC():
			m.onPoll()
		}
		if m.phase == Ended {
			return
		}
	}
}

// submit hands cmd to the match goroutine and waits for its reply.
func (m *Match) submit(ctx context.Context, cmd command) (reply, error) {
	cmd.reply = make(chan reply, 1)
	select {
	case m.cmdCh <- cmd:
	case <-m.done:
		return reply{}, errs.ErrMatchEnded
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
	select {
	case r := <-cmd.reply:
		return r, r.err
	case <-ctx.Done():
		return reply{}, ctx.Err()
	}
}

func (m *Match) handle(cmd command) {
	var r reply
	switch cmd.kind {
	case cmdStart:
		m.goLive()
	case cmdMove:
		r.outcome, r.err = m.applyMove(cmd.userId, cmd.move)
	case cmdResign:
		r.err = m.resign(cmd.userId)
	case cmdOfferDraw:
		r.err = m.offerDraw(cmd.userId)
	case cmdDeclineDraw:
		r.err = m.declineDraw(cmd.userId)
	case cmdSnapshot:
		r.snapshot = m.snapshot()
	case cmdAbandon:
		r.abandoned = m.abandon(cmd.at)
	}
	cmd.reply <- r
}

func (m *Match) goLive() {
	if m.phase != Forming {
		return
	}
	m.phase = Live
	m.startedAt = m.source.Now()
	m.publishClock(entities.Black, m.clock.remainingFor(entities.Black))
	m.publishClock(entities.White, m.clock.remainingFor(entities.White))
	m.tick = startTicker(m.source, m.cfg.DecrementInterval, m.cfg.PollInterval)
	logging.Info("match started",
		zap.String("match_id", m.id),
		zap.String("white_id", m.players[entities.White].Id),
		zap.String("black_id", m.players[entities.Black].Id),
	)
}

func (m *Match) applyMove(userId string, move entities.Move) (MoveOutcome, error) {
	switch m.phase {
	case Ended:
		return MoveOutcome{}, errs.ErrMatchEnded
	case Forming:
		return MoveOutcome{}, errs.ErrMatchNotStarted
	}
	color, ok := m.colorOf(userId)
	if !ok {
		return MoveOutcome{}, errs.ErrNotParticipant
	}
	if m.game.Turn() != color {
		return MoveOutcome{}, errs.ErrNotYourTurn
	}
	verdict, err := m.game.Move(move)
	if err != nil {
		logging.Debug("move rejected",
			zap.String("match_id", m.id),
			zap.String("move", move.UCI()),
			zap.Error(err),
		)
		return MoveOutcome{}, errs.ErrIllegalMove
	}

	m.drawOffer = [2]bool{}
	outcome := MoveOutcome{
		Move:    move,
		Verdict: verdict,
		Status:  verdict.Status(),
	}
	m.publish(hub.MatchRoom(m.id), dtos.NewMessage(dtos.EventValidMove, dtos.ValidMoveResponse{
		Move:   move,
		Status: outcome.Status,
	}))

	if verdict.Terminal() {
		result := entities.Result{Outcome: entities.Draw, Method: verdict.Method()}
		if verdict == rules.Checkmate {
			result.Outcome = color.Wins()
		}
		m.terminate(result)
	}
	return outcome, nil
}

func (m *Match) resign(userId string) error {
	if m.phase == Ended {
		return errs.ErrMatchEnded
	}
	color, ok := m.colorOf(userId)
	if !ok {
		return errs.ErrNotParticipant
	}
	m.publish(hub.MatchRoom(m.id), dtos.NewMessage(dtos.EventResign, dtos.ResignResponse{
		Color: color.Short(),
	}))
	m.terminate(entities.Result{
		Outcome: color.Opponent().Wins(),
		Method:  entities.Resignation,
	})
	return nil
}

// offerDraw sets only the caller's own flag. The second side offering is
// what makes it an agreement.
func (m *Match) offerDraw(userId string) error {
	if m.phase == Ended {
		return errs.ErrMatchEnded
	}
	color, ok := m.colorOf(userId)
	if !ok {
		return errs.ErrNotParticipant
	}
	m.drawOffer[color] = true
	if m.drawOffer[entities.White] && m.drawOffer[entities.Black] {
		m.publish(hub.MatchRoom(m.id), dtos.NewMessage(dtos.EventAcceptDraw, nil))
		m.terminate(entities.Result{
			Outcome: entities.Draw,
			Method:  entities.DrawAgreement,
		})
		return nil
	}
	opponent := m.players[color.Opponent()]
	m.publish(hub.UserRoom(opponent.Id), dtos.NewMessage(dtos.EventOfferDraw, nil))
	return nil
}

func (m *Match) declineDraw(userId string) error {
	if m.phase == Ended {
		return errs.ErrMatchEnded
	}
	if !m.isParticipant(userId) {
		return errs.ErrNotParticipant
	}
	m.drawOffer = [2]bool{}
	m.publish(hub.MatchRoom(m.id), dtos.NewMessage(dtos.EventDeclineDraw, nil))
	return nil
}

// abandon drops a match still forming after FormingTTL. Nothing was
// played, so nothing is recorded.
func (m *Match) abandon(now time.Time) bool {
	if m.phase != Forming || m.cfg.FormingTTL <= 0 || now.Sub(m.createdAt) < m.cfg.FormingTTL {
		return false
	}
	m.phase = Ended
	for _, player := range m.players {
		m.publish(hub.UserRoom(player.Id), dtos.NewMessage(dtos.EventAbandoned, dtos.MatchRequest{MatchId: m.id}))
	}
	if m.endHandler != nil {
		m.endHandler(m)
	}
	logging.Info("match abandoned",
		zap.String("match_id", m.id),
		zap.Duration("waited", now.Sub(m.createdAt)),
	)
	return true
}

func (m *Match) onDecrement() {
	if m.phase != Live {
		return
	}
	color := m.game.Turn()
	remaining := m.clock.decrement(color, m.cfg.DecrementInterval)
	if remaining < m.cfg.ExpiryFloor {
		m.publishClock(color, 0)
		logging.Info("out of time",
			zap.String("match_id", m.id),
			zap.String("player_id", m.players[color].Id),
		)
		m.terminate(entities.Result{
			Outcome: color.Opponent().Wins(),
			Method:  entities.Timeout,
		})
	}
}

func (m *Match) onPoll() {
	if m.phase != Live {
		return
	}
	color := m.game.Turn()
	m.publishClock(color, m.clock.remainingFor(color))
}

// terminate ends the match once: it stops the clock, records the result,
// hands the finished game to the recorder and releases the match. A
// recorder failure is logged and never retried.
func (m *Match) terminate(result entities.Result) {
	if m.phase == Ended {
		return
	}
	m.tick.stop()
	m.phase = Ended
	m.result = result
	m.game.Conclude(result)

	finished := entities.FinishedGame{
		MatchId:   m.id,
		White:     m.players[entities.White],
		Black:     m.players[entities.Black],
		Pgn:       m.game.PortableRecord(),
		Outcome:   result.Outcome,
		Method:    result.Method,
		StartedAt: m.startedAt,
		EndedAt:   m.source.Now(),
	}
	if summary, err := pgn.ParseString(finished.Pgn); err == nil {
		finished.Plies = summary.Plies()
		finished.FinalFen = summary.FinalFen()
	} else {
		logging.Warn("couldn't summarize game record",
			zap.String("match_id", m.id),
			zap.Error(err),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.PersistTimeout)
	err := m.recorder.SaveFinishedGame(ctx, finished)
	cancel()
	if err != nil {
		logging.Error("failed to save game",
			zap.String("status", errs.StatusPersistenceFailure),
			zap.String("match_id", m.id),
			zap.Error(err),
		)
	}

	if m.endHandler != nil {
		m.endHandler(m)
	}
	logging.Info("match ended",
		zap.String("match_id", m.id),
		zap.String("outcome", string(result.Outcome)),
		zap.String("method", string(result.Method)),
	)
}

func (m *Match) snapshot() Snapshot {
	return Snapshot{
		Id:              m.id,
		White:           m.players[entities.White],
		Black:           m.players[entities.Black],
		Phase:           m.phase,
		Turn:            m.game.Turn(),
		WhiteRemaining:  m.clock.remainingFor(entities.White),
		BlackRemaining:  m.clock.remainingFor(entities.Black),
		WhiteDecrements: m.clock.decrementsFor(entities.White),
		BlackDecrements: m.clock.decrementsFor(entities.Black),
		DrawOffers:      m.drawOffer,
		Result:          m.result,
	}
}

func (m *Match) publishClock(color entities.Color, remaining time.Duration) {
	m.publish(hub.MatchRoom(m.id), dtos.NewMessage(dtos.EventUpdateClock, dtos.UpdateClockResponse{
		Color:       color.Short(),
		RemainingMs: remaining.Milliseconds(),
	}))
}

func (m *Match) publish(room string, msg dtos.Message) {
	if m.broadcaster == nil {
		return
	}
	m.broadcaster.Publish(room, msg)
}
