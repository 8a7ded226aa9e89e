package server

import (
	"context"
	"time"

	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

func (s *Server) startJobs() error {
	if s.cfg.InviteTTL > 0 {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(sweepInterval(s.cfg.InviteTTL)),
			gocron.NewTask(s.sweepInvites),
			gocron.WithName("invite-sweep"),
		)
		if err != nil {
			return err
		}
	}
	if s.cfg.Match.FormingTTL > 0 {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(sweepInterval(s.cfg.Match.FormingTTL)),
			gocron.NewTask(s.sweepMatches),
			gocron.WithName("forming-match-sweep"),
		)
		if err != nil {
			return err
		}
	}
	if s.cfg.StatsInterval > 0 {
		_, err := s.scheduler.NewJob(
			gocron.DurationJob(s.cfg.StatsInterval),
			gocron.NewTask(s.logStats),
			gocron.WithName("stats"),
		)
		if err != nil {
			return err
		}
	}
	s.scheduler.Start()
	return nil
}

// sweepInterval runs the sweep twice per TTL, at most once a second.
func sweepInterval(ttl time.Duration) time.Duration {
	return max(ttl/2, time.Second)
}

func (s *Server) sweepInvites() {
	s.invites.Sweep(time.Now())
}

func (s *Server) sweepMatches() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	s.matches.SweepForming(ctx)
}

func (s *Server) logStats() {
	logging.Info("server stats",
		zap.Int("active_matches", s.matches.Len()),
		zap.Int("pending_invites", s.invites.Len()),
		zap.Int("clients", s.hub.Clients()),
	)
}
