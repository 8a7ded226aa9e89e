package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chess-vn/livematch/internal/app/hub"
	"github.com/chess-vn/livematch/internal/app/invite"
	"github.com/chess-vn/livematch/internal/app/match"
	"github.com/chess-vn/livematch/internal/domains/dtos"
	"github.com/chess-vn/livematch/internal/domains/errs"
	"github.com/chess-vn/livematch/internal/domains/interfaces"
	"github.com/chess-vn/livematch/pkg/logging"
	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// requestTimeout bounds a single inbound event. It covers a match
// terminating inside the call, which waits on the persistence gateway.
const requestTimeout = 30 * time.Second

// maxMessageSize is the largest inbound frame a client may send.
const maxMessageSize = 4096

type Server struct {
	cfg      Config
	upgrader websocket.Upgrader

	hub     *hub.Hub
	matches *match.Registry
	invites *invite.Registry
	auth    Authenticator

	scheduler  gocron.Scheduler
	httpServer *http.Server
}

func NewServer(
	cfg Config,
	directory interfaces.UserDirectory,
	recorder interfaces.GameRecorder,
	authenticator Authenticator,
	matchOpts ...match.Option,
) (*Server, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	h := hub.New()
	matches := match.NewRegistry(cfg.Match, h, recorder, matchOpts...)
	srv := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		hub:       h,
		matches:   matches,
		invites:   invite.NewRegistry(directory, h, h, matches, invite.WithTTL(cfg.InviteTTL)),
		auth:      authenticator,
		scheduler: scheduler,
	}
	return srv, nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebsocket)
	mux.HandleFunc("GET /status", s.handleStatus)
	return mux
}

// Start schedules background jobs and serves until Shutdown.
func (s *Server) Start() error {
	if err := s.startJobs(); err != nil {
		return err
	}
	s.httpServer = &http.Server{
		Addr:    "0.0.0.0:" + s.cfg.Port,
		Handler: s.Handler(),
	}
	logging.Info("websocket server started", zap.String("port", s.cfg.Port))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.scheduler.Shutdown(); err != nil {
		logging.Error("failed to stop scheduler", zap.Error(err))
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Authenticate(r)
	if err != nil {
		logging.Info("rejected connection", zap.Error(err))
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	client := hub.NewClient(user, conn)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			logging.Info("connection closed",
				zap.String("remote_address", conn.RemoteAddr().String()),
				zap.String("user_id", user.Id),
				zap.Error(err),
			)
			return
		}

		var payload dtos.Payload
		if err := json.Unmarshal(message, &payload); err != nil {
			s.reject(client, dtos.EventError, errs.ErrInvalidPayload)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		s.handleMessage(ctx, client, payload)
		cancel()
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	active := int32(s.matches.Len())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dtos.ServerStatusResponse{
		ActiveMatches: active,
		CanAccept:     active < s.cfg.MaxMatches,
		MaxMatches:    s.cfg.MaxMatches,
	})
}
