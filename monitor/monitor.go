// Package monitor exposes a document's state vector and request queue depth
// over a small net/http debug server, adapted from the teacher's
// crdtmonitor web dashboard down to the parts SPEC_FULL.md actually needs:
// no event stream, no pubsub, no templates — one JSON endpoint per document.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/homveloper/luvjson/docengine"
)

var errAlreadyRunning = errors.New("monitor: server already running")

// stateView is the JSON body served at /state.
type stateView struct {
	ActorID          string            `json:"actorId"`
	MaxOp            uint64            `json:"maxOp"`
	Clock            map[string]uint64 `json:"clock"`
	RequestQueueDepth int              `json:"requestQueueDepth"`
}

// Server serves read-only document diagnostics over HTTP.
type Server struct {
	doc    *docengine.Doc
	logger *zap.Logger

	mutex  sync.Mutex
	server *http.Server
}

// NewServer builds a Server for doc. A nil logger defaults to zap.NewNop().
func NewServer(doc *docengine.Doc, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{doc: doc, logger: logger}
}

// Handler returns the server's http.Handler without binding a listener,
// for tests and for embedding into a larger mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.handleState)
	return mux
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snapshot := s.doc.Snapshot()
	clock := make(map[string]uint64, len(snapshot.State.Clock))
	for actor, seq := range snapshot.State.Clock {
		clock[string(actor)] = seq
	}

	view := stateView{
		ActorID:           string(s.doc.GetActorID()),
		MaxOp:             snapshot.State.MaxOp,
		Clock:             clock,
		RequestQueueDepth: s.doc.RequestQueueDepth(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(view); err != nil {
		s.logger.Warn("encode state response", zap.Error(err))
	}
}

// Start binds a listener at addr and serves until the server is stopped or
// the context is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.mutex.Lock()
	if s.server != nil {
		s.mutex.Unlock()
		return errAlreadyRunning
	}
	s.server = &http.Server{Addr: addr, Handler: s.Handler()}
	server := s.server
	s.mutex.Unlock()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown monitor server", zap.Error(err))
		}
	}()

	s.logger.Info("monitor server started", zap.String("addr", addr))
	err := server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
