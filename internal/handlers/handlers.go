package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"threadpost/internal/database"
	"threadpost/internal/engine"
	"threadpost/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Server holds all server dependencies, including the actor system and engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	DB             database.DBAdapter
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	context *actor.RootContext,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	db database.DBAdapter,
) *Server {
	return &Server{
		System:         system,
		Context:        context,
		Engine:         eng,
		Metrics:        metrics,
		DB:             db,
		RequestTimeout: 5 * time.Second, // Default timeout for actor requests
	}
}

// request sends a message to an actor and unwraps the response. Actor-level
// AppErrors are written straight to the client with the mapped status code;
// the second return value tells the handler whether to continue.
func (s *Server) request(w http.ResponseWriter, handlerName string, pid *actor.PID, msg interface{}) (interface{}, bool) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		s.Metrics.IncrementErrors(handlerName)
		http.Error(w, "Request timed out", http.StatusInternalServerError)
		return nil, false
	}
	if appErr, ok := result.(*utils.AppError); ok {
		s.Metrics.IncrementErrors(handlerName)
		http.Error(w, appErr.Message, utils.AppErrorToHTTPStatus(appErr.Code))
		return nil, false
	}
	if err, ok := result.(error); ok {
		s.Metrics.IncrementErrors(handlerName)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return nil, false
	}
	return result, true
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// parseUUIDParam reads and parses a UUID query parameter. Writes a 400 and
// returns false when missing or malformed.
func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		http.Error(w, name+" required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
