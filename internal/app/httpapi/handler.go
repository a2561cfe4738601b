package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	app "github.com/R3E-Network/gameoflife/internal/app"
	"github.com/R3E-Network/gameoflife/internal/app/metrics"
	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/internal/httputil"
	"github.com/R3E-Network/gameoflife/internal/middleware"
	"github.com/R3E-Network/gameoflife/pkg/api"
	"github.com/R3E-Network/gameoflife/pkg/logger"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins    []string
	RequestsPerSecond int
	Burst             int
	// RateLimiter overrides the limiter built from RequestsPerSecond.
	RateLimiter *middleware.RateLimiter
}

// handler bundles HTTP endpoints for the board service.
type handler struct {
	app      *app.Application
	log      *logger.Logger
	upgrader *streamUpgrader
}

// NewHandler returns the REST API wrapped in the middleware chain.
func NewHandler(application *app.Application, opts Options, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &handler{app: application, log: log, upgrader: newStreamUpgrader(opts.AllowedOrigins)}

	r := mux.NewRouter()
	r.Use(middleware.MetricsMiddleware())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusNotFound, httputil.ErrorEnvelope(errors.CodeBadRequest))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorEnvelope(errors.CodeBadRequest))
	})

	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	games := r.PathPrefix("/GameOfLife").Subrouter()
	games.HandleFunc("", h.newGame).Methods(http.MethodPost)
	games.HandleFunc("/{boardId}", h.loadGame).Methods(http.MethodGet)
	games.HandleFunc("/{boardId}", h.endGame).Methods(http.MethodDelete)
	games.HandleFunc("/next_state/{boardId}", h.nextState).Methods(http.MethodGet)
	games.HandleFunc("/increment_state/{boardId}/{statesToIncrement}", h.incrementState).Methods(http.MethodGet)
	games.HandleFunc("/final/{boardId}", h.final).Methods(http.MethodGet)
	games.HandleFunc("/stream/{boardId}/{statesToIncrement}", h.stream).Methods(http.MethodGet)

	var out http.Handler = r
	limiter := opts.RateLimiter
	if limiter == nil && opts.RequestsPerSecond > 0 {
		limiter = middleware.NewRateLimiter(opts.RequestsPerSecond, opts.Burst, log.Named("ratelimit"))
	}
	if limiter != nil {
		out = limiter.Handler(out)
	}
	out = middleware.NewCORSMiddleware(opts.AllowedOrigins).Handler(out)
	out = middleware.NewTracingMiddleware(log.Named("http")).Handler(out)
	return middleware.Recovery(log)(out)
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (h *handler) newGame(w http.ResponseWriter, r *http.Request) {
	var payload api.BoardModelRequest
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		h.writeError(w, r, err)
		return
	}
	created, err := h.app.Boards.NewGame(r.Context(), toBoard(payload))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromBoard(created, nil))
}

func (h *handler) loadGame(w http.ResponseWriter, r *http.Request) {
	b, err := h.app.Boards.LoadGame(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromBoard(b, nil))
}

func (h *handler) endGame(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.app.Boards.EndGame(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, deleted)
}

func (h *handler) nextState(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Boards.NextState(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromResult(res))
}

func (h *handler) incrementState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	steps, err := parseSteps(vars["statesToIncrement"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.app.Boards.IncrementState(r.Context(), vars["boardId"], steps)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromResult(res))
}

func (h *handler) final(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Boards.IncrementTillTheLimit(r.Context(), mux.Vars(r)["boardId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromResult(res))
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := errors.From(err)
	entry := h.log.WithContext(r.Context()).WithError(err).WithField("code", svcErr.Code)
	if svcErr.Kind == errors.KindInternal {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	httputil.WriteServiceError(w, svcErr)
}

func parseSteps(raw string) (int, error) {
	steps, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.Validationf("states to increment %q is not an integer", raw)
	}
	return steps, nil
}
