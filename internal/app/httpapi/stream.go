package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/R3E-Network/gameoflife/internal/app/domain/board"
	"github.com/R3E-Network/gameoflife/internal/errors"
	"github.com/R3E-Network/gameoflife/internal/httputil"
)

const streamWriteWait = 10 * time.Second

type streamUpgrader struct {
	websocket.Upgrader
}

func newStreamUpgrader(allowedOrigins []string) *streamUpgrader {
	allowed := make(map[string]bool, len(allowedOrigins))
	allowAll := false
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &streamUpgrader{Upgrader: websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowAll || allowed[origin]
		},
	}}
}

// stream upgrades to a websocket and sends one board frame per persisted
// generation. Request errors found before the upgrade are plain HTTP
// responses; later errors become an error frame and a close.
func (h *handler) stream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	steps, err := parseSteps(vars["statesToIncrement"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if steps < 1 {
		h.writeError(w, r, errors.Validationf("states to increment must be at least 1, got %d", steps))
		return
	}
	if _, err := h.app.Boards.LoadGame(r.Context(), vars["boardId"]); err != nil {
		h.writeError(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithContext(r.Context()).WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reads only detect the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	res, err := h.app.Boards.StreamState(ctx, vars["boardId"], steps, func(ctx context.Context, _ int, b board.Board) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(fromBoard(b, nil))
	})

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	if err != nil {
		svcErr := errors.From(err)
		h.log.WithContext(r.Context()).WithError(err).
			WithField("generations", res.Generations).
			Warn("stream stopped")
		_ = conn.WriteJSON(httputil.ErrorEnvelope(svcErr.Code))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, svcErr.Message))
		return
	}

	if len(res.Warnings) > 0 {
		_ = conn.WriteJSON(httputil.ErrorEnvelope(res.Warnings...))
	}
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
