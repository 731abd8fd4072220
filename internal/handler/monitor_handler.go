package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/elms-backend/internal/response"
	"github.com/stemsi/elms-backend/internal/service"
	ws "github.com/stemsi/elms-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler serves the live session monitor: a REST snapshot and a
// WebSocket feed of check-ins, script submissions and incidents.
type MonitorHandler struct {
	timetableService *service.TimetableService
	monitorService   *service.MonitorService
	log              zerolog.Logger
	upgrader         websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(timetableService *service.TimetableService, monitorService *service.MonitorService, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		timetableService: timetableService,
		monitorService:   monitorService,
		log:              log.With().Str("component", "monitor_handler").Logger(),
		upgrader:         buildUpgrader(allowedOrigins),
	}
}

// GetSnapshot godoc
// GET /api/v1/sessions/:session_id/monitor
// Returns the session's current logistics picture: status plus live counters.
func (h *MonitorHandler) GetSnapshot(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	session, _, err := h.timetableService.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	snapshot, err := h.monitorService.Snapshot(c.Request.Context(), session)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"snapshot": snapshot})
}

// MonitorStream godoc
// WS /ws/v1/sessions/:session_id/monitor
// Upgrades to WebSocket, sends the current snapshot, then forwards every
// monitor event published for the session until the client disconnects.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	if _, _, err := h.timetableService.GetSession(c.Request.Context(), sessionID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pgx.ErrNoRows) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "session not found"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("session_id", sessionID.String()).Logger()
	wsLog.Info().Msg("Monitor connected")

	ctx := c.Request.Context()

	if err := h.sendSnapshot(ctx, conn, sessionID); err != nil {
		wsLog.Warn().Err(err).Msg("Initial snapshot failed")
		return
	}

	// Forward published monitor events until the read loop ends. The
	// forwarder shares the connection with the read loop's replies; ws.Conn
	// serializes the writes.
	sub := h.monitorService.Subscribe(ctx, sessionID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range sub.Channel() {
			if err := conn.WriteTyped(ws.MonitorResponse{
				Event:   ws.EventMonitor,
				Payload: msg.Payload,
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Forward failed, dropping connection")
				return
			}
		}
	}()

	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch env.Action {
		case ws.ActionPing:
			if err := conn.WriteTyped(ws.PongResponse{Event: ws.EventPong}); err != nil {
				wsLog.Debug().Err(err).Msg("Pong failed")
			}
		case ws.ActionRefresh:
			if err := h.sendSnapshot(ctx, conn, sessionID); err != nil {
				wsLog.Warn().Err(err).Msg("Refresh snapshot failed")
				if err := conn.WriteError("snapshot failed"); err != nil {
					wsLog.Debug().Err(err).Msg("Error reply failed")
				}
			}
		default:
			wsLog.Warn().Str("action", string(env.Action)).Msg("Unknown action")
			if err := conn.WriteError("unknown action: " + string(env.Action)); err != nil {
				wsLog.Debug().Err(err).Msg("Error reply failed")
			}
		}
	}

	// Closing the subscription ends the forwarder's range; wait for it so no
	// write can race the deferred conn.Close.
	sub.Close()
	<-done
}

func (h *MonitorHandler) sendSnapshot(ctx context.Context, conn *ws.Conn, sessionID uuid.UUID) error {
	session, _, err := h.timetableService.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	snapshot, err := h.monitorService.Snapshot(ctx, session)
	if err != nil {
		return err
	}
	return conn.WriteTyped(ws.SnapshotResponse{Event: ws.EventSnapshot, Data: snapshot})
}
