package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSnapshot Event = "snapshot"
	EventMonitor  Event = "monitor"
	EventError    Event = "error"
	EventPong     Event = "pong"
)

// SnapshotResponse carries the full session picture, sent on connect and on
// an explicit refresh request.
type SnapshotResponse struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data"`
}

// MonitorResponse forwards one feed event as published, without re-decoding.
type MonitorResponse struct {
	Event   Event  `json:"event"`
	Payload string `json:"payload"` // the published JSON string, verbatim
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
