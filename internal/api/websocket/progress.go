package websocket

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/drujensen/datamodels/internal/domain/entities"
	"github.com/drujensen/datamodels/internal/domain/events"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 5 * time.Second

const (
	MessagePhaseStarted  = "phase-started"
	MessagePhaseSettled  = "phase-settled"
	MessageRunCompleted  = "run-completed"
	MessageLedgerChanged = "ledger-changed"
)

// ProgressMessage is what clients of /ws receive for every generation event.
type ProgressMessage struct {
	Type       string             `json:"type"`
	RunID      string             `json:"runId,omitempty"`
	Phase      entities.PhaseName `json:"phase,omitempty"`
	Calls      int                `json:"calls,omitempty"`
	Failed     int                `json:"failed,omitempty"`
	DurationMs int64              `json:"durationMs,omitempty"`
	Entities   int                `json:"entities,omitempty"`
}

// ProgressHub fans generation events out to every connected client. All
// connection bookkeeping and writes happen on the Run goroutine.
type ProgressHub struct {
	logger     *zap.Logger
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan ProgressMessage
	done       chan struct{}
	count      atomic.Int32
}

func NewProgressHub(logger *zap.Logger) *ProgressHub {
	return &ProgressHub{
		logger:     logger,
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan ProgressMessage, 64),
		done:       make(chan struct{}),
	}
}

// Clients returns the number of registered connections.
func (h *ProgressHub) Clients() int {
	return int(h.count.Load())
}

// Run subscribes to generation events and serves clients until ctx is done.
func (h *ProgressHub) Run(ctx context.Context) {
	unsubs := []func(){
		events.SubscribeToPhaseStarted(func(e events.PhaseStartedEvent) {
			h.Broadcast(ProgressMessage{Type: MessagePhaseStarted, RunID: e.RunID, Phase: e.Phase, Calls: e.Calls})
		}),
		events.SubscribeToPhaseSettled(func(e events.PhaseSettledEvent) {
			h.Broadcast(ProgressMessage{
				Type:       MessagePhaseSettled,
				RunID:      e.RunID,
				Phase:      e.Phase,
				Calls:      e.Calls,
				Failed:     e.Failed,
				DurationMs: e.Duration.Milliseconds(),
			})
		}),
		events.SubscribeToRunCompleted(func(e events.RunCompletedEvent) {
			h.Broadcast(ProgressMessage{
				Type:       MessageRunCompleted,
				RunID:      e.RunID,
				Calls:      e.Report.Dispatched(),
				Failed:     e.Report.Failed(),
				DurationMs: e.Report.FinishedAt.Sub(e.Report.StartedAt).Milliseconds(),
			})
		}),
		events.SubscribeToLedgerChanged(func(e events.LedgerChangedEvent) {
			h.Broadcast(ProgressMessage{Type: MessageLedgerChanged, Entities: e.Size})
		}),
	}
	defer func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				conn.Close()
			}
			h.clients = map[*websocket.Conn]bool{}
			h.count.Store(0)
			close(h.done)
			return
		case conn := <-h.register:
			h.clients[conn] = true
			h.count.Store(int32(len(h.clients)))
		case conn := <-h.unregister:
			h.remove(conn)
		case msg := <-h.broadcast:
			for conn := range h.clients {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(msg); err != nil {
					h.logger.Debug("Dropping progress client", zap.Error(err))
					h.remove(conn)
				}
			}
		}
	}
}

func (h *ProgressHub) remove(conn *websocket.Conn) {
	if h.clients[conn] {
		delete(h.clients, conn)
		conn.Close()
	}
	h.count.Store(int32(len(h.clients)))
}

// Broadcast queues msg for every client. It is a no-op once the hub stopped.
func (h *ProgressHub) Broadcast(msg ProgressMessage) {
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

// Handler upgrades the request and keeps the connection registered until the
// client goes away. Clients only listen; anything they send is discarded.
func (h *ProgressHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("Websocket upgrade failed", zap.Error(err))
			return
		}

		select {
		case h.register <- conn:
		case <-h.done:
			conn.Close()
			return
		}

		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}

		select {
		case h.unregister <- conn:
		case <-h.done:
		}
	}
}
