// Package alerts pushes user-facing alerts to the UI over a websocket and
// routes the user's choice (retry, cancel...) back to whoever raised them.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"field-agent/internal/timeutil"
)

// Alert types raised by the agent
const (
	TypeBranchFetchFailed = "branch_fetch_failed"
)

// Actions offered on alerts
const (
	ActionRetry  = "retry"
	ActionCancel = "cancel"
)

// ChoiceSuperseded marks alerts closed by Dismiss rather than by the user
const ChoiceSuperseded = "superseded"

// maxResolved bounds how many closed alerts are kept for ErrAlreadyClosed
// answers; open alerts are never dropped
const maxResolved = 20

type Alert struct {
	ID        int       `json:"id"`
	Severity  string    `json:"severity"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Actions   []string  `json:"actions,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Resolved  bool      `json:"resolved"`
	Choice    string    `json:"choice,omitempty"`
}

// ActionHandler runs when the user picks an action on an alert of a given type
type ActionHandler func(ctx context.Context, alert Alert, action string) error

var (
	ErrUnknownAlert  = errors.New("alert not found")
	ErrAlreadyClosed = errors.New("alert already resolved")
	ErrBadAction     = errors.New("action not offered by alert")
)

// actionMessage is what UI clients send back over the socket
type actionMessage struct {
	AlertID int    `json:"alert_id"`
	Action  string `json:"action"`
}

var upgrader = websocket.Upgrader{
	// The UI is served from a webview on the same device
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Hub struct {
	alerts    []Alert
	nextID    int
	alertsMux sync.RWMutex

	handlers    map[string]ActionHandler
	handlersMux sync.RWMutex

	clients    map[*websocket.Conn]bool
	clientsMux sync.Mutex
	broadcast  chan Alert

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		alerts:    make([]Alert, 0),
		handlers:  make(map[string]ActionHandler),
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Alert, 64),
		logger:    logger,
	}
}

// OnAction registers the handler for alerts of alertType
func (h *Hub) OnAction(alertType string, handler ActionHandler) {
	h.handlersMux.Lock()
	defer h.handlersMux.Unlock()
	h.handlers[alertType] = handler
}

// Publish records an alert and queues it for connected clients
func (h *Hub) Publish(alertType, severity, message string, actions ...string) Alert {
	h.alertsMux.Lock()
	h.nextID++
	alert := Alert{
		ID:        h.nextID,
		Severity:  severity,
		Type:      alertType,
		Message:   message,
		Actions:   actions,
		Timestamp: timeutil.Now(),
	}
	h.alerts = append(h.alerts, alert)
	h.pruneLocked()
	h.alertsMux.Unlock()

	h.logger.Warn("alert raised",
		zap.Int("id", alert.ID),
		zap.String("type", alertType),
		zap.String("message", message))

	select {
	case h.broadcast <- alert:
	default:
		h.logger.Warn("alert broadcast buffer full, clients will see it on reconnect", zap.Int("id", alert.ID))
	}
	return alert
}

// Active returns unresolved alerts, oldest first
func (h *Hub) Active() []Alert {
	h.alertsMux.RLock()
	defer h.alertsMux.RUnlock()

	out := make([]Alert, 0, len(h.alerts))
	for _, a := range h.alerts {
		if !a.Resolved {
			out = append(out, a)
		}
	}
	return out
}

// Resolve closes alert id with the user's action and runs the registered handler
func (h *Hub) Resolve(ctx context.Context, id int, action string) error {
	h.alertsMux.Lock()
	idx := -1
	for i := range h.alerts {
		if h.alerts[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		h.alertsMux.Unlock()
		return ErrUnknownAlert
	}
	alert := h.alerts[idx]
	if alert.Resolved {
		h.alertsMux.Unlock()
		return ErrAlreadyClosed
	}
	if !offers(alert, action) {
		h.alertsMux.Unlock()
		return fmt.Errorf("%w: %q", ErrBadAction, action)
	}
	h.alerts[idx].Resolved = true
	h.alerts[idx].Choice = action
	alert = h.alerts[idx]
	h.pruneLocked()
	h.alertsMux.Unlock()

	h.handlersMux.RLock()
	handler := h.handlers[alert.Type]
	h.handlersMux.RUnlock()

	if handler == nil {
		return nil
	}
	return handler(ctx, alert, action)
}

// Dismiss closes every open alert of alertType without running its handler,
// for when the condition behind it was dealt with some other way. It returns
// the number of alerts closed.
func (h *Hub) Dismiss(alertType string) int {
	h.alertsMux.Lock()
	defer h.alertsMux.Unlock()

	closed := 0
	for i := range h.alerts {
		if h.alerts[i].Type == alertType && !h.alerts[i].Resolved {
			h.alerts[i].Resolved = true
			h.alerts[i].Choice = ChoiceSuperseded
			closed++
		}
	}
	if closed > 0 {
		h.pruneLocked()
		h.logger.Info("alerts dismissed", zap.String("type", alertType), zap.Int("count", closed))
	}
	return closed
}

// pruneLocked drops the oldest resolved alerts beyond maxResolved.
// Callers hold alertsMux.
func (h *Hub) pruneLocked() {
	resolved := 0
	for _, a := range h.alerts {
		if a.Resolved {
			resolved++
		}
	}
	drop := resolved - maxResolved
	if drop <= 0 {
		return
	}

	kept := h.alerts[:0]
	for _, a := range h.alerts {
		if a.Resolved && drop > 0 {
			drop--
			continue
		}
		kept = append(kept, a)
	}
	h.alerts = kept
}

func offers(a Alert, action string) bool {
	for _, candidate := range a.Actions {
		if candidate == action {
			return true
		}
	}
	return false
}

// Run forwards published alerts to websocket clients until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeClients()
			return
		case alert := <-h.broadcast:
			h.send(alert)
		}
	}
}

func (h *Hub) send(alert Alert) {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()

	for client := range h.clients {
		if err := client.WriteJSON(alert); err != nil {
			client.Close()
			delete(h.clients, client)
		}
	}
}

func (h *Hub) closeClients() {
	h.clientsMux.Lock()
	defer h.clientsMux.Unlock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
}

// ServeWS upgrades the request, replays active alerts and then reads action
// messages until the client disconnects
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.clientsMux.Lock()
	for _, alert := range h.Active() {
		if err := conn.WriteJSON(alert); err != nil {
			h.clientsMux.Unlock()
			conn.Close()
			return
		}
	}
	h.clients[conn] = true
	h.clientsMux.Unlock()

	defer func() {
		h.clientsMux.Lock()
		delete(h.clients, conn)
		h.clientsMux.Unlock()
		conn.Close()
	}()

	for {
		var msg actionMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if err := h.Resolve(r.Context(), msg.AlertID, msg.Action); err != nil {
			h.logger.Info("alert action rejected",
				zap.Int("id", msg.AlertID),
				zap.String("action", msg.Action),
				zap.Error(err))
		}
	}
}
