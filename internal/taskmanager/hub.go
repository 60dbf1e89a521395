package taskmanager

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/websocket"

	"github.com/weiback-dev/weiback/internal/model"
)

// Hub is a tiny local live-progress feed for the active task. It
// exists purely as a push-based convenience for a GUI adapter that
// would otherwise have to poll GetCurrentTaskStatus/
// GetAndClearSubTaskErrors; the drain-on-read buffer stays the
// authoritative source of truth. Adapted from the teacher's
// realtimeHub (internal/handlers/realtime_ws.go), collapsed from a
// per-user connection map down to one set of subscribers since WeiBack
// only ever has one active task.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	log   *log.Logger
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{conns: make(map[*websocket.Conn]struct{}), log: logger}
}

type hubEvent struct {
	Type       string               `json:"type"`
	TaskID     string               `json:"task_id,omitempty"`
	Kind       Kind                 `json:"kind,omitempty"`
	Status     Status               `json:"status,omitempty"`
	Progress   int                  `json:"progress,omitempty"`
	Total      int                  `json:"total,omitempty"`
	Error      string               `json:"error,omitempty"`
	SubTaskErr *model.SubTaskError  `json:"subtask_error,omitempty"`
	At         string               `json:"at"`
}

func (h *Hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		out = append(out, c)
	}
	return out
}

func (h *Hub) send(ev hubEvent) {
	ev.At = time.Now().UTC().Format(time.RFC3339)
	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Printf("[TaskHub] marshal_failed err=%v", err)
		return
	}
	for _, c := range h.snapshot() {
		if err := websocket.Message.Send(c, string(b)); err != nil {
			_ = c.Close()
			h.remove(c)
		}
	}
}

func (h *Hub) broadcastTask(t *Task) {
	h.send(hubEvent{
		Type:     "task",
		TaskID:   t.ID,
		Kind:     t.Kind,
		Status:   t.Status,
		Progress: t.Progress,
		Total:    t.Total,
		Error:    t.Error,
	})
}

func (h *Hub) broadcastSubTaskError(taskID string, e model.SubTaskError) {
	h.send(hubEvent{Type: "subtask_error", TaskID: taskID, SubTaskErr: &e})
}

// ServeHTTP upgrades the request to a websocket and streams task
// events until the client disconnects. Loopback-only by default, same
// spirit as the teacher's internalWSAllowed dev-convenience check, but
// simplified: this is a single-user desktop tool, not a multi-tenant
// backend, so there is no per-user secret to check.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsServer := websocket.Server{
		Handshake: func(cfg *websocket.Config, req *http.Request) error {
			host, _, err := net.SplitHostPort(req.RemoteAddr)
			if err != nil {
				return err
			}
			if ip := net.ParseIP(host); ip == nil || !ip.IsLoopback() {
				return fmt.Errorf("websocket from non-loopback address %s refused", req.RemoteAddr)
			}
			return nil
		},
		Handler: func(c *websocket.Conn) {
			h.add(c)
			defer h.remove(c)
			h.log.Printf("[TaskHub] connect remote=%s", r.RemoteAddr)
			defer h.log.Printf("[TaskHub] disconnect remote=%s", r.RemoteAddr)

			for {
				var ignored string
				if err := websocket.Message.Receive(c, &ignored); err != nil {
					return
				}
			}
		},
	}
	wsServer.ServeHTTP(w, r)
}
