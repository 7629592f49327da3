// Package feed streams game events to websocket clients, one topic per
// company.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"studiosim/internal/game"
)

const (
	writeWait  = 5 * time.Second
	readWait   = 60 * time.Second
	pingEvery  = 25 * time.Second
	sendBuffer = 64
)

type subscriber struct {
	out chan []byte
}

// Hub fans events out to subscribers. A slow subscriber loses events rather
// than stalling the publisher.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		log: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 8 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Publish matches game.Listener.
func (h *Hub) Publish(ev game.Event) {
	h.mu.Lock()
	set := h.subs[ev.CompanyID]
	targets := make([]*subscriber, 0, len(set))
	for sub := range set {
		targets = append(targets, sub)
	}
	h.mu.Unlock()
	if len(targets) == 0 {
		return
	}

	b, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode feed event", "company_id", ev.CompanyID, "err", err)
		return
	}
	for _, sub := range targets {
		select {
		case sub.out <- b:
		default:
			h.log.Warn("feed subscriber lagging, event dropped", "company_id", ev.CompanyID)
		}
	}
}

func (h *Hub) Subscribers(companyID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[companyID])
}

func (h *Hub) add(companyID string) *subscriber {
	sub := &subscriber{out: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[companyID]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[companyID] = set
	}
	set[sub] = struct{}{}
	return sub
}

func (h *Hub) remove(companyID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[companyID], sub)
	if len(h.subs[companyID]) == 0 {
		delete(h.subs, companyID)
	}
}

// Serve upgrades the request and streams events for companyID until the
// client goes away. Callers authorize before calling.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, companyID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := h.add(companyID)
	defer h.remove(companyID, sub)
	h.log.Info("feed subscriber joined", "company_id", companyID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(readWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(readWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case b := <-sub.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
