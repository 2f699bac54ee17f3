package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"ninebox/domain/employee"
	intel "ninebox/domain/intelligence"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Event types streamed to subscribers
const (
	EventReportReady       = "report_ready"
	EventPopulationChanged = "population_replaced"
)

// Event is one server-sent notification
type Event struct {
	Type           string    `json:"event_type"`
	ReportID       string    `json:"report_id,omitempty"`
	Axis           string    `json:"axis,omitempty"`
	QualityScore   *int      `json:"quality_score,omitempty"`
	Anomalies      int       `json:"anomalies"`
	PopulationHash string    `json:"population_hash"`
	Employees      int       `json:"employees"`
	Timestamp      time.Time `json:"timestamp"`
}

func reportEvent(r *intel.Report) Event {
	score := r.QualityScore
	return Event{
		Type:           EventReportReady,
		ReportID:       r.ID.String(),
		Axis:           string(r.Axis),
		QualityScore:   &score,
		Anomalies:      r.AnomalyCounts.Total,
		PopulationHash: r.PopulationHash.String(),
		Employees:      r.PopulationSize,
		Timestamp:      r.GeneratedAt,
	}
}

func populationEvent(pop employee.Population) Event {
	return Event{
		Type:           EventPopulationChanged,
		PopulationHash: pop.Hash().String(),
		Employees:      pop.Len(),
		Timestamp:      time.Now().UTC(),
	}
}

// EventHub fans events out to every connected subscriber. Slow subscribers
// miss events rather than blocking the publisher.
type EventHub struct {
	clients    map[chan Event]bool
	clientsMu  sync.RWMutex
	register   chan chan Event
	unregister chan chan Event
	broadcast  chan Event
	done       chan struct{}
	closeOnce  sync.Once
}

// NewEventHub creates a hub and starts its dispatch loop
func NewEventHub() *EventHub {
	hub := &EventHub{
		clients:    make(map[chan Event]bool),
		register:   make(chan chan Event),
		unregister: make(chan chan Event),
		broadcast:  make(chan Event, 100),
		done:       make(chan struct{}),
	}

	go hub.run()
	return hub
}

func (h *EventHub) run() {
	for {
		select {
		case ch := <-h.register:
			h.clientsMu.Lock()
			h.clients[ch] = true
			h.clientsMu.Unlock()
			log.Debug().Int("clients", h.ClientCount()).Msg("event subscriber registered")

		case ch := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[ch] {
				delete(h.clients, ch)
				close(ch)
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for ch := range h.clients {
				select {
				case ch <- event:
				default:
					log.Debug().Str("event", event.Type).Msg("subscriber channel full, skipping event")
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			h.clientsMu.Lock()
			for ch := range h.clients {
				close(ch)
			}
			h.clients = make(map[chan Event]bool)
			h.clientsMu.Unlock()
			return
		}
	}
}

// Subscribe registers a subscriber. Once it returns, every later Broadcast
// is delivered to the channel. The cancel function unregisters it.
func (h *EventHub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 10)
	select {
	case h.register <- ch:
	case <-h.done:
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			select {
			case h.unregister <- ch:
			case <-h.done:
			}
		})
	}
}

// Broadcast queues an event for every subscriber
func (h *EventHub) Broadcast(event Event) {
	select {
	case h.broadcast <- event:
	default:
		log.Warn().Str("event", event.Type).Msg("broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of active subscribers
func (h *EventHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close stops the dispatch loop and closes every subscriber channel
func (h *EventHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// HandleSSE streams hub events to the client until it disconnects
func (h *EventHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, cancel := h.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				log.Error().Err(err).Msg("failed to marshal event")
				return true
			}
			c.SSEvent(event.Type, string(payload))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
