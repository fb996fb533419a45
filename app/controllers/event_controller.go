package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"blogledger/app/events"

	"github.com/gorilla/websocket"
)

// EventController streams notifications to websocket clients
type EventController struct {
	bus      *events.EventBus
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewEventController(bus *events.EventBus, logger *slog.Logger) *EventController {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventController{
		bus: bus,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "stream"),
	}
}

// Stream upgrades the request and forwards every event of the requested
// types (?types=post.created,comment.created; all when omitted) until the
// client goes away.
func (ec *EventController) Stream(w http.ResponseWriter, r *http.Request) {
	types, err := parseEventTypes(r.URL.Query().Get("types"))
	if err != nil {
		sendError(w, err)
		return
	}
	conn, err := ec.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		ec.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	sub := events.NewWebsocketSubscriber(conn)
	ids := make(map[events.EventType]events.EventSubscriberId, len(types))
	for _, t := range types {
		ids[t] = ec.bus.RegisterSubscriber(t, sub)
	}
	ec.logger.Debug("stream opened", "remote", r.RemoteAddr, "types", len(types))

	// Clients only ever send close frames; reading is how we notice them.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				sub.Close()
				return
			}
		}
	}()

	<-sub.Done()
	for t, id := range ids {
		ec.bus.Unsubscribe(t, id)
	}
	ec.logger.Debug("stream closed", "remote", r.RemoteAddr)
}

func parseEventTypes(q string) ([]events.EventType, error) {
	if q == "" {
		return events.AllEventTypes, nil
	}
	var types []events.EventType
	seen := make(map[events.EventType]bool)
	for _, name := range strings.Split(q, ",") {
		t, ok := events.ParseEventType(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("%w: unknown event type %q", errBadRequest, name)
		}
		if !seen[t] {
			seen[t] = true
			types = append(types, t)
		}
	}
	return types, nil
}
