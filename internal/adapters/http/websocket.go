package http

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/wildlens/internal/adapters/nats"
	"github.com/samirrijal/wildlens/internal/core/domain"
	"github.com/samirrijal/wildlens/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "alerts" | "sightings"
	Type    string `json:"type"`    // sighting category filter (optional, "" = all)
}

// WebSocketHandler relays NATS events to a signed-in client. The user's
// favourite alerts are subscribed on connect. Clients may also send
// {"action":"subscribe","channel":"sightings","type":"bird"} for the live
// sighting feed.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		user, _ := c.Locals(userLocalKey).(*domain.UserProfile)
		if user == nil || nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "live updates unavailable"})
			return
		}

		log := slog.Default().With("remote_addr", c.RemoteAddr().String(), "email", user.Email)
		log.Info("ws client connected")
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Helper: thread-safe write
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		relay := func(msg *nats.Msg) {
			if payload, ok := relayPayload(msg.Subject, msg.Data, user.Email); ok {
				_ = writeJSON(payload)
			}
		}

		alertSubject := natsadapter.AlertSubject(user.Email)
		sub, err := nc.Subscribe(alertSubject, relay)
		if err != nil {
			log.Error("ws alert subscribe failed", "error", err)
			return
		}
		subs[alertSubject] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			subject, errMsg := wsSubject(m, alertSubject)
			if errMsg != "" {
				_ = writeJSON(map[string]string{"error": errMsg})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		log.Info("ws client disconnected")
	}
}

// wsSubject resolves a client request to a NATS subject. Users can only
// reach their own alert subject.
func wsSubject(m wsMessage, alertSubject string) (string, string) {
	switch m.Channel {
	case "", "alerts":
		return alertSubject, ""
	case "sightings":
		if m.Type == "" {
			return natsadapter.SubjectSightingsCreated + ".>", ""
		}
		category, err := domain.ParseCategory(m.Type)
		if err != nil {
			return "", "unknown sighting type: " + m.Type
		}
		return natsadapter.SubjectSightingsCreated + "." + string(category), ""
	default:
		return "", "unknown channel: " + m.Channel
	}
}

// relayPayload decides what a client signed in as email sees for a NATS
// message. Sighting events are stripped of the reporter's email and alerts
// addressed to anyone else are dropped.
func relayPayload(subject string, data []byte, email string) (any, bool) {
	switch {
	case strings.HasPrefix(subject, natsadapter.SubjectSightingsCreated+"."):
		var sg domain.Sighting
		if err := json.Unmarshal(data, &sg); err != nil {
			return nil, false
		}
		return sg.Public(), true

	case strings.HasPrefix(subject, natsadapter.SubjectFavoriteAlerts+"."):
		var alert domain.FavoriteAlert
		if err := json.Unmarshal(data, &alert); err != nil {
			return nil, false
		}
		if !strings.EqualFold(strings.TrimSpace(alert.Email), strings.TrimSpace(email)) {
			return nil, false
		}
		return json.RawMessage(data), true
	}
	return json.RawMessage(data), true
}
