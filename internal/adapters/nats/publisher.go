package natsadapter

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// Subjects published by wildlens.
const (
	SubjectSightingsCreated = "sightings.created"
	SubjectReportsCreated   = "reports.created"
	SubjectFavoriteAlerts   = "alerts.favorites"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := Connect(url)
	if err != nil {
		return nil, err
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// Ensure streams exist
	streams := []nats.StreamConfig{
		{
			Name:      "SIGHTINGS",
			Subjects:  []string{SubjectSightingsCreated + ".>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "REPORTS",
			Subjects:  []string{SubjectReportsCreated},
			Retention: nats.LimitsPolicy,
			MaxAge:    30 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "FAVORITE_ALERTS",
			Subjects:  []string{SubjectFavoriteAlerts + ".>"},
			Retention:  nats.InterestPolicy,
			MaxAge:     24 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: alertDedupeWindow,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist, try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSightingCreated publishes to sightings.created.<type>.
func (p *Publisher) PublishSightingCreated(ctx context.Context, s *domain.Sighting) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSightingsCreated+"."+string(s.Type), data, nats.Context(ctx), nats.MsgId(s.ID))
	return err
}

// PublishReportCreated publishes to reports.created.
func (p *Publisher) PublishReportCreated(ctx context.Context, r *domain.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectReportsCreated, data, nats.Context(ctx), nats.MsgId(r.ID))
	return err
}

// PublishFavoriteAlert publishes to alerts.favorites.<user-key>.
func (p *Publisher) PublishFavoriteAlert(ctx context.Context, alert *domain.FavoriteAlert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	opts := []nats.PubOpt{nats.Context(ctx)}
	if id := alertMsgID(alert); id != "" {
		opts = append(opts, nats.MsgId(id))
	}
	_, err = p.js.Publish(AlertSubject(alert.Email), data, opts...)
	return err
}

// alertDedupeWindow covers every redelivery of a sighting event.
const alertDedupeWindow = 15 * time.Minute

// alertMsgID identifies one alert per sighting and user, so a redelivered
// sighting does not alert the same user twice.
func alertMsgID(alert *domain.FavoriteAlert) string {
	if alert.SightingID == "" {
		return ""
	}
	return alert.SightingID + ":" + strings.ToLower(strings.TrimSpace(alert.Email))
}

// Ping reports whether the connection is up.
func (p *Publisher) Ping(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("nats: %s", p.conn.Status())
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// AlertSubject is the per-user alert subject. The token is the hex of the
// normalised email, which is a valid NATS token and unique per address.
func AlertSubject(email string) string {
	key := hex.EncodeToString([]byte(strings.ToLower(strings.TrimSpace(email))))
	return SubjectFavoriteAlerts + "." + key
}

// Connect opens a plain NATS connection (e.g. for the WebSocket relay).
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("wildlens"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return conn, nil
}
