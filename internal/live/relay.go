package live

import (
	"encoding/json"
	"fmt"

	natscore "f1-pitwall/internal/core/nats"
	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"

	natslib "github.com/nats-io/nats.go"
)

// Conn is the core NATS surface the relay needs.
type Conn interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, cb natslib.MsgHandler) (*natslib.Subscription, error)
}

// Ingester receives relayed samples.
type Ingester interface {
	Ingest(loc f1.TelemetryLocation) error
}

// Relay fans location samples out to every API instance over core NATS.
type Relay struct {
	conn    Conn
	subject string
}

func NewRelay(conn Conn) *Relay {
	return &Relay{conn: conn, subject: natscore.SubjectTelemetryLocation}
}

// Publish sends one sample. Failures are logged; live data is best effort.
func (r *Relay) Publish(loc f1.TelemetryLocation) {
	data, err := json.Marshal(loc)
	if err != nil {
		logs.Error("encode location", "error", err)
		return
	}
	if err := r.conn.Publish(r.subject, data); err != nil {
		logs.Warn("relay publish failed", "subject", r.subject, "error", err)
		metrics.GetLive().Errors.WithLabelValues("relay_publish").Inc()
	}
}

// Subscribe feeds every relayed sample into dst.
func (r *Relay) Subscribe(dst Ingester) (*natslib.Subscription, error) {
	sub, err := r.conn.Subscribe(r.subject, func(m *natslib.Msg) {
		var loc f1.TelemetryLocation
		if err := json.Unmarshal(m.Data, &loc); err != nil {
			metrics.GetLive().Errors.WithLabelValues("decode").Inc()
			return
		}
		if err := dst.Ingest(loc); err != nil {
			logs.Debug("relayed sample rejected", "driver_number", loc.DriverNumber, "error", err)
			metrics.GetLive().Errors.WithLabelValues("ingest").Inc()
			return
		}
		metrics.GetLive().Samples.Inc()
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", r.subject, err)
	}
	return sub, nil
}
