// Package live ingests the OpenF1 real-time feeds: car locations over MQTT,
// relayed between processes over NATS, and polled timing data.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"f1-pitwall/internal/f1"
	"f1-pitwall/internal/shared/logs"
	"f1-pitwall/internal/shared/metrics"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	reconnectInterval = 5 * time.Second
	connectTimeout    = 30 * time.Second
)

// TokenProvider supplies the password for the MQTT broker.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

type MQTTConfig struct {
	URL      string
	Username string
	Topic    string
}

// Subscriber streams location samples from the OpenF1 MQTT broker into sink.
type Subscriber struct {
	cfg     MQTTConfig
	tokens  TokenProvider
	sink    func(f1.TelemetryLocation)
	client  mqtt.Client
	log     *slog.Logger
	metrics *metrics.LiveMetrics
}

func NewSubscriber(cfg MQTTConfig, tokens TokenProvider, sink func(f1.TelemetryLocation)) *Subscriber {
	return &Subscriber{
		cfg:     cfg,
		tokens:  tokens,
		sink:    sink,
		log:     logs.Component("mqtt"),
		metrics: metrics.GetLive(),
	}
}

func clientID() string {
	return "pitwall_" + uuid.NewString()[:8]
}

// credentials is called on every (re)connect so an expired token is never reused.
func (s *Subscriber) credentials() (string, string) {
	if s.tokens == nil {
		return s.cfg.Username, ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	token, err := s.tokens.Token(ctx)
	if err != nil {
		s.log.Error("mqtt token unavailable", "error", err)
		s.metrics.Errors.WithLabelValues("mqtt_token").Inc()
	}
	return s.cfg.Username, token
}

func (s *Subscriber) options() *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(s.cfg.URL).
		SetClientID(clientID()).
		SetCredentialsProvider(s.credentials).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(reconnectInterval).
		SetMaxReconnectInterval(reconnectInterval).
		SetConnectTimeout(connectTimeout).
		SetOnConnectHandler(func(c mqtt.Client) {
			s.log.Info("mqtt connected", "broker", s.cfg.URL, "topic", s.cfg.Topic)
			token := c.Subscribe(s.cfg.Topic, 0, func(_ mqtt.Client, m mqtt.Message) {
				s.handle(m.Topic(), m.Payload())
			})
			if token.WaitTimeout(connectTimeout) && token.Error() != nil {
				s.log.Error("mqtt subscribe failed", "topic", s.cfg.Topic, "error", token.Error())
			}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warn("mqtt connection lost", "error", err)
			s.metrics.Errors.WithLabelValues("mqtt_connection").Inc()
		})
}

// Start connects to the broker. Reconnects happen in the background until Stop.
func (s *Subscriber) Start(ctx context.Context) error {
	s.client = mqtt.NewClient(s.options())
	token := s.client.Connect()

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return nil
}

func (s *Subscriber) Stop() {
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

func (s *Subscriber) handle(topic string, payload []byte) {
	if topic != s.cfg.Topic {
		return
	}
	var loc f1.TelemetryLocation
	if err := json.Unmarshal(payload, &loc); err != nil {
		s.log.Debug("dropping malformed location", "error", err)
		s.metrics.Errors.WithLabelValues("decode").Inc()
		return
	}
	s.metrics.Samples.Inc()
	s.sink(loc)
}
