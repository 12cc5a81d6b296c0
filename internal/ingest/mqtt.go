// Package ingest feeds OwnTracks location messages from an MQTT broker into
// the ping pipeline.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/pepsafe/pepsafe-backend-go/internal/metrics"
	"github.com/pepsafe/pepsafe-backend-go/internal/models"
)

const (
	defaultProcessTimeout = 15 * time.Second
	connectTimeout        = 10 * time.Second
	disconnectQuiesceMs   = 250
)

// PingProcessor runs the ingestion pipeline.
type PingProcessor interface {
	ProcessPing(ctx context.Context, req *models.PingRequest) (*models.PingResponse, error)
}

// Config configures the MQTT subscription.
type Config struct {
	BrokerURL string
	Topic     string
	ClientID  string
	// SubjectID receives every location, whatever tracker sent it.
	SubjectID string
	// ProcessTimeout bounds one message's trip through the pipeline.
	ProcessTimeout time.Duration
}

// Subscriber consumes OwnTracks messages.
type Subscriber struct {
	cfg       Config
	processor PingProcessor
	logger    *slog.Logger
	client    mqtt.Client
	stopOnce  sync.Once
}

// NewSubscriber creates a subscriber. Call Start to connect.
func NewSubscriber(cfg Config, processor PingProcessor, logger *slog.Logger) *Subscriber {
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = defaultProcessTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		cfg:       cfg,
		processor: processor,
		logger:    logger.With("component", "mqtt"),
	}
}

// Start connects to the broker and subscribes on every (re)connect. Messages
// are processed until ctx is done or Stop is called.
func (s *Subscriber) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.BrokerURL)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetOrderMatters(true)
	opts.SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
		if err := s.HandleMessage(ctx, msg.Payload()); err != nil {
			s.logger.Warn("mqtt message dropped", "error", err)
		}
	})
	opts.OnConnect = func(client mqtt.Client) {
		token := client.Subscribe(s.cfg.Topic, 1, nil)
		token.Wait()
		if err := token.Error(); err != nil {
			s.logger.Error("mqtt subscribe failed", "topic", s.cfg.Topic, "error", err)
			return
		}
		s.logger.Info("mqtt subscribed", "topic", s.cfg.Topic)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		s.logger.Warn("mqtt connection lost", "error", err)
	}

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		// SetConnectRetry keeps trying in the background
		s.logger.Warn("mqtt broker not reachable yet, retrying in background")
	} else if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop disconnects from the broker and cancels pending reconnects.
func (s *Subscriber) Stop() {
	s.stopOnce.Do(func() {
		if s.client != nil {
			s.client.Disconnect(disconnectQuiesceMs)
			s.logger.Info("mqtt disconnected")
		}
	})
}

// HandleMessage decodes one OwnTracks payload and runs it through the
// pipeline. Non-location messages are ignored.
func (s *Subscriber) HandleMessage(ctx context.Context, payload []byte) error {
	var msg models.OwnTracksLocation
	if err := json.Unmarshal(payload, &msg); err != nil {
		metrics.MQTTMessagesTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("failed to decode owntracks message: %w", err)
	}

	if !msg.IsLocation() {
		metrics.MQTTMessagesTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.ProcessTimeout)
	defer cancel()

	req := msg.ToPingRequest(s.cfg.SubjectID)
	if _, err := s.processor.ProcessPing(ctx, &req); err != nil {
		if errors.Is(err, models.ErrInvalidPing) {
			metrics.MQTTMessagesTotal.WithLabelValues("invalid").Inc()
		} else {
			metrics.MQTTMessagesTotal.WithLabelValues("failed").Inc()
		}
		return err
	}

	metrics.MQTTMessagesTotal.WithLabelValues("processed").Inc()
	return nil
}
