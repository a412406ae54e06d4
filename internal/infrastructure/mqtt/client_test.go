package mqtt

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/taskforge/taskforge-core/internal/infrastructure/config"
)

func TestPublish_Validation(t *testing.T) {
	c := &Client{cfg: config.MQTTConfig{QoS: 1}}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"invalid qos", TopicTaskEvents, []byte("x"), 3, ErrInvalidQoS},
		{"oversized payload", TopicTaskEvents, bytes.Repeat([]byte("x"), maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", TopicTaskEvents, []byte("x"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStatusPayload(t *testing.T) {
	payload := statusPayload("taskforge-core", "offline", "graceful_shutdown")

	var decoded map[string]string
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("status payload is not valid JSON: %v", err)
	}
	if decoded["status"] != "offline" || decoded["reason"] != "graceful_shutdown" {
		t.Errorf("payload = %v, want offline/graceful_shutdown", decoded)
	}
	if decoded["timestamp"] == "" {
		t.Error("payload should carry a timestamp")
	}

	online := statusPayload("taskforge-core", "online", "")
	if strings.Contains(online, "reason") {
		t.Error("online payload should omit the reason field")
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Host:     "broker.local",
		Port:     8883,
		TLS:      true,
		ClientID: "taskforge-core",
		Username: "svc",
		Password: "secret",
		QoS:      1,
	}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 {
		t.Fatalf("expected 1 broker, got %d", len(opts.Servers))
	}
	if got := opts.Servers[0].String(); got != "ssl://broker.local:8883" {
		t.Errorf("broker URL = %q, want ssl://broker.local:8883", got)
	}
	if opts.ClientID != "taskforge-core" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "svc" {
		t.Errorf("Username = %q", opts.Username)
	}
	if opts.WillTopic != TopicSystemStatus {
		t.Errorf("WillTopic = %q, want %q", opts.WillTopic, TopicSystemStatus)
	}
	if !opts.WillRetained {
		t.Error("LWT should be retained")
	}
}
