package cloud

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// RecognitionMessage is the JSON published for every recognition.
type RecognitionMessage struct {
	RequestID string  `json:"requestId"`
	Label     string  `json:"label"`
	Score     float64 `json:"score,omitempty"`
	Scored    bool    `json:"scored"`
	Distance  float64 `json:"distance"`
	Confident bool    `json:"confident"`
	ElapsedMs float64 `json:"elapsedMs"`
	Timestamp int64   `json:"timestamp"`
}

// NewRecognitionMessage builds the outbound message for res. Unscored
// results are confident whenever they matched a template.
func NewRecognitionMessage(requestID string, res Result, minScore float64) RecognitionMessage {
	confident := res.Matched()
	if res.Scored {
		confident = confident && res.Score >= minScore
	}
	return RecognitionMessage{
		RequestID: requestID,
		Label:     res.Label,
		Score:     res.Score,
		Scored:    res.Scored,
		Distance:  res.Distance,
		Confident: confident,
		ElapsedMs: float64(res.Elapsed.Microseconds()) / 1000,
		Timestamp: time.Now().Unix(),
	}
}

// LearnedMessage acknowledges a template added over MQTT.
type LearnedMessage struct {
	Label     string `json:"label"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher publishes recognition results to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	last          *RecognitionMessage
	mu            sync.RWMutex
}

// NewPublisher creates a new result publisher
// If client is nil, publishing is disabled (for testing)
func NewPublisher(client mqtt.Client) *Publisher {
	prefix := os.Getenv("MQTT_PUBLISH_PREFIX")
	if prefix == "" {
		prefix = "tudogesture"
	}

	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true, // latest result stays readable for late subscribers
	}
}

// SetPrefix overrides the topic prefix unless MQTT_PUBLISH_PREFIX is set.
func (p *Publisher) SetPrefix(prefix string) {
	if prefix == "" || os.Getenv("MQTT_PUBLISH_PREFIX") != "" {
		return
	}
	p.publishPrefix = prefix
}

// PublishResult publishes msg to {prefix}/result.
func (p *Publisher) PublishResult(msg RecognitionMessage) error {
	p.mu.Lock()
	p.last = &msg
	p.mu.Unlock()

	topic := fmt.Sprintf("%s/result", p.publishPrefix)
	if err := p.publish(topic, msg); err != nil {
		return err
	}

	log.Printf("Published result %s: %s (distance %.3f)", msg.RequestID, msg.Label, msg.Distance)
	return nil
}

// PublishLearned publishes a learn acknowledgement to {prefix}/learned.
func (p *Publisher) PublishLearned(label string, count int) error {
	topic := fmt.Sprintf("%s/learned", p.publishPrefix)
	return p.publish(topic, LearnedMessage{
		Label:     label,
		Count:     count,
		Timestamp: time.Now().Unix(),
	})
}

func (p *Publisher) publish(topic string, v any) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling message for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// GetLast returns a copy of the last published result.
func (p *Publisher) GetLast() (RecognitionMessage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.last == nil {
		return RecognitionMessage{}, false
	}
	return *p.last, true
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
