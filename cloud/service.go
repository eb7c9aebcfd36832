package cloud

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// recognizeTimeout bounds one recognition triggered over MQTT.
const recognizeTimeout = 5 * time.Second

// Service connects inbound gesture messages to a Registry and publishes
// the outcome.
type Service struct {
	registry *Registry
	limiter  *rate.Limiter // nil means unlimited
	minScore float64

	mu        sync.RWMutex
	publisher *Publisher
}

// NewService creates a service. Recognition requests beyond
// cfg.MQTT.MaxPerSecond are dropped.
func NewService(registry *Registry, cfg *Config) *Service {
	s := &Service{registry: registry}
	if cfg != nil {
		s.minScore = cfg.MinScore
		if cfg.MQTT.MaxPerSecond > 0 {
			burst := int(cfg.MQTT.MaxPerSecond)
			if burst < 1 {
				burst = 1
			}
			s.limiter = rate.NewLimiter(rate.Limit(cfg.MQTT.MaxPerSecond), burst)
		}
	}
	return s
}

// SetPublisher attaches the publisher once the MQTT client exists.
func (s *Service) SetPublisher(p *Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

func (s *Service) getPublisher() *Publisher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.publisher
}

// Recognize classifies p and publishes the result when a publisher is set.
func (s *Service) Recognize(ctx context.Context, p *GesturePayload) (RecognitionMessage, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		return RecognitionMessage{}, fmt.Errorf("rate limit exceeded, dropping request")
	}

	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}

	res, err := s.registry.Recognize(ctx, p.Points)
	if err != nil {
		return RecognitionMessage{}, fmt.Errorf("recognizing %s: %w", id, err)
	}

	msg := NewRecognitionMessage(id, res, s.minScore)
	if pub := s.getPublisher(); pub != nil {
		if err := pub.PublishResult(msg); err != nil {
			return msg, fmt.Errorf("publishing result %s: %w", id, err)
		}
	}
	return msg, nil
}

// Learn stores p as a template under its label and publishes the new count.
func (s *Service) Learn(p *GesturePayload) (int, error) {
	if p.Label == "" {
		return 0, fmt.Errorf("learn payload has no label")
	}

	count, err := s.registry.Learn(p.Label, p.Points)
	if err != nil {
		return 0, fmt.Errorf("learning %q: %w", p.Label, err)
	}

	if pub := s.getPublisher(); pub != nil {
		if err := pub.PublishLearned(p.Label, count); err != nil {
			return count, fmt.Errorf("publishing learn ack: %w", err)
		}
	}
	return count, nil
}

// HandleRecognize is the GestureHandler for the recognize topic.
func (s *Service) HandleRecognize(p *GesturePayload, err error) {
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recognizeTimeout)
	defer cancel()

	if _, err := s.Recognize(ctx, p); err != nil {
		log.Printf("Warning: %v", err)
	}
}

// HandleLearn is the GestureHandler for the learn topic.
func (s *Service) HandleLearn(p *GesturePayload, err error) {
	if err != nil {
		return
	}
	count, err := s.Learn(p)
	if err != nil {
		log.Printf("Warning: %v", err)
		return
	}
	log.Printf("Learned %q (%d templates)", p.Label, count)
}
