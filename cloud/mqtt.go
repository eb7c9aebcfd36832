package cloud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// GesturePayload is an inbound sample on the recognize or learn topic.
type GesturePayload struct {
	ID     string        `json:"id,omitempty"`
	Label  string        `json:"label,omitempty"`
	Points []SamplePoint `json:"points"`
}

// DecodeGesturePayload accepts either a JSON object with a points array or
// a bare JSON array of points.
func DecodeGesturePayload(data []byte) (*GesturePayload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}

	var p GesturePayload
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &p.Points); err != nil {
			return nil, fmt.Errorf("parsing point array: %w", err)
		}
	case '{':
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing gesture payload: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown payload format: expected JSON object or array")
	}

	if len(p.Points) == 0 {
		return nil, fmt.Errorf("payload has no points")
	}
	return &p, nil
}

// GestureHandler is called for every message on a gesture topic.
// payload is nil when err is set.
type GestureHandler func(payload *GesturePayload, err error)

// MQTTClient manages the MQTT connection and gesture subscriptions
type MQTTClient struct {
	client      mqtt.Client
	config      *Config
	onRecognize GestureHandler
	onLearn     GestureHandler
	isConnected bool
	mu          sync.RWMutex
}

// InitMQTT creates the MQTT client and starts connecting in the background.
// If neither MQTT_BROKER nor mqtt.broker is set, MQTT is disabled and this
// returns nil.
func InitMQTT(config *Config, onRecognize, onLearn GestureHandler) (*MQTTClient, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config != nil && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}

	if broker == "" {
		log.Println("MQTT disabled: MQTT_BROKER not set")
		return nil, nil
	}

	if config == nil || config.MQTT.SubscribeTopic == "" {
		return nil, fmt.Errorf("MQTT enabled but no subscribe topic configured")
	}

	client := &MQTTClient{
		config:      config,
		onRecognize: onRecognize,
		onLearn:     onLearn,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "tudogesture"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false)
	// Samples must be classified one at a time in arrival order.
	opts.SetOrderMatters(true)

	opts.SetOnConnectHandler(client.onConnect)
	opts.SetConnectionLostHandler(client.onConnectionLost)
	opts.SetReconnectingHandler(client.onReconnecting)

	client.client = mqtt.NewClient(opts)

	go client.connectWithRetry()

	return client, nil
}

// connectWithRetry attempts to connect to the MQTT broker with exponential backoff
func (c *MQTTClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		log.Println("Connecting to MQTT broker...")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				log.Println("Successfully connected to MQTT broker")
				c.setConnected(true)
				return
			}
			log.Printf("MQTT connection failed: %v", token.Error())
		} else {
			log.Println("MQTT connection timeout")
		}

		log.Printf("Retrying MQTT connection in %v...", retryDelay)
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

// onConnect subscribes to the gesture topics
func (c *MQTTClient) onConnect(client mqtt.Client) {
	log.Println("MQTT connected, subscribing to gesture topics...")
	c.setConnected(true)

	c.subscribe(client, c.config.MQTT.SubscribeTopic, c.onRecognize)
	if c.config.MQTT.LearnTopic != "" {
		c.subscribe(client, c.config.MQTT.LearnTopic, c.onLearn)
	}
}

func (c *MQTTClient) subscribe(client mqtt.Client, topic string, handler GestureHandler) {
	if topic == "" || handler == nil {
		return
	}
	log.Printf("Subscribing to %s", topic)
	token := client.Subscribe(topic, 0, c.createMessageHandler(handler))
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("Error subscribing to %s: %v", topic, token.Error())
	} else {
		log.Printf("Successfully subscribed to %s", topic)
	}
}

// onConnectionLost is called when the MQTT connection is lost
// Auto-reconnect is enabled, so this is typically a transient event
func (c *MQTTClient) onConnectionLost(client mqtt.Client, err error) {
	log.Printf("MQTT connection interrupted (%v), auto-reconnect will retry", err)
	c.setConnected(false)
}

func (c *MQTTClient) onReconnecting(client mqtt.Client, opts *mqtt.ClientOptions) {
	log.Println("MQTT reconnecting...")
}

// createMessageHandler decodes a gesture payload and hands it to handler
func (c *MQTTClient) createMessageHandler(handler GestureHandler) mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		payload := msg.Payload()
		log.Printf("Received gesture sample (topic: %s, size: %d bytes)", msg.Topic(), len(payload))

		p, err := DecodeGesturePayload(payload)
		if err != nil {
			log.Printf("Error decoding gesture payload on %s: %v", msg.Topic(), err)
			handler(nil, err)
			return
		}
		handler(p, nil)
	}
}

// IsConnected returns true if the MQTT client is connected
func (c *MQTTClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *MQTTClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection
func (c *MQTTClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		log.Println("Disconnecting from MQTT broker...")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing
func (c *MQTTClient) GetClient() mqtt.Client {
	return c.client
}

// newMQTTClientWithMock creates an MQTTClient around a provided mqtt.Client
// for tests.
func newMQTTClientWithMock(client mqtt.Client, config *Config, onRecognize, onLearn GestureHandler) *MQTTClient {
	return &MQTTClient{
		client:      client,
		config:      config,
		onRecognize: onRecognize,
		onLearn:     onLearn,
	}
}
