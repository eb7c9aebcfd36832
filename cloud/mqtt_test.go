package cloud

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGesturePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    *GesturePayload
		wantErr bool
	}{
		{
			name:    "object",
			payload: `{"id":"r1","points":[{"x":1,"y":2},{"x":3,"y":4,"z":5,"path":1}]}`,
			want: &GesturePayload{ID: "r1", Points: []SamplePoint{
				{X: 1, Y: 2}, {X: 3, Y: 4, Z: 5, Path: 1},
			}},
		},
		{
			name:    "learn object",
			payload: `{"label":"v","points":[{"x":0,"y":0},{"x":1,"y":1}]}`,
			want:    &GesturePayload{Label: "v", Points: []SamplePoint{{}, {X: 1, Y: 1}}},
		},
		{
			name:    "bare array with whitespace",
			payload: "\n  [{\"x\":1},{\"x\":2}]  ",
			want:    &GesturePayload{Points: []SamplePoint{{X: 1}, {X: 2}}},
		},
		{name: "empty", payload: "   ", wantErr: true},
		{name: "no points", payload: `{"id":"x"}`, wantErr: true},
		{name: "empty array", payload: `[]`, wantErr: true},
		{name: "not json", payload: `points`, wantErr: true},
		{name: "broken object", payload: `{"points":[`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeGesturePayload([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitMQTT_Disabled(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	client, err := InitMQTT(DefaultConfig(), nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitMQTT_NoTopic(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://127.0.0.1:1")
	config := DefaultConfig()
	config.MQTT.SubscribeTopic = ""

	client, err := InitMQTT(config, nil, nil)
	assert.Error(t, err)
	assert.Nil(t, client)
}

type capturedPayloads struct {
	payloads []*GesturePayload
	errs     []error
}

func (c *capturedPayloads) handle(p *GesturePayload, err error) {
	c.payloads = append(c.payloads, p)
	c.errs = append(c.errs, err)
}

func TestMQTTClient_SubscribesAndDispatches(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	config := DefaultConfig()

	var recognize, learn capturedPayloads
	c := newMQTTClientWithMock(mock, config, recognize.handle, learn.handle)
	c.onConnect(mock)

	assert.True(t, c.IsConnected())
	assert.True(t, mock.Subscribed("tudogesture/recognize"))
	assert.True(t, mock.Subscribed("tudogesture/learn"))

	require.True(t, mock.Deliver("tudogesture/recognize", []byte(`[{"x":0},{"x":1}]`)))
	require.True(t, mock.Deliver("tudogesture/recognize", []byte(`garbage`)))
	require.True(t, mock.Deliver("tudogesture/learn", []byte(`{"label":"l","points":[{"x":0},{"x":1}]}`)))

	require.Len(t, recognize.payloads, 2)
	assert.Len(t, recognize.payloads[0].Points, 2)
	assert.NoError(t, recognize.errs[0])
	assert.Nil(t, recognize.payloads[1])
	assert.Error(t, recognize.errs[1])

	require.Len(t, learn.payloads, 1)
	assert.Equal(t, "l", learn.payloads[0].Label)
}

func TestMQTTClient_NoLearnTopic(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	config := DefaultConfig()
	config.MQTT.LearnTopic = ""

	var recognize capturedPayloads
	c := newMQTTClientWithMock(mock, config, recognize.handle, nil)
	c.onConnect(mock)

	assert.True(t, mock.Subscribed(config.MQTT.SubscribeTopic))
	assert.False(t, mock.Deliver("tudogesture/learn", []byte(`[]`)))
}

func TestMQTTClient_SubscribeError(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)
	mock.SetSubscribeError(errors.New("not authorized"))

	var recognize capturedPayloads
	c := newMQTTClientWithMock(mock, DefaultConfig(), recognize.handle, nil)

	assert.NotPanics(t, func() { c.onConnect(mock) })
	assert.False(t, mock.Subscribed("tudogesture/recognize"))
}

func TestMQTTClient_ConnectionState(t *testing.T) {
	mock := NewMockClient()
	c := newMQTTClientWithMock(mock, DefaultConfig(), nil, nil)

	assert.False(t, c.IsConnected())
	c.setConnected(true)
	assert.True(t, c.IsConnected())

	c.onConnectionLost(mock, errors.New("broker gone"))
	assert.False(t, c.IsConnected())

	mock.SetConnected(true)
	c.Disconnect()
	assert.False(t, mock.IsConnected())
	assert.Same(t, mock, c.GetClient())
}

func TestMQTTClient_ConnectWithRetry(t *testing.T) {
	mock := NewMockClient()
	c := newMQTTClientWithMock(mock, DefaultConfig(), nil, nil)

	c.connectWithRetry()
	assert.True(t, c.IsConnected())
	assert.True(t, mock.IsConnected())
}
