package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/meshcast/core/device"
	"github.com/kilianp07/meshcast/core/model"
	coremon "github.com/kilianp07/meshcast/core/monitoring"
	"github.com/kilianp07/meshcast/infra/logger"
)

// Bridge commands and response types.
const (
	cmdGetChannel  = "get_channel"
	cmdSendChanMsg = "send_chan_msg"

	respOK          = "ok"
	respError       = "error"
	respChannelInfo = "channel_info"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

type request struct {
	RequestID  string `json:"request_id"`
	Command    string `json:"command"`
	ChannelIdx int    `json:"channel_idx"`
	Text       string `json:"text,omitempty"`
}

type response struct {
	RequestID     string `json:"request_id"`
	Type          string `json:"type"`
	ChannelIdx    int    `json:"channel_idx"`
	ChannelName   string `json:"channel_name"`
	ChannelSecret string `json:"channel_secret"`
	Error         string `json:"error"`
}

// Connection is a device.Connection speaking to a MeshCore radio through an
// MQTT bridge. Every command is a JSON request on <prefix>/command answered on
// <prefix>/response with the same request_id.
type Connection struct {
	cli     pahoClient
	command string
	reply   string
	qos     byte
	timeout time.Duration
	logger  logger.Logger

	mu      sync.Mutex
	pending map[string]chan response
	closed  bool
	ready   chan struct{}
	once    sync.Once
}

var _ device.Connection = (*Connection)(nil)

// Open connects to the broker, subscribes to the response topic and waits for
// the bridge to settle. The caller owns the returned connection and must Close
// it.
func Open(ctx context.Context, cfg Config, log logger.Logger) (*Connection, error) {
	if log == nil {
		log = logger.New("mqtt_client")
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	c := &Connection{
		command: cfg.TopicPrefix + "/command",
		reply:   cfg.TopicPrefix + "/response",
		qos:     cfg.QoS,
		timeout: cfg.Timeout(),
		logger:  log,
		pending: make(map[string]chan response),
		ready:   make(chan struct{}),
	}
	opts.OnConnect = func(pc paho.Client) {
		log.Infof("MQTT connected")
		if token := pc.Subscribe(c.reply, c.qos, c.onResponse); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
			return
		}
		c.once.Do(func() { close(c.ready) })
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	cli := newMQTTClient(opts)
	if err := wait(ctx, cli.Connect(), c.timeout); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	c.cli = cli

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case <-c.ready:
	case <-timer.C:
		c.cli.Disconnect(250)
		return nil, fmt.Errorf("subscribe %s: %w", c.reply, device.ErrTimeout)
	case <-ctx.Done():
		c.cli.Disconnect(250)
		return nil, ctx.Err()
	}

	if d := cfg.Settle(); d > 0 {
		settle := time.NewTimer(d)
		defer settle.Stop()
		select {
		case <-settle.C:
		case <-ctx.Done():
			c.cli.Disconnect(250)
			return nil, ctx.Err()
		}
	}
	return c, nil
}

// Opener returns a device.Opener dialing cfg.
func Opener(cfg Config, log logger.Logger) device.Opener {
	return func(ctx context.Context) (device.Connection, error) {
		c, err := Open(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	id := cfg.ClientID
	if id == "" {
		id = "meshcast-" + uuid.NewString()[:8]
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(id)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c *Connection) onResponse(_ paho.Client, msg paho.Message) {
	var r response
	if err := json.Unmarshal(msg.Payload(), &r); err != nil {
		c.logger.Errorf("failed to decode response: %v", err)
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[r.RequestID]
	c.mu.Unlock()
	if !ok {
		c.logger.Debugf("dropping response for unknown request %q", r.RequestID)
		return
	}
	select {
	case ch <- r:
	default:
	}
}

func (c *Connection) call(ctx context.Context, req request) (response, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return response{}, device.ErrClosed
	}
	req.RequestID = uuid.NewString()
	ch := make(chan response, 1)
	c.pending[req.RequestID] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, req.RequestID)
		c.mu.Unlock()
	}()

	payload, err := json.Marshal(req)
	if err != nil {
		return response{}, err
	}
	if err := wait(ctx, c.cli.Publish(c.command, c.qos, false, payload), c.timeout); err != nil {
		return response{}, fmt.Errorf("publish %s: %w", req.Command, err)
	}
	c.logger.Debugw("command sent", map[string]any{
		"request_id": req.RequestID, "command": req.Command, "slot": req.ChannelIdx,
	})

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r, nil
	case <-timer.C:
		return response{}, fmt.Errorf("%s slot %d: %w", req.Command, req.ChannelIdx, device.ErrTimeout)
	case <-ctx.Done():
		return response{}, ctx.Err()
	}
}

// Channel reads one channel slot from the device.
func (c *Connection) Channel(ctx context.Context, slot int) (model.SlotDescriptor, error) {
	r, err := c.call(ctx, request{Command: cmdGetChannel, ChannelIdx: slot})
	if err != nil {
		return model.SlotDescriptor{}, err
	}
	switch r.Type {
	case respChannelInfo:
		return model.SlotDescriptor{
			Slot:   slot,
			Name:   r.ChannelName,
			Secret: model.NormalizeSecret(r.ChannelSecret),
		}, nil
	case respError:
		return model.SlotDescriptor{}, fmt.Errorf("get_channel slot %d: %s", slot, r.Error)
	default:
		return model.SlotDescriptor{}, fmt.Errorf("get_channel slot %d: unexpected response %q", slot, r.Type)
	}
}

// SendChannelMessage sends text on slot. A rejection by the device is
// returned as a *device.SendError.
func (c *Connection) SendChannelMessage(ctx context.Context, slot int, text string) error {
	r, err := c.call(ctx, request{Command: cmdSendChanMsg, ChannelIdx: slot, Text: text})
	if err == nil {
		switch r.Type {
		case respOK:
			return nil
		case respError:
			err = &device.SendError{Slot: slot, Payload: r.Error}
		default:
			err = &device.SendError{Slot: slot, Payload: "unexpected response " + strconv.Quote(r.Type)}
		}
	}
	coremon.CaptureException(err, map[string]string{"module": "mqtt", "slot": strconv.Itoa(slot)})
	return err
}

// Close disconnects from the broker. Calls after the first are no-ops.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.cli != nil && c.cli.IsConnected() {
		c.cli.Disconnect(250)
	}
	return nil
}

func wait(ctx context.Context, token paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return device.ErrTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
