// Package messaging provides a NATS client wrapper for the policy engine's
// pub/sub plumbing. It handles connection lifecycle, subject-based
// subscriptions, and convenience methods for the admin event stream, the
// render command channel, and policy-change fanout.
package messaging

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// NATS subject patterns used by the policy engine.
const (
	// SubjectAdminEvent carries inbound admin events (button selections and
	// free-text messages) from the platform gateway.
	SubjectAdminEvent = "policy.admin.event"

	// SubjectRender carries outbound render commands to the gateway.
	SubjectRender = "policy.render"

	// SubjectPolicyChanged fans mutated documents out to enforcement
	// services. The group ID is appended: policy.changed.<group_id>.
	SubjectPolicyChanged = "policy.changed"

	// eventQueue is the queue group sharing the admin event stream across
	// policyd instances, so each event is handled exactly once.
	eventQueue = "policyd"
)

// Client wraps the NATS connection with helper methods for pub/sub.
type Client struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

// Config holds NATS connection settings.
type Config struct {
	URL           string        // nats://localhost:4222
	Name          string        // client name for identification
	ReconnectWait time.Duration // time between reconnect attempts
	MaxReconnects int           // max reconnect attempts (-1 for infinite)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "nats://localhost:4222",
		Name:          "policyd",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1, // infinite reconnects
	}
}

// NewClient connects to NATS with the given config and returns a ready
// client. It returns an error if the initial connection fails.
func NewClient(config Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("[nats] disconnected: %v", err)
			} else {
				log.Printf("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Printf("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	log.Printf("[nats] connected to %s", nc.ConnectedUrl())

	return &Client{
		conn: nc,
		subs: make(map[string]*nats.Subscription),
	}, nil
}

// Publish sends data to the given NATS subject.
func (c *Client) Publish(subject string, data []byte) error {
	return c.conn.Publish(subject, data)
}

// SubscribeAdminEvents registers a handler for the inbound admin event
// stream. The subscription joins the policyd queue group, so multiple
// service instances split the stream instead of duplicating it.
func (c *Client) SubscribeAdminEvents(handler func(data []byte)) error {
	sub, err := c.conn.QueueSubscribe(SubjectAdminEvent, eventQueue, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", SubjectAdminEvent, err)
	}

	c.mu.Lock()
	c.subs[SubjectAdminEvent] = sub
	c.mu.Unlock()
	return nil
}

// PublishRenderCommand sends a render command to the gateway.
func (c *Client) PublishRenderCommand(data []byte) error {
	return c.Publish(SubjectRender, data)
}

// PublishPolicyChanged fans a mutated document out on the per-group
// policy-change subject.
func (c *Client) PublishPolicyChanged(groupID int64, data []byte) error {
	return c.Publish(SubjectPolicyChanged+"."+strconv.FormatInt(groupID, 10), data)
}

// SubscribePolicyChanged subscribes to document updates for one group.
// Enforcement-side consumers use this to hot-reload configuration.
func (c *Client) SubscribePolicyChanged(groupID int64, handler func(data []byte)) error {
	subject := SubjectPolicyChanged + "." + strconv.FormatInt(groupID, 10)
	sub, err := c.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", subject, err)
	}

	c.mu.Lock()
	c.subs[subject] = sub
	c.mu.Unlock()
	return nil
}

// Close drains all active subscriptions and closes the NATS connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for subject, sub := range c.subs {
		if err := sub.Drain(); err != nil {
			log.Printf("[nats] drain %s: %v", subject, err)
		}
	}
	c.subs = make(map[string]*nats.Subscription)

	if err := c.conn.Drain(); err != nil {
		log.Printf("[nats] connection drain: %v", err)
	}

	log.Printf("[nats] client closed")
}
