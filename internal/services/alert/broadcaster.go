// Package alert distributes qualifying fraud alerts to live websocket
// subscribers.
package alert

import (
	"sync"
	"time"

	"nexus/internal/models"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// Defaults for the broadcaster configuration.
const (
	DefaultWriteTimeout      = 5 * time.Second
	DefaultHeartbeatInterval = 25 * time.Second
)

// Conn is the transport handle for one subscriber. Satisfied by
// *websocket.Conn; tests substitute fakes.
type Conn interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Config tunes write deadlines and the keepalive interval.
type Config struct {
	WriteTimeout      time.Duration
	HeartbeatInterval time.Duration
}

// Broadcaster owns the set of live subscribers. All registry access is
// serialized through one mutex; network writes happen outside it so a
// slow receiver never blocks new connections.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber

	config Config
	logger *zap.Logger
}

type subscriber struct {
	id   string
	conn Conn

	writeMu sync.Mutex // one writer at a time per connection
	done    chan struct{}
	once    sync.Once
}

// NewBroadcaster creates a broadcaster with defaults filled in.
func NewBroadcaster(config Config, logger *zap.Logger) *Broadcaster {
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.HeartbeatInterval == 0 {
		config.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subscribers: make(map[string]*subscriber),
		config:      config,
		logger:      logger,
	}
}

// Register adds a subscriber and starts its heartbeat loop. Registering
// a duplicate identity replaces the previous handle without closing it;
// identities are expected to be unique (uuid per connection).
func (b *Broadcaster) Register(id string, conn Conn) {
	sub := &subscriber{
		id:   id,
		conn: conn,
		done: make(chan struct{}),
	}
	b.mu.Lock()
	b.subscribers[id] = sub
	count := len(b.subscribers)
	b.mu.Unlock()

	go b.heartbeat(sub)
	b.logger.Info("subscriber registered",
		zap.String("subscriber_id", id), zap.Int("subscribers", count))
}

// Unregister removes a subscriber and closes its connection. Removal is
// immediate and final; a reconnect is a fresh registration. Safe to call
// repeatedly.
func (b *Broadcaster) Unregister(id string) {
	b.mu.Lock()
	sub, ok := b.subscribers[id]
	if ok {
		delete(b.subscribers, id)
	}
	b.mu.Unlock()
	if !ok {
		return
	}
	sub.close()
	b.logger.Info("subscriber unregistered", zap.String("subscriber_id", id))
}

// Broadcast pushes the alert to every current subscriber. Only high and
// critical tiers go out; everything else is returned to the direct
// caller only. Sends run concurrently and independently: one failed
// subscriber is evicted without affecting the rest. Delivery is
// at-most-once with no replay.
func (b *Broadcaster) Broadcast(event *models.AlertEvent) {
	if event.Tier != models.TierHigh && event.Tier != models.TierCritical {
		return
	}

	b.mu.Lock()
	snapshot := make([]*subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		snapshot = append(snapshot, sub)
	}
	b.mu.Unlock()

	if len(snapshot) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range snapshot {
		wg.Add(1)
		go func(sub *subscriber) {
			defer wg.Done()
			if err := sub.writeJSON(event, b.config.WriteTimeout); err != nil {
				b.logger.Warn("alert delivery failed, evicting subscriber",
					zap.String("subscriber_id", sub.id),
					zap.String("alert_id", event.ID),
					zap.Error(err))
				b.Unregister(sub.id)
			}
		}(sub)
	}
	wg.Wait()

	b.logger.Info("alert broadcast",
		zap.String("alert_id", event.ID),
		zap.String("tier", event.Tier),
		zap.Int("subscribers", len(snapshot)))
}

// Count returns the current number of live subscribers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}

// heartbeat emits a keepalive ping on a fixed interval for the lifetime
// of the connection. Alert pushes are separate and event-driven.
func (b *Broadcaster) heartbeat(sub *subscriber) {
	ticker := time.NewTicker(b.config.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-sub.done:
			return
		case <-ticker.C:
			if err := sub.ping(b.config.WriteTimeout); err != nil {
				b.logger.Debug("heartbeat failed, evicting subscriber",
					zap.String("subscriber_id", sub.id), zap.Error(err))
				b.Unregister(sub.id)
				return
			}
		}
	}
}

func (s *subscriber) writeJSON(v interface{}, timeout time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}

func (s *subscriber) ping(timeout time.Duration) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *subscriber) close() {
	s.once.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
