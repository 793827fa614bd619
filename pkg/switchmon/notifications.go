package switchmon

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// Notification is a state-change message pushed by the switch.
type Notification struct {
	Resource string          `json:"resource"`
	Data     json.RawMessage `json:"data"`
}

// NotificationSubscriber listens on the switch's websocket notification
// endpoint and forwards messages to a callback.
type NotificationSubscriber struct {
	url      string
	dialer   *websocket.Dialer
	logger   *slog.Logger
	onNotify func(Notification)

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewNotificationSubscriber creates a subscriber for the given switch.
// wsURL overrides the default wss endpoint when non-empty, for tests.
func NewNotificationSubscriber(ip, wsURL string, insecureTLS bool, logger *slog.Logger, onNotify func(Notification)) *NotificationSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if wsURL == "" {
		wsURL = "wss://" + ip + "/rest/" + DefaultAPIVersion + "/notifications"
	}

	dialer := &websocket.Dialer{}
	if insecureTLS {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &NotificationSubscriber{
		url:      wsURL,
		dialer:   dialer,
		logger:   logger,
		onNotify: onNotify,
	}
}

// Listen connects and forwards notifications until the connection drops,
// the context is cancelled, or Close is called.
func (s *NotificationSubscriber) Listen(ctx context.Context) error {
	conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial notifications: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || isClosedErr(err) {
				return nil
			}
			return fmt.Errorf("read notification: %w", err)
		}

		var n Notification
		if err := json.Unmarshal(raw, &n); err != nil {
			s.logger.Warn("malformed notification", "error", err)
			continue
		}
		if s.onNotify != nil {
			s.onNotify(n)
		}
	}
}

// Close terminates the connection, unblocking Listen.
func (s *NotificationSubscriber) Close() {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

func isClosedErr(err error) bool {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return true
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
