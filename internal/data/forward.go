package data

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/repo"
)

// ForwardEnvelope is the payload published for the primary reply path
type ForwardEnvelope struct {
	GroupID     string         `json:"group_id"`
	MessageID   string         `json:"message_id,omitempty"`
	Sender      string         `json:"sender"`
	Text        string         `json:"text"`
	IsMention   bool           `json:"is_mention"`
	Verdict     domain.Verdict `json:"verdict"`
	ForwardedAt time.Time      `json:"forwarded_at"`
}

// ReplyEnvelope is a bot reply published back by the primary reply path
type ReplyEnvelope struct {
	GroupID string `json:"group_id"`
	Text    string `json:"text"`
}

// NATSBus forwards relevant messages to the primary reply path over NATS
// and receives the bot's replies from it.
type NATSBus struct {
	conn           *nats.Conn
	forwardSubject string
}

// NewNATSBus connects to NATS with automatic reconnection support.
// Extra nats.Option values can be appended.
func NewNATSBus(url, forwardSubject string, opts ...nats.Option) (*NATSBus, error) {
	defaults := []nats.Option{
		nats.Name("smart-listener"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
	}
	nc, err := nats.Connect(url, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &NATSBus{conn: nc, forwardSubject: forwardSubject}, nil
}

// Forward publishes the message on the forward subject
func (b *NATSBus) Forward(ctx context.Context, msg *domain.IncomingMessage, verdict domain.Verdict) error {
	data, err := json.Marshal(newForwardEnvelope(msg, verdict))
	if err != nil {
		return fmt.Errorf("marshaling forward envelope: %w", err)
	}
	if err := b.conn.Publish(b.forwardSubject, data); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.forwardSubject, err)
	}
	return nil
}

// SubscribeReplies calls handler for every reply published on subject.
// Call the returned cancel function to unsubscribe.
func (b *NATSBus) SubscribeReplies(subject string, handler func(ReplyEnvelope)) (func(), error) {
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		var reply ReplyEnvelope
		if err := json.Unmarshal(msg.Data, &reply); err != nil {
			log.Warn().Err(err).Str("subject", subject).Msg("dropping malformed reply")
			return
		}
		if reply.GroupID == "" || reply.Text == "" {
			return
		}
		handler(reply)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", subject, err)
	}
	// Flush ensures the subscription is registered on the server before returning
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("flushing subscription: %w", err)
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Unsubscribe()
		})
	}
	return cancel, nil
}

// Close drains and closes the connection
func (b *NATSBus) Close() error {
	if err := b.conn.Drain(); err != nil {
		b.conn.Close()
		return err
	}
	return nil
}

func newForwardEnvelope(msg *domain.IncomingMessage, verdict domain.Verdict) ForwardEnvelope {
	return ForwardEnvelope{
		GroupID:     msg.GroupID,
		MessageID:   msg.MessageID,
		Sender:      msg.SenderLabel,
		Text:        msg.Text,
		IsMention:   msg.IsMention,
		Verdict:     verdict,
		ForwardedAt: time.Now(),
	}
}

// logReplyRepo stands in for the primary reply path when no bus is configured
type logReplyRepo struct{}

// NewLogReplyRepo creates a reply repository that only logs forwarded messages
func NewLogReplyRepo() repo.ReplyRepo {
	return logReplyRepo{}
}

// Forward logs the message
func (logReplyRepo) Forward(ctx context.Context, msg *domain.IncomingMessage, verdict domain.Verdict) error {
	log.Info().
		Str("group", msg.GroupID).
		Str("message_id", msg.MessageID).
		Str("sender", msg.SenderLabel).
		Bool("mention", msg.IsMention).
		Stringer("verdict", verdict).
		Msg("forward to primary reply path")
	return nil
}
