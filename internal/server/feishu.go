package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/infra/feishu"
)

const (
	seenTTL       = 5 * time.Minute
	seenPruneTick = time.Minute
	memberTTL     = 10 * time.Minute
)

// MessageSource delivers Feishu messages
type MessageSource interface {
	OnMessage(handler feishu.MessageHandler)
	Start(ctx context.Context) error
	Stop()
}

// MemberDirectory resolves chat members for sender names
type MemberDirectory interface {
	GetChatMembers(ctx context.Context, chatID string) ([]*feishu.ChatMember, error)
}

// Gate judges incoming group messages
type Gate interface {
	HandleMessage(ctx context.Context, msg *domain.IncomingMessage) (domain.Decision, error)
}

// FeishuServer feeds Feishu group messages into the gate
type FeishuServer struct {
	source  MessageSource
	members MemberDirectory
	gate    Gate

	ctx context.Context

	// Message deduplication cache, Feishu redelivers on slow ACKs
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time

	membersMu   sync.Mutex
	memberNames map[string]*memberCache

	// Per-chat FIFO queues keep a group's messages in arrival order
	queuesMu sync.Mutex
	queues   map[string]*chatQueue
	inflight sync.WaitGroup
}

// chatQueue holds a chat's pending messages; at most one drain goroutine runs per chat
type chatQueue struct {
	pending []*feishu.Message
}

type memberCache struct {
	names     map[string]string // open_id -> name
	fetchedAt time.Time
}

// NewFeishuServer creates a new Feishu server
func NewFeishuServer(source MessageSource, members MemberDirectory, gate Gate) *FeishuServer {
	return &FeishuServer{
		source:      source,
		members:     members,
		gate:        gate,
		ctx:         context.Background(),
		seenMsgs:    make(map[string]time.Time),
		memberNames: make(map[string]*memberCache),
		queues:      make(map[string]*chatQueue),
	}
}

// Start starts receiving messages and blocks until ctx is done or the
// connection fails
func (s *FeishuServer) Start(ctx context.Context) error {
	s.ctx = ctx
	s.source.OnMessage(s.handleMessage)
	go s.pruneLoop(ctx)
	return s.source.Start(ctx)
}

// Stop stops the server and waits for queued messages to finish
func (s *FeishuServer) Stop() {
	s.source.Stop()
	s.inflight.Wait()
}

// handleMessage queues a Feishu message for its chat. It does not block, so
// the source can acknowledge the event right away.
func (s *FeishuServer) handleMessage(msg *feishu.Message) {
	// The gate only governs group traffic
	if msg.ChatType != "group" {
		return
	}
	if msg.MsgID != "" && s.seen(msg.MsgID) {
		log.Debug().Str("message_id", msg.MsgID).Msg("duplicate message ignored")
		return
	}

	s.inflight.Add(1)
	s.queuesMu.Lock()
	q, running := s.queues[msg.ChatID]
	if !running {
		q = &chatQueue{}
		s.queues[msg.ChatID] = q
	}
	q.pending = append(q.pending, msg)
	s.queuesMu.Unlock()

	if !running {
		go s.drain(msg.ChatID, q)
	}
}

// drain processes a chat's messages one at a time until its queue is empty
func (s *FeishuServer) drain(chatID string, q *chatQueue) {
	for {
		s.queuesMu.Lock()
		if len(q.pending) == 0 {
			delete(s.queues, chatID)
			s.queuesMu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		s.queuesMu.Unlock()

		s.process(msg)
		s.inflight.Done()
	}
}

// process resolves the sender and hands the message to the gate
func (s *FeishuServer) process(msg *feishu.Message) {
	senderName := ""
	if msg.Sender != nil {
		senderName = s.senderName(s.ctx, msg.ChatID, msg.Sender.SenderID)
	}

	incoming := &domain.IncomingMessage{
		GroupID:     msg.ChatID,
		MessageID:   msg.MsgID,
		SenderLabel: senderName,
		Text:        msg.Content,
		IsMention:   msg.MentionsBot,
	}
	if _, err := s.gate.HandleMessage(s.ctx, incoming); err != nil {
		log.Warn().Err(err).Str("group", msg.ChatID).Msg("message not judged")
	}
}

// seen reports whether msgID was already handled, and marks it if not
func (s *FeishuServer) seen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	if _, ok := s.seenMsgs[msgID]; ok {
		return true
	}
	s.seenMsgs[msgID] = time.Now()
	return false
}

// pruneLoop drops expired dedupe entries until ctx is done
func (s *FeishuServer) pruneLoop(ctx context.Context) {
	ticker := time.NewTicker(seenPruneTick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pruneSeen(now.Add(-seenTTL))
		}
	}
}

// pruneSeen forgets message IDs first seen before cutoff
func (s *FeishuServer) pruneSeen(cutoff time.Time) {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
}

// senderName resolves a sender's display name from the cached member list
func (s *FeishuServer) senderName(ctx context.Context, chatID, senderID string) string {
	if senderID == "" || s.members == nil {
		return ""
	}

	s.membersMu.Lock()
	cache, ok := s.memberNames[chatID]
	if ok && time.Since(cache.fetchedAt) < memberTTL {
		if name, found := cache.names[senderID]; found {
			s.membersMu.Unlock()
			return name
		}
	}
	s.membersMu.Unlock()

	// Unknown sender or stale list: refetch, new members join all the time
	members, err := s.members.GetChatMembers(ctx, chatID)
	if err != nil {
		log.Warn().Err(err).Str("group", chatID).Msg("failed to load chat members")
		return ""
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.MemberID] = m.Name
	}

	s.membersMu.Lock()
	s.memberNames[chatID] = &memberCache{names: names, fetchedAt: time.Now()}
	s.membersMu.Unlock()

	return names[senderID]
}
