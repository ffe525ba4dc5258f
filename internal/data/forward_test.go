package data

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/devricklin/smart-listener/internal/biz/domain"
)

// startTestNATS starts an embedded NATS server and returns its client URL.
func startTestNATS(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}
	return srv.ClientURL()
}

func TestNATSBus_Forward(t *testing.T) {
	url := startTestNATS(t)

	bus, err := NewNATSBus(url, "listener.forward")
	if err != nil {
		t.Fatalf("creating bus: %v", err)
	}
	defer bus.Close()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer nc.Close()

	received := make(chan []byte, 1)
	if _, err := nc.Subscribe("listener.forward", func(m *nats.Msg) { received <- m.Data }); err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	nc.Flush()

	msg := &domain.IncomingMessage{GroupID: "100", MessageID: "m1", SenderLabel: "Alice", Text: "are you there?"}
	if err := bus.Forward(context.Background(), msg, domain.VerdictRelevant); err != nil {
		t.Fatalf("forwarding: %v", err)
	}

	select {
	case data := <-received:
		var env ForwardEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			t.Fatalf("decoding envelope: %v", err)
		}
		if env.GroupID != "100" || env.MessageID != "m1" || env.Sender != "Alice" || env.Text != "are you there?" {
			t.Errorf("Unexpected envelope: %+v", env)
		}
		if env.Verdict != domain.VerdictRelevant {
			t.Errorf("Expected relevant verdict, got %s", env.Verdict)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded message")
	}
}

func TestNATSBus_SubscribeReplies(t *testing.T) {
	url := startTestNATS(t)

	bus, err := NewNATSBus(url, "listener.forward")
	if err != nil {
		t.Fatalf("creating bus: %v", err)
	}
	defer bus.Close()

	replies := make(chan ReplyEnvelope, 4)
	cancel, err := bus.SubscribeReplies("listener.replies", func(r ReplyEnvelope) { replies <- r })
	if err != nil {
		t.Fatalf("subscribing: %v", err)
	}
	defer cancel()

	nc, err := nats.Connect(url)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer nc.Close()

	nc.Publish("listener.replies", []byte(`not json`))
	nc.Publish("listener.replies", []byte(`{"group_id":"","text":"no group"}`))
	nc.Publish("listener.replies", []byte(`{"group_id":"100","text":"hello from the bot"}`))
	nc.Flush()

	select {
	case r := <-replies:
		if r.GroupID != "100" || r.Text != "hello from the bot" {
			t.Errorf("Unexpected reply: %+v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
	}

	select {
	case r := <-replies:
		t.Errorf("Expected invalid replies to be dropped, got %+v", r)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLogReplyRepo_Forward(t *testing.T) {
	r := NewLogReplyRepo()
	if err := r.Forward(context.Background(), &domain.IncomingMessage{GroupID: "100"}, domain.VerdictRelevant); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
