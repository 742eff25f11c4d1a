package session_test

import (
	"context"
	"os"
	"testing"
	"time"

	chatdomain "github.com/hernanbl/gandolfo-recordatorios/internal/chat/domain"
	"github.com/hernanbl/gandolfo-recordatorios/internal/chat/port"
	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/session"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type store interface {
	port.SessionStore
	port.MarkerStore
}

func exerciseStore(t *testing.T, s store) {
	t.Helper()
	ctx := context.Background()
	sid := uuid.NewString()

	if _, found, err := s.Load(ctx, sid); err != nil || found {
		t.Fatalf("expected miss for new session, got found=%v err=%v", found, err)
	}

	st := chatdomain.NewConversationState(sid, "abc-123")
	st.Step = chatdomain.StepEmail
	st.Draft.Name = "Ana Gómez"
	st.RecordAvailabilityCheck(chatdomain.AvailabilityCheck{Date: "2025-06-11", PartySize: 4, DisplayDate: "11/06/2025"})
	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating after Save must not leak into the store.
	st.Draft.Name = "otro"
	st.LastAvailabilityCheck.PartySize = 9

	got, found, err := s.Load(ctx, sid)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if got.Step != chatdomain.StepEmail || got.Draft.Name != "Ana Gómez" {
		t.Errorf("unexpected state %+v", got)
	}
	if got.LastAvailabilityCheck == nil || got.LastAvailabilityCheck.PartySize != 4 {
		t.Errorf("expected stored availability check, got %+v", got.LastAvailabilityCheck)
	}

	m, err := s.GetMarker(ctx, sid, "r-1")
	if err != nil || m != chatdomain.EmailUnsent {
		t.Fatalf("expected unsent marker, got %q err=%v", m, err)
	}
	if err := s.SetMarker(ctx, sid, "r-1", chatdomain.EmailSent); err != nil {
		t.Fatalf("set marker: %v", err)
	}
	if m, _ := s.GetMarker(ctx, sid, "r-1"); m != chatdomain.EmailSent {
		t.Errorf("expected sent marker, got %q", m)
	}
	if m, _ := s.GetMarker(ctx, sid, "r-2"); m != chatdomain.EmailUnsent {
		t.Errorf("markers must be per reservation, got %q", m)
	}
	if err := s.SetMarker(ctx, sid, "r-1", chatdomain.EmailUnsent); err != nil {
		t.Fatalf("clear marker: %v", err)
	}
	if m, _ := s.GetMarker(ctx, sid, "r-1"); m != chatdomain.EmailUnsent {
		t.Errorf("expected cleared marker, got %q", m)
	}

	_ = s.SetMarker(ctx, sid, "r-3", chatdomain.EmailSent)
	if err := s.Delete(ctx, sid); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found, _ := s.Load(ctx, sid); found {
		t.Error("expected session to be deleted")
	}
	if m, _ := s.GetMarker(ctx, sid, "r-3"); m != chatdomain.EmailUnsent {
		t.Errorf("expected markers to be deleted with the session, got %q", m)
	}
}

func TestMemoryStore(t *testing.T) {
	s := session.NewMemoryStore(time.Minute)
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStore_Expiration(t *testing.T) {
	s := session.NewMemoryStore(30 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	_ = s.Save(ctx, chatdomain.NewConversationState("s1", ""))
	time.Sleep(60 * time.Millisecond)

	if _, found, _ := s.Load(ctx, "s1"); found {
		t.Error("expected session to expire")
	}
}

// TestRedisStore runs only when REDIS_ADDR points at a disposable Redis.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	s := session.NewRedisStore(client, time.Minute)
	if err := s.Ping(context.Background()); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	exerciseStore(t, s)
}
