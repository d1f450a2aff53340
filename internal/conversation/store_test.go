package conversation

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAddMessageIncrementsTurnCountOnAssistantOnly(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	c.AddMessage(Message{Role: RoleUser, Content: "hi"})
	c.AddMessage(Message{Role: RoleAssistant, Content: "hello"})
	c.AddMessage(Message{Role: RoleUser, Content: "thanks"})
	c.AddMessage(Message{Role: RoleAssistant, Content: "np"})

	if c.TurnCount != 2 {
		t.Fatalf("expected turn count 2, got %d", c.TurnCount)
	}
	if len(c.Messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(c.Messages))
	}
}

func TestGetMessagesUnboundedReturnsCopy(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	c.AddMessage(Message{Role: RoleUser, Content: "a"})

	got := c.GetMessages(0)
	got[0].Content = "mutated"
	if c.Messages[0].Content == "mutated" {
		t.Fatalf("GetMessages(0) must return a copy, not alias the backing slice")
	}
}

func TestGetMessagesBoundedKeepsSystemAndChronology(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	c.AddMessage(Message{Role: RoleSystem, Content: "system prompt"})
	c.AddMessage(Message{Role: RoleUser, Content: "one"})
	c.AddMessage(Message{Role: RoleAssistant, Content: "two"})
	c.AddMessage(Message{Role: RoleUser, Content: "three"})

	got := c.GetMessages(1000)
	if len(got) != 4 {
		t.Fatalf("expected all messages to fit budget, got %d", len(got))
	}
	if got[0].Role != RoleSystem {
		t.Fatalf("expected system message first, got %+v", got[0])
	}
	// Chronological order preserved among non-system messages.
	if got[1].Content != "one" || got[2].Content != "two" || got[3].Content != "three" {
		t.Fatalf("expected chronological order, got %+v", got)
	}
}

func TestGetMessagesBoundedTruncatesOldest(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	for i := 0; i < 10; i++ {
		c.AddMessage(Message{Role: RoleUser, Content: "0123456789"}) // 10 chars = ~2 tokens each
	}
	got := c.GetMessages(5) // room for ~2 messages
	if len(got) == 0 || len(got) >= 10 {
		t.Fatalf("expected truncation, got %d messages", len(got))
	}
	// The kept messages must be the most recent ones, in order.
	last := c.Messages[len(c.Messages)-len(got):]
	for i := range got {
		if got[i].Content != last[i].Content {
			t.Fatalf("expected kept messages to be the most recent tail, got %+v vs %+v", got, last)
		}
	}
}

func TestGetMessagesNeverExceedsBudget(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	c.AddMessage(Message{Role: RoleSystem, Content: "sys"})
	for i := 0; i < 20; i++ {
		c.AddMessage(Message{Role: RoleUser, Content: "some moderately long message content here"})
	}
	const budget = 50
	got := c.GetMessages(budget)
	total := 0
	for _, m := range got {
		total += estimateTokens(m.Content)
	}
	if total > budget {
		t.Fatalf("token budget exceeded: %d > %d", total, budget)
	}
}

func TestClearHistory(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	c.AddMessage(Message{Role: RoleSystem, Content: "sys"})
	c.AddMessage(Message{Role: RoleUser, Content: "hi"})
	c.AddMessage(Message{Role: RoleAssistant, Content: "hello"})

	c.ClearHistory(true)
	if len(c.Messages) != 1 || c.Messages[0].Role != RoleSystem {
		t.Fatalf("expected only system message to survive, got %+v", c.Messages)
	}
	if c.TurnCount != 0 {
		t.Fatalf("expected turn count reset, got %d", c.TurnCount)
	}

	c.ClearHistory(false)
	if len(c.Messages) != 0 {
		t.Fatalf("expected all messages dropped, got %+v", c.Messages)
	}
}

func TestStorePersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	c := s.GetOrCreate("session-1")
	c.AddMessage(Message{Role: RoleUser, Content: "hello"})
	c.AddMessage(Message{Role: RoleAssistant, Content: "hi there"})

	if err := s.Persist("session-1"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// A fresh store must load the persisted session from disk.
	s2 := New(dir)
	loaded, ok := s2.Get("session-1")
	if !ok {
		t.Fatalf("expected persisted session to load")
	}
	if len(loaded.Messages) != 2 || loaded.TurnCount != 1 {
		t.Fatalf("unexpected loaded conversation: %+v", loaded)
	}
}

func TestStoreWithoutPersistDirIsMemoryOnly(t *testing.T) {
	s := New("")
	c := s.GetOrCreate("s1")
	c.AddMessage(Message{Role: RoleUser, Content: "x"})
	if err := s.Persist("s1"); err != nil {
		t.Fatalf("Persist with no dir should be a no-op, got %v", err)
	}
}

func TestGetOrCreateGeneratesSessionID(t *testing.T) {
	s := New("")
	c := s.GetOrCreate("")
	if c.SessionID == "" {
		t.Fatalf("expected a generated session id")
	}
}

func TestSessionPathUsesSessionIDFilename(t *testing.T) {
	s := New("/tmp/convos")
	got := s.sessionPath("abc")
	want := filepath.Join("/tmp/convos", "abc.json")
	if got != want {
		t.Fatalf("sessionPath = %q, want %q", got, want)
	}
}

func TestAddMessageStampsTimestamp(t *testing.T) {
	c := &Conversation{SessionID: "s1"}
	before := time.Now().UTC().Add(-time.Second)
	c.AddMessage(Message{Role: RoleUser, Content: "x"})
	if c.Messages[0].Timestamp.Before(before) {
		t.Fatalf("expected timestamp to be stamped at AddMessage time")
	}
}
