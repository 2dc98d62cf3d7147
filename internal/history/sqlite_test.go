package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(dbPath, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndReadOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "", nil)
	if err != nil {
		t.Fatal(err)
	}

	contents := []string{"Hello", "Hi there!", "How are you?"}
	roles := []string{RoleUser, RoleAI, RoleUser}
	for i := range contents {
		if _, err := store.AppendMessage(ctx, conv.ID, roles[i], contents[i]); err != nil {
			t.Fatal(err)
		}
	}

	msgs, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	for i := range msgs {
		if msgs[i].Content != contents[i] || msgs[i].Role != roles[i] {
			t.Fatalf("message %d: got role=%q content=%q", i, msgs[i].Role, msgs[i].Content)
		}
	}
}

func TestRoundTripLastMessage(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, _ := store.CreateConversation(ctx, "", nil)
	store.AppendMessage(ctx, conv.ID, RoleUser, "first")
	appended, err := store.AppendMessage(ctx, conv.ID, RoleAI, "the answer")
	if err != nil {
		t.Fatal(err)
	}

	msgs, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	last := msgs[len(msgs)-1]
	if last.ID != appended.ID || last.Role != RoleAI || last.Content != "the answer" {
		t.Fatalf("last message mismatch: %+v", last)
	}
}

func TestReadIdempotence(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, _ := store.CreateConversation(ctx, "", nil)
	store.AppendMessage(ctx, conv.ID, RoleUser, "a")
	store.AppendMessage(ctx, conv.ID, RoleAI, "b")

	first, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("message %d differs between reads", i)
		}
	}
}

func TestCachedReadSeesAppend(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, _ := store.CreateConversation(ctx, "", nil)
	store.AppendMessage(ctx, conv.ID, RoleUser, "one")

	// Populate the cache, then append and read through it again.
	if _, err := store.Messages(ctx, conv.ID); err != nil {
		t.Fatal(err)
	}
	store.AppendMessage(ctx, conv.ID, RoleAI, "two")

	msgs, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[1].Content != "two" {
		t.Fatalf("cache did not reflect append: %+v", msgs)
	}
}

func TestIsolatedConversations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	c1, _ := store.CreateConversation(ctx, "", nil)
	c2, _ := store.CreateConversation(ctx, "", nil)

	store.AppendMessage(ctx, c1.ID, RoleUser, "c1 msg")
	store.AppendMessage(ctx, c2.ID, RoleUser, "c2 msg")

	m1, _ := store.Messages(ctx, c1.ID)
	m2, _ := store.Messages(ctx, c2.ID)

	if len(m1) != 1 || m1[0].Content != "c1 msg" {
		t.Fatal("c1 history incorrect")
	}
	if len(m2) != 1 || m2[0].Content != "c2 msg" {
		t.Fatal("c2 history incorrect")
	}
}

func TestConversationLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, err := store.CreateConversation(ctx, "Card fees", map[string]string{"source": "web"})
	if err != nil {
		t.Fatal(err)
	}

	got, err := store.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Card fees" || got.Metadata["source"] != "web" {
		t.Fatalf("unexpected conversation: %+v", got)
	}

	if err := store.UpdateTitle(ctx, conv.ID, "Annual fees"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetConversation(ctx, conv.ID)
	if got.Title != "Annual fees" {
		t.Fatalf("expected updated title, got %q", got.Title)
	}

	list, err := store.ListConversations(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(list))
	}
}

func TestDeleteCascades(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	conv, _ := store.CreateConversation(ctx, "", nil)
	store.AppendMessage(ctx, conv.ID, RoleUser, "msg")

	if err := store.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetConversation(ctx, conv.ID); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	msgs, err := store.Messages(ctx, conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected messages deleted, got %d", len(msgs))
	}
}

func TestGetUnknownConversation(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetConversation(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
