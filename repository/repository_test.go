package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/akinalp/leasehub/database"
	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
)

type testStore struct {
	db            *sql.DB
	users         UserRepository
	conversations ConversationRepository
	messages      MessageRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()

	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := database.New(context.Background(), filepath.Join(t.TempDir(), "test.db"), migrations, logger)
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return &testStore{
		db:            db.Conn,
		users:         NewSQLiteUserRepo(db.Conn),
		conversations: NewSQLiteConversationRepo(db.Conn),
		messages:      NewSQLiteMessageRepo(db.Conn),
	}
}

func (s *testStore) user(t *testing.T, name string) string {
	t.Helper()
	u := &models.User{
		Email:        name + "@example.com",
		PasswordHash: "x",
		DisplayName:  name,
		Role:         models.RoleTenant,
	}
	if err := s.users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u.ID
}

func (s *testStore) send(t *testing.T, convID, senderID, content string) *models.Message {
	t.Helper()
	msg, err := s.messages.Create(context.Background(), convID, senderID, content, nil)
	if err != nil {
		t.Fatalf("send %q: %v", content, err)
	}
	return msg
}

func (s *testStore) unread(t *testing.T, convID, userID string) int {
	t.Helper()
	d, err := s.conversations.FindByIDWithDetails(context.Background(), convID, userID)
	if err != nil {
		t.Fatal(err)
	}
	return d.UnreadCount
}

func (s *testStore) receipts(t *testing.T, userID string) int {
	t.Helper()
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM message_read_receipts WHERE user_id = ?", userID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	return n
}

func TestUserRepository(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id := s.user(t, "ann")

	dup := &models.User{Email: "ann@example.com", PasswordHash: "x", DisplayName: "Ann 2", Role: models.RoleBroker}
	if err := s.users.Create(ctx, dup); !errors.Is(err, pkg.ErrAlreadyExists) {
		t.Fatalf("duplicate email: err = %v", err)
	}

	u, err := s.users.GetByEmail(ctx, "ann@example.com")
	if err != nil || u.ID != id {
		t.Fatalf("GetByEmail = %+v, %v", u, err)
	}

	if _, err := s.users.GetByID(ctx, "missing"); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("GetByID(missing) err = %v", err)
	}

	found, err := s.users.GetByIDs(ctx, []string{id, "missing"})
	if err != nil || len(found) != 1 || found[id] == nil {
		t.Fatalf("GetByIDs = %v, %v", found, err)
	}
}

func TestCreateConversationIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	conv, err := s.conversations.Create(ctx, a, []string{b, b, a}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	ids, err := s.conversations.ActiveParticipantIDs(ctx, conv.ID)
	if err != nil || len(ids) != 2 {
		t.Fatalf("participants = %v, %v", ids, err)
	}

	_, err = s.conversations.Create(ctx, a, []string{b, "ghost"}, nil, nil)
	if !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("unknown participant: err = %v", err)
	}
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&n); err != nil || n != 1 {
		t.Fatalf("partial conversation left behind: n=%d err=%v", n, err)
	}

	if _, err := s.conversations.Create(ctx, a, []string{a}, nil, nil); !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("self-only conversation: err = %v", err)
	}
}

func TestCreateWithMessageCommitsTogether(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	conv, err := s.conversations.CreateWithMessage(ctx, a, []string{b}, nil, nil, "Hi")
	if err != nil {
		t.Fatal(err)
	}
	if conv.LastMessageAt == nil {
		t.Fatal("last_message_at not set")
	}
	if n := s.unread(t, conv.ID, b); n != 1 {
		t.Fatalf("b unread = %d, want 1", n)
	}
	if n := s.unread(t, conv.ID, a); n != 0 {
		t.Fatalf("creator unread = %d, want 0", n)
	}

	if _, err := s.db.Exec(`CREATE TRIGGER reject_messages BEFORE INSERT ON messages
		BEGIN SELECT RAISE(ABORT, 'messages rejected'); END`); err != nil {
		t.Fatal(err)
	}
	if _, err := s.conversations.CreateWithMessage(ctx, a, []string{b}, nil, nil, "again"); err == nil {
		t.Fatal("expected the message insert to fail")
	}

	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&n); err != nil || n != 1 {
		t.Fatalf("conversation survived a failed first message: n=%d err=%v", n, err)
	}
}

func TestDirectConversationDedup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := s.user(t, "a"), s.user(t, "b"), s.user(t, "c")

	listing := &models.ListingContext{Type: models.ListingTypeProperty, ID: "p-1"}
	first, created, err := s.conversations.GetOrCreateDirect(ctx, a, b, listing)
	if err != nil || !created {
		t.Fatalf("first: created=%v err=%v", created, err)
	}

	second, created, err := s.conversations.GetOrCreateDirect(ctx, b, a, nil)
	if err != nil || created {
		t.Fatalf("second: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Fatalf("reversed order gave %s, want %s", second.ID, first.ID)
	}
	if second.Listing == nil || second.Listing.ID != "p-1" {
		t.Fatalf("listing context should be kept from creation: %+v", second.Listing)
	}

	// a group containing a and b is not their direct conversation
	group, err := s.conversations.Create(ctx, a, []string{b, c}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	again, _, err := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	if err != nil || again.ID != first.ID || again.ID == group.ID {
		t.Fatalf("direct lookup matched the wrong conversation: %v %v", again, err)
	}

	if _, _, err := s.conversations.GetOrCreateDirect(ctx, a, a, nil); !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("self direct: err = %v", err)
	}
}

func TestDirectConversationConcurrentCallers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	const callers = 8
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			x, y := a, b
			if i%2 == 1 {
				x, y = b, a
			}
			conv, _, err := s.conversations.GetOrCreateDirect(ctx, x, y, nil)
			errs[i] = err
			if conv != nil {
				ids[i] = conv.ID
			}
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("caller %d got %s, caller 0 got %s", i, ids[i], ids[0])
		}
	}
}

func TestUnreadAccountingAndIdempotentReceipts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	conv, _, err := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	if err != nil {
		t.Fatal(err)
	}

	const n = 4
	for i := 0; i < n; i++ {
		s.send(t, conv.ID, b, fmt.Sprintf("msg %d", i))
	}

	if got := s.unread(t, conv.ID, a); got != n {
		t.Fatalf("A unread = %d, want %d", got, n)
	}
	if got := s.unread(t, conv.ID, b); got != 0 {
		t.Fatalf("sender unread = %d, want 0", got)
	}
	if got, _ := s.messages.GetUnreadCount(ctx, conv.ID, a); got != n {
		t.Fatalf("authoritative unread = %d, want %d", got, n)
	}
	if total, _ := s.conversations.GetTotalUnreadCount(ctx, a); total != n {
		t.Fatalf("total unread = %d, want %d", total, n)
	}

	written, err := s.conversations.MarkAsRead(ctx, conv.ID, a)
	if err != nil || written != n {
		t.Fatalf("MarkAsRead = %d, %v", written, err)
	}
	written, err = s.conversations.MarkAsRead(ctx, conv.ID, a)
	if err != nil || written != 0 {
		t.Fatalf("second MarkAsRead = %d, %v", written, err)
	}
	if got := s.unread(t, conv.ID, a); got != 0 {
		t.Fatalf("A unread after read = %d", got)
	}
	if got := s.receipts(t, a); got != n {
		t.Fatalf("receipts = %d, want %d", got, n)
	}

	page, err := s.messages.FindByConversationID(ctx, conv.ID, 50, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range page.Messages {
		if m.Status != models.MessageStatusRead {
			t.Fatalf("message %q status = %s", m.Content, m.Status)
		}
	}

	s.send(t, conv.ID, b, "one more")
	if got := s.unread(t, conv.ID, a); got != 1 {
		t.Fatalf("A unread after new message = %d, want 1", got)
	}
	if got, _ := s.messages.GetUnreadCount(ctx, conv.ID, a); got != 1 {
		t.Fatalf("authoritative unread = %d, want 1", got)
	}
}

func TestReconcileHealsDrift(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	conv, _, _ := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	s.send(t, conv.ID, b, "one")
	s.send(t, conv.ID, b, "two")

	if _, err := s.db.Exec("UPDATE conversation_participants SET unread_count = 42 WHERE user_id = ?", a); err != nil {
		t.Fatal(err)
	}
	if err := s.conversations.ReconcileUnread(ctx, conv.ID); err != nil {
		t.Fatal(err)
	}
	if got := s.unread(t, conv.ID, a); got != 2 {
		t.Fatalf("reconciled unread = %d, want 2", got)
	}
}

func TestParticipantGateAndMembership(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := s.user(t, "a"), s.user(t, "b"), s.user(t, "c")

	conv, _, _ := s.conversations.GetOrCreateDirect(ctx, a, b, nil)

	if ok, _ := s.conversations.IsParticipant(ctx, conv.ID, c); ok {
		t.Fatal("c is not a participant yet")
	}
	if _, err := s.conversations.MarkAsRead(ctx, conv.ID, c); !errors.Is(err, pkg.ErrForbidden) {
		t.Fatalf("MarkAsRead by outsider: err = %v", err)
	}

	if err := s.conversations.AddParticipant(ctx, conv.ID, c); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.conversations.IsParticipant(ctx, conv.ID, c); !ok {
		t.Fatal("c should be a participant after AddParticipant")
	}
	if err := s.conversations.AddParticipant(ctx, conv.ID, c); err != nil {
		t.Fatalf("re-adding an active participant: %v", err)
	}

	d, err := s.conversations.FindByIDWithDetails(ctx, conv.ID, a)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Participants) != 3 || d.OtherParticipant != nil {
		t.Fatalf("group details: %d participants, other=%v", len(d.Participants), d.OtherParticipant)
	}

	// messages sent while c is away never count for c
	if err := s.conversations.RemoveParticipant(ctx, conv.ID, c); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.conversations.IsParticipant(ctx, conv.ID, c); ok {
		t.Fatal("c left")
	}
	s.send(t, conv.ID, a, "while c was away")
	if err := s.conversations.RemoveParticipant(ctx, conv.ID, c); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("leaving twice: err = %v", err)
	}

	if err := s.conversations.AddParticipant(ctx, conv.ID, c); err != nil {
		t.Fatal(err)
	}
	var rows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = ? AND user_id = ?", conv.ID, c).Scan(&rows); err != nil || rows != 1 {
		t.Fatalf("re-join duplicated the row: %d %v", rows, err)
	}
	if got := s.unread(t, conv.ID, c); got != 0 {
		t.Fatalf("c unread after rejoin = %d", got)
	}
	if got, _ := s.messages.GetUnreadCount(ctx, conv.ID, c); got != 0 {
		t.Fatalf("c authoritative unread after rejoin = %d", got)
	}

	if err := s.conversations.SetMuted(ctx, conv.ID, b, true); err != nil {
		t.Fatal(err)
	}
	d, _ = s.conversations.FindByIDWithDetails(ctx, conv.ID, b)
	if !d.IsMuted {
		t.Fatal("b should be muted")
	}

	if _, err := s.conversations.FindByIDWithDetails(ctx, "missing", a); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("missing conversation: err = %v", err)
	}
}

func TestSoftDeleteTombstone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	conv, _, _ := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	s.send(t, conv.ID, a, "first")
	secret := s.send(t, conv.ID, a, "secret plans")
	s.send(t, conv.ID, a, "third")

	if got := s.unread(t, conv.ID, b); got != 3 {
		t.Fatalf("b unread = %d", got)
	}

	deleted, err := s.messages.Delete(ctx, secret.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !deleted.IsDeleted || deleted.Content != models.DeletedMessageContent || deleted.DeletedAt == nil {
		t.Fatalf("tombstone = %+v", deleted)
	}
	if _, err := s.messages.Delete(ctx, secret.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	page, err := s.messages.FindByConversationID(ctx, conv.ID, 50, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Messages) != 3 || page.Messages[1].ID != secret.ID {
		t.Fatalf("tombstone not in place: %+v", page.Messages)
	}
	if page.Messages[1].Content == "secret plans" {
		t.Fatal("original content leaked")
	}
	if page.Total != 2 {
		t.Fatalf("total = %d, want 2", page.Total)
	}

	hits, err := s.messages.Search(ctx, b, "secret", 20)
	if err != nil || len(hits) != 0 {
		t.Fatalf("search found deleted message: %v %v", hits, err)
	}
	if got := s.unread(t, conv.ID, b); got != 2 {
		t.Fatalf("deleted unread message still counted: %d", got)
	}

	d, _ := s.conversations.FindByIDWithDetails(ctx, conv.ID, b)
	if d.LastMessage == nil || d.LastMessage.Content != "third" {
		t.Fatalf("last message = %+v", d.LastMessage)
	}

	if _, err := s.messages.Delete(ctx, "missing"); !errors.Is(err, pkg.ErrNotFound) {
		t.Fatalf("delete missing: err = %v", err)
	}
}

func TestPaginationBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b := s.user(t, "a"), s.user(t, "b")

	conv, _, _ := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	older := s.send(t, conv.ID, a, "older")
	newer := s.send(t, conv.ID, b, "newer")

	first, err := s.messages.FindByConversationID(ctx, conv.ID, 1, "")
	if err != nil {
		t.Fatal(err)
	}
	if !first.HasMore || len(first.Messages) != 1 || first.Messages[0].ID != newer.ID {
		t.Fatalf("first page = %+v", first)
	}
	if first.NextCursor == nil || *first.NextCursor != newer.ID {
		t.Fatalf("cursor = %v", first.NextCursor)
	}

	second, err := s.messages.FindByConversationID(ctx, conv.ID, 1, *first.NextCursor)
	if err != nil {
		t.Fatal(err)
	}
	if second.HasMore || len(second.Messages) != 1 || second.Messages[0].ID != older.ID {
		t.Fatalf("second page = %+v", second)
	}
	if second.NextCursor != nil {
		t.Fatal("last page should have no cursor")
	}
	if first.Total != 2 || second.Total != 2 {
		t.Fatalf("totals = %d, %d", first.Total, second.Total)
	}

	if _, err := s.messages.FindByConversationID(ctx, conv.ID, 1, "bogus"); !errors.Is(err, pkg.ErrBadRequest) {
		t.Fatalf("bogus cursor: err = %v", err)
	}
}

func TestSearchScopedToActiveConversations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c := s.user(t, "a"), s.user(t, "b"), s.user(t, "c")

	ab, _, _ := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	bc, _, _ := s.conversations.GetOrCreateDirect(ctx, b, c, nil)
	s.send(t, ab.ID, b, "Lease RENEWAL terms")
	s.send(t, bc.ID, b, "lease renewal for c")
	s.send(t, ab.ID, b, "100% agreed")

	hits, err := s.messages.Search(ctx, a, "renewal", 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ConversationID != ab.ID {
		t.Fatalf("hits = %+v", hits)
	}

	hits, _ = s.messages.Search(ctx, a, "0%", 20)
	if len(hits) != 1 {
		t.Fatalf("escaped wildcard search = %d hits", len(hits))
	}
	hits, _ = s.messages.Search(ctx, a, "%", 20)
	if len(hits) != 1 {
		t.Fatalf("literal %% should match only the message containing it, got %d", len(hits))
	}

	if err := s.conversations.RemoveParticipant(ctx, ab.ID, a); err != nil {
		t.Fatal(err)
	}
	hits, _ = s.messages.Search(ctx, a, "renewal", 20)
	if len(hits) != 0 {
		t.Fatalf("search after leaving = %d hits", len(hits))
	}
}

func TestFindByUserIDOrderingAndPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a, b, c, d := s.user(t, "a"), s.user(t, "b"), s.user(t, "c"), s.user(t, "d")

	ab, _, _ := s.conversations.GetOrCreateDirect(ctx, a, b, nil)
	ac, _, _ := s.conversations.GetOrCreateDirect(ctx, a, c, nil)
	ad, _, _ := s.conversations.GetOrCreateDirect(ctx, a, d, nil)
	s.send(t, ab.ID, b, "bump ab")

	page, err := s.conversations.FindByUserID(ctx, a, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 3 || !page.HasMore || len(page.Conversations) != 2 {
		t.Fatalf("page 1 = total %d hasMore %v len %d", page.Total, page.HasMore, len(page.Conversations))
	}
	if page.Conversations[0].ID != ab.ID || page.Conversations[1].ID != ad.ID {
		t.Fatalf("order = %s, %s", page.Conversations[0].ID, page.Conversations[1].ID)
	}
	if page.Conversations[0].UnreadCount != 1 || page.Conversations[0].OtherParticipant == nil ||
		page.Conversations[0].OtherParticipant.ID != b {
		t.Fatalf("enrichment = %+v", page.Conversations[0])
	}

	page, err = s.conversations.FindByUserID(ctx, a, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if page.HasMore || len(page.Conversations) != 1 || page.Conversations[0].ID != ac.ID {
		t.Fatalf("page 2 = %+v", page)
	}

	ids, err := s.conversations.ListIDsForUser(ctx, a, 2)
	if err != nil || len(ids) != 2 || ids[0] != ab.ID {
		t.Fatalf("ListIDsForUser = %v, %v", ids, err)
	}
}
