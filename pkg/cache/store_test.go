package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type kpiSnapshot struct {
	Active int `json:"active"`
	Open   int `json:"open"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok=%v err=%v", ok, err)
	}

	if err := SetJSON(ctx, s, "kpi:u1", kpiSnapshot{Active: 3, Open: 2}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	got, ok, err := GetJSON[kpiSnapshot](ctx, s, "kpi:u1")
	if err != nil || !ok {
		t.Fatalf("GetJSON = ok=%v err=%v", ok, err)
	}
	if got.Active != 3 || got.Open != 2 {
		t.Fatalf("GetJSON = %+v", got)
	}

	if err := s.Delete(ctx, "kpi:u1", "unread:u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "kpi:u1"); ok {
		t.Fatal("key survived Delete")
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), mr.Addr(), 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStoreTTL(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), mr.Addr(), 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Set(ctx, "unread:u1", []byte("4"), 30*time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	mr.FastForward(31 * time.Second)

	if _, ok, err := s.Get(ctx, "unread:u1"); err != nil || ok {
		t.Fatalf("expected expiry, ok=%v err=%v", ok, err)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := NewRedisStore(ctx, addr, 0); err == nil {
		t.Fatal("expected connection error")
	}
}
