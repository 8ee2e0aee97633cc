package ws

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/akinalp/leasehub/models"
)

type fakeValidator map[string]string // token -> user id

func (f fakeValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	id, ok := f[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return &models.TokenClaims{UserID: id, Email: id + "@example.com", Role: models.RoleTenant}, nil
}

type frame struct {
	Op  string          `json:"op"`
	D   json.RawMessage `json:"d"`
	Seq int64           `json:"seq"`
}

func newTestServer(t *testing.T) (*Server, *Namespace, *httptest.Server) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := NewServer(nil, logger)
	ns := srv.Namespace("messaging", TokenAuthenticator(fakeValidator{"tok-a": "a", "tok-b": "b"}, "accessToken"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{namespace}", srv.HandleConnection)
	ts := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Shutdown()
		ts.Close()
	})
	return srv, ns, ts
}

func dial(t *testing.T, ts *httptest.Server, path, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })

	if f := read(t, conn); f.Op != OpReady {
		t.Fatalf("first frame = %s, want ready", f.Op)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read: %v", err)
	}
	return f
}

func send(t *testing.T, conn *websocket.Conn, op string, d any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"op": op, "d": d}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHandshakeRejectsBadCredentials(t *testing.T) {
	_, _, ts := newTestServer(t)
	base := "ws" + strings.TrimPrefix(ts.URL, "http")

	for name, url := range map[string]string{
		"no token":  base + "/ws/messaging",
		"bad token": base + "/ws/messaging?token=forged",
	} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			t.Fatalf("%s: connection accepted", name)
		}
		if resp == nil || resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: response = %v", name, resp)
		}
	}

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/unknown?token=tok-a", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown namespace: err=%v resp=%v", err, resp)
	}
}

func TestCookieCredentialAndPersonalRoom(t *testing.T) {
	_, ns, ts := newTestServer(t)

	header := http.Header{}
	header.Set("Cookie", "accessToken=tok-a")
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/messaging", header)
	if err != nil {
		t.Fatalf("cookie dial: %v", err)
	}
	defer conn.Close()

	f := read(t, conn)
	var ready ReadyData
	if err := json.Unmarshal(f.D, &ready); err != nil || ready.UserID != "a" || ready.Namespace != "messaging" {
		t.Fatalf("ready = %s (%v)", f.D, err)
	}
	if !ns.IsRoomOccupied(UserRoom("a")) {
		t.Fatal("personal room should be occupied")
	}

	conn.Close()
	eventually(t, func() bool { return !ns.IsRoomOccupied(UserRoom("a")) })
}

func TestPingPongAndUnknownOp(t *testing.T) {
	_, _, ts := newTestServer(t)
	conn := dial(t, ts, "/ws/messaging", "tok-a")

	send(t, conn, OpPing, nil)
	if f := read(t, conn); f.Op != OpPong {
		t.Fatalf("got %s, want pong", f.Op)
	}

	send(t, conn, "nope", nil)
	f := read(t, conn)
	if f.Op != OpError {
		t.Fatalf("got %s, want error", f.Op)
	}
	var e ErrorData
	if err := json.Unmarshal(f.D, &e); err != nil || !strings.Contains(e.Message, "nope") {
		t.Fatalf("error payload = %s", f.D)
	}
}

func TestRoomsAndExcept(t *testing.T) {
	_, ns, ts := newTestServer(t)

	ns.On("room:join", func(c *Client, data json.RawMessage) {
		var room string
		_ = json.Unmarshal(data, &room)
		ns.Join(c, room)
		c.Emit(Event{Op: "joined", Data: room})
	})
	ns.On("shout", func(c *Client, data json.RawMessage) {
		var room string
		_ = json.Unmarshal(data, &room)
		ns.EmitToRoomExcept(room, c, Event{Op: "shout", Data: c.UserID()})
	})

	a := dial(t, ts, "/ws/messaging", "tok-a")
	b := dial(t, ts, "/ws/messaging", "tok-b")

	for _, conn := range []*websocket.Conn{a, b} {
		send(t, conn, "room:join", "lobby")
		if f := read(t, conn); f.Op != "joined" {
			t.Fatalf("got %s", f.Op)
		}
	}

	send(t, a, "shout", "lobby")
	f := read(t, b)
	if f.Op != "shout" || string(f.D) != `"a"` {
		t.Fatalf("b got %s %s", f.Op, f.D)
	}

	// a is excluded: the next frame a sees is the pong
	send(t, a, OpPing, nil)
	if f := read(t, a); f.Op != OpPong {
		t.Fatalf("sender received its own relay: %s", f.Op)
	}

	ns.EmitToRoom(UserRoom("b"), Event{Op: "direct"})
	if f := read(t, b); f.Op != "direct" {
		t.Fatalf("personal room emit: got %s", f.Op)
	}
}

func TestSeqIncreases(t *testing.T) {
	_, ns, ts := newTestServer(t)
	conn := dial(t, ts, "/ws/messaging", "tok-a")

	ns.EmitToRoom(UserRoom("a"), Event{Op: "one"})
	ns.EmitToRoom(UserRoom("a"), Event{Op: "two"})

	first, second := read(t, conn), read(t, conn)
	if second.Seq <= first.Seq {
		t.Fatalf("seq did not increase: %d then %d", first.Seq, second.Seq)
	}
}

func TestSeqIsSharedAcrossClients(t *testing.T) {
	_, ns, ts := newTestServer(t)
	a := dial(t, ts, "/ws/messaging", "tok-a")
	b := dial(t, ts, "/ws/messaging", "tok-b")

	ns.EmitToRoom(UserRoom("a"), Event{Op: "one"})
	ns.EmitToRoom(UserRoom("b"), Event{Op: "other"})
	ns.EmitToRoom(UserRoom("a"), Event{Op: "two"})

	first, second := read(t, a), read(t, a)
	other := read(t, b)
	if !(first.Seq < other.Seq && other.Seq < second.Seq) {
		t.Fatalf("seq order a=%d b=%d a=%d", first.Seq, other.Seq, second.Seq)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})

	r := httptest.NewRequest(http.MethodGet, "http://api.example.com/ws/messaging", nil)
	if !check(r) {
		t.Fatal("missing Origin should pass")
	}
	r.Header.Set("Origin", "https://app.example.com")
	if !check(r) {
		t.Fatal("allowed origin rejected")
	}
	r.Header.Set("Origin", "https://evil.example.net")
	if check(r) {
		t.Fatal("foreign origin accepted")
	}
}
