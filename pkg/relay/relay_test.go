package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/gofibs/pkg/store"
)

type reply struct {
	N      int             `json:"n"`
	Code   string          `json:"code"`
	Tokens json.RawMessage `json:"tokens"`
	Match  *store.Summary  `json:"match"`
	Error  string          `json:"error"`
}

// startRelay serves s on a local port until the test ends and returns
// the address and a function that stops the server and waits for it.
func startRelay(t *testing.T, s *Server) (string, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return")
		}
	}
	t.Cleanup(stop)
	return ln.Addr().String(), stop
}

type client struct {
	t    *testing.T
	conn net.Conn
	r    *bufio.Reader
}

func dial(t *testing.T, addr string) *client {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return &client{t: t, conn: conn, r: bufio.NewReader(conn)}
}

func (c *client) send(line string) reply {
	c.t.Helper()
	if _, err := fmt.Fprintf(c.conn, "%s\r\n", line); err != nil {
		c.t.Fatalf("write %q: %v", line, err)
	}
	raw, err := c.r.ReadBytes('\n')
	if err != nil {
		c.t.Fatalf("read reply to %q: %v", line, err)
	}
	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		c.t.Fatalf("reply %s: %v", raw, err)
	}
	return r
}

func TestRelayLines(t *testing.T) {
	addr, _ := startRelay(t, NewServer(Options{Name: "You"}, nil))
	c := dial(t, addr)

	r := c.send("** You are now playing a 3 point match with someplayer")
	if r.N != 1 || r.Code != "start_match" || len(r.Tokens) == 0 || r.Error != "" {
		t.Errorf("start match reply = %+v", r)
	}

	r = c.send("You roll 6 and 2.")
	if r.N != 2 || r.Code != "rolls" {
		t.Errorf("roll reply = %+v", r)
	}

	r = c.send("nothing FIBS would ever say")
	if r.N != 3 || r.Code != "" || r.Tokens != nil || r.Error != "" {
		t.Errorf("unrecognized reply = %+v", r)
	}
}

func TestRelayCommands(t *testing.T) {
	addr, _ := startRelay(t, NewServer(Options{}, zap.NewNop()))
	c := dial(t, addr)

	if r := c.send("#match"); r.Error != "no match" {
		t.Errorf("#match before a match = %+v", r)
	}

	c.send("** You are now playing a 5 point match with someplayer")
	r := c.send("#match")
	if r.Match == nil {
		t.Fatalf("#match = %+v, want summary", r)
	}
	if r.Match.Players != [2]string{"You", "someplayer"} || r.Match.Length != 5 {
		t.Errorf("summary = %+v", r.Match)
	}

	if r := c.send("#frobnicate"); r.Error == "" {
		t.Errorf("unknown command reply = %+v", r)
	}

	if r := c.send("#quit"); r.N != 5 {
		t.Errorf("#quit reply = %+v", r)
	}
	if _, err := c.r.ReadByte(); err == nil {
		t.Error("connection still open after #quit")
	}
}

func TestRelayArchivesOnClose(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	archive := store.New(rdb)

	addr, stop := startRelay(t, NewServer(Options{Name: "You", Archive: archive}, nil))
	c := dial(t, addr)
	c.send("** You are now playing a 3 point match with someplayer")
	c.send("#quit")
	stop()

	sums, err := archive.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(sums) != 1 || sums[0].Players[1] != "someplayer" {
		t.Errorf("archived = %+v, want one match against someplayer", sums)
	}
}

func TestServeTwice(t *testing.T) {
	s := NewServer(Options{}, nil)
	addr, _ := startRelay(t, s)
	deadline := time.Now().Add(5 * time.Second)
	for s.Addr() == nil && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := s.Addr(); got == nil || got.String() != addr {
		t.Errorf("Addr() = %v, want %s", got, addr)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	if err := s.Serve(context.Background(), ln); err == nil {
		t.Error("second Serve succeeded")
	}
}
