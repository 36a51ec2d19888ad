// Package relay serves FIBS sessions over plain TCP.
//
// A client, typically a proxy between a FIBS connection and a user
// interface, writes every line it receives from FIBS to the relay. Each
// connection owns one session.Session and the relay answers every line
// with one JSON object:
//
//	{"n":3,"code":"rolls","tokens":[...]}
//	{"n":4,"code":"moves","tokens":[...],"error":"..."}
//	{"n":5}                                  (line not recognized)
//
// Lines starting with '#' are relay commands: "#match" returns the summary
// of the current match, "#quit" closes the connection.
package relay

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/gofibs/pkg/clip"
	"github.com/yourusername/gofibs/pkg/session"
	"github.com/yourusername/gofibs/pkg/store"
)

// Reply is the answer to one line.
type Reply struct {
	N      int            `json:"n"`
	Code   string         `json:"code,omitempty"`
	Tokens *clip.Tokens   `json:"tokens,omitempty"`
	Match  *store.Summary `json:"match,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// Options configures a Server.
type Options struct {
	Name string // Login name passed to every session
	// Archive, if set, receives every match of a connection when it closes.
	Archive *store.Store
}

// Server accepts relay connections.
type Server struct {
	opts Options
	log  *zap.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// NewServer creates a relay server.
func NewServer(opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		opts:  opts,
		log:   log,
		conns: make(map[net.Conn]struct{}),
	}
}

// ListenAndServe listens on addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or ln fails. Open
// connections are closed and waited for before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.listener != nil {
		s.mu.Unlock()
		return errors.New("relay already running")
	}
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("relay listening", zap.Stringer("addr", ln.Addr()))

	stop := context.AfterFunc(ctx, func() { s.close() })
	defer stop()

	var err error
	for {
		conn, aerr := ln.Accept()
		if aerr != nil {
			if ctx.Err() == nil {
				err = aerr
			}
			break
		}
		if !s.track(conn) {
			conn.Close()
			break
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConnection(ctx, conn)
		}()
	}

	s.close()
	s.wg.Wait()
	return err
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// close stops accepting and closes all open connections.
func (s *Server) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return
	}
	s.listener.Close()
	for c := range s.conns {
		c.Close()
	}
	s.conns = nil
}

// handleConnection runs one session.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))
	log.Debug("relay connection opened")
	sess := session.New(session.WithName(s.opts.Name), session.WithLogger(log))

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)
	w := bufio.NewWriter(conn)
	enc := json.NewEncoder(w)

	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.HasPrefix(line, "#") {
			reply, quit := command(sess, n, strings.TrimSpace(line[1:]))
			if err := enc.Encode(reply); err != nil || w.Flush() != nil || quit {
				break
			}
			continue
		}

		reply := Reply{N: n}
		tokens, ok, err := sess.Handle(line)
		if ok {
			reply.Code = tokens.MessageCode().String()
			reply.Tokens = tokens
		}
		if err != nil {
			reply.Error = err.Error()
		}
		if err := enc.Encode(reply); err != nil {
			break
		}
		if err := w.Flush(); err != nil {
			break
		}
	}

	s.archive(ctx, log, sess)
	log.Debug("relay connection closed", zap.Int("lines", n))
}

func command(sess *session.Session, n int, cmd string) (Reply, bool) {
	reply := Reply{N: n}
	switch strings.ToLower(cmd) {
	case "match":
		m := sess.Match()
		if m == nil {
			reply.Error = "no match"
			break
		}
		sum := store.Summarize(m)
		reply.Match = &sum
	case "quit", "exit":
		return reply, true
	default:
		reply.Error = fmt.Sprintf("unknown command %q", cmd)
	}
	return reply, false
}

func (s *Server) archive(ctx context.Context, log *zap.Logger, sess *session.Session) {
	if s.opts.Archive == nil {
		return
	}
	// The server context may already be canceled on shutdown.
	ctx = context.WithoutCancel(ctx)
	for _, m := range sess.Matches() {
		if err := s.opts.Archive.Save(ctx, m); err != nil {
			log.Error("archiving match", zap.Stringer("match", m.ID), zap.Error(err))
		}
	}
}
