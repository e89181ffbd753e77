package service

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"twitch-chat-viewer/config"
	"twitch-chat-viewer/model"
	"twitch-chat-viewer/twitch"
)

type script func(t *testing.T, c net.Conn, r *bufio.Reader)

type fakeServer struct {
	ln       net.Listener
	accepted atomic.Int32
	done     chan struct{}
}

func startServer(t *testing.T, scripts ...script) *fakeServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &fakeServer{ln: ln, done: make(chan struct{})}
	t.Cleanup(func() { ln.Close() })

	go func() {
		defer close(s.done)
		for _, run := range scripts {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			s.accepted.Add(1)
			r := bufio.NewReader(c)
			for i := 0; i < 3; i++ {
				if _, err := r.ReadString('\n'); err != nil {
					t.Errorf("read handshake: %v", err)
				}
			}
			run(t, c, r)
			c.Close()
		}
	}()
	return s
}

func (s *fakeServer) config(framing string, retries int) config.Config {
	addr := s.ln.Addr().(*net.TCPAddr)
	return config.Config{
		Twitch: config.TwitchConfig{
			Server:     addr.IP.String(),
			Port:       addr.Port,
			OAuthToken: "oauth:secret",
			Username:   "viewer",
			Channel:    "chan",
		},
		Reader: config.ReaderConfig{Framing: framing},
		Retry: config.RetryConfig{
			MaxRetries:      retries,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
		},
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []model.ChatEvent
}

func (s *recordingSink) Dispatch(ev model.ChatEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) Events() []model.ChatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatEvent(nil), s.events...)
}

func send(t *testing.T, c net.Conn, lines string) {
	t.Helper()
	if _, err := io.WriteString(c, lines); err != nil {
		t.Errorf("server write: %v", err)
	}
}

func TestServiceEndToEnd(t *testing.T) {
	pong := make(chan string, 1)
	srv := startServer(t, func(t *testing.T, c net.Conn, r *bufio.Reader) {
		send(t, c, "PING :tmi.twitch.tv\r\n")
		line, err := r.ReadString('\n')
		if err != nil {
			t.Errorf("read pong: %v", err)
		}
		pong <- line
		send(t, c, ":alice!alice@alice.tmi.twitch.tv PRIVMSG #chan :hello world\r\n"+
			":nightbot!nightbot@nightbot.tmi.twitch.tv PRIVMSG #chan :!uptime\r\n"+
			":bob!bob@bob.tmi.twitch.tv PRIVMSG #chan :hi alice\r\n")
	})

	sink := &recordingSink{}
	s := New(srv.config(config.FramingLine, 0), twitch.NewDispatcher(sink, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	err := s.Run(ctx)

	var readErr *twitch.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError after server close, got %v", err)
	}
	if got := <-pong; got != "PONG :tmi.twitch.tv\n" {
		t.Fatalf("unexpected pong %q", got)
	}

	want := []model.ChatEvent{
		{Sender: "alice", Message: "hello world", Seq: 0},
		{Sender: "bob", Message: "hi alice", Seq: 1},
	}
	events := sink.Events()
	if len(events) != len(want) {
		t.Fatalf("expected %d events, got %+v", len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("event %d: expected %+v, got %+v", i, want[i], events[i])
		}
	}

	<-srv.done
	if srv.accepted.Load() != 1 {
		t.Fatalf("no reconnect expected, got %d connections", srv.accepted.Load())
	}
}

func TestServiceRetryKeepsSequence(t *testing.T) {
	srv := startServer(t,
		func(t *testing.T, c net.Conn, _ *bufio.Reader) {
			send(t, c, ":alice!alice@alice.tmi.twitch.tv PRIVMSG #chan :first\r\n")
		},
		func(t *testing.T, c net.Conn, _ *bufio.Reader) {
			send(t, c, ":moobot!moobot@moobot.tmi.twitch.tv PRIVMSG #chan :ad\r\n"+
				":bob!bob@bob.tmi.twitch.tv PRIVMSG #chan :second\r\n")
		},
		func(t *testing.T, c net.Conn, _ *bufio.Reader) {},
	)

	sink := &recordingSink{}
	s := New(srv.config(config.FramingLine, 2), twitch.NewDispatcher(sink, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.Run(ctx)
	var readErr *twitch.ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("expected ReadError after retries are exhausted, got %v", err)
	}

	<-srv.done
	if srv.accepted.Load() != 3 {
		t.Fatalf("expected 3 connections, got %d", srv.accepted.Load())
	}

	events := sink.Events()
	if len(events) != 2 || events[0].Seq != 0 || events[1].Seq != 1 || events[1].Sender != "bob" {
		t.Fatalf("unexpected events across sessions: %+v", events)
	}
}

func TestServiceCancelStopsRetries(t *testing.T) {
	release := make(chan struct{})
	srv := startServer(t, func(t *testing.T, c net.Conn, _ *bufio.Reader) {
		<-release
	})
	defer close(release)

	s := New(srv.config(config.FramingChunk, 5), twitch.NewDispatcher(&recordingSink{}, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.accepted.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

type refusingDialer struct{}

func (refusingDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	return nil, syscall.ECONNREFUSED
}

func TestServiceConnectError(t *testing.T) {
	cfg := config.Config{Twitch: config.TwitchConfig{Server: "127.0.0.1", Port: 6667, OAuthToken: "oauth:x", Username: "u", Channel: "c"}}
	s := New(cfg, twitch.NewDispatcher(&recordingSink{}, nil))
	s.Dialer = refusingDialer{}

	err := s.Connect(context.Background())
	var connErr *twitch.ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectError, got %v", err)
	}
}
