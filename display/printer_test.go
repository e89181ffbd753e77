package display

import (
	"bytes"
	"context"
	"testing"

	"twitch-chat-viewer/model"
)

func TestPrinterWritesLines(t *testing.T) {
	q := NewQueue(4)
	q.Dispatch(model.ChatEvent{Sender: "alice", Message: "hello world", Seq: 0})
	q.Dispatch(model.ChatEvent{Sender: "bob", Message: "hi", Seq: 1})
	q.Close()

	var buf bytes.Buffer
	if err := NewPrinter(&buf).Run(context.Background(), q.Events()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := buf.String(), "alice: hello world\nbob: hi\n"; got != want {
		t.Fatalf("unexpected output %q, want %q", got, want)
	}
}

func TestPrinterStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	if err := NewPrinter(&buf).Run(ctx, make(chan model.ChatEvent)); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
