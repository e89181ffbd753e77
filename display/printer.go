package display

import (
	"context"
	"fmt"
	"io"

	"twitch-chat-viewer/model"
)

// FormatLine возвращает строку вида "user: message".
func FormatLine(ev model.ChatEvent) string {
	return ev.Sender + ": " + ev.Message
}

// Printer пишет события построчно в io.Writer.
type Printer struct {
	w io.Writer
}

// NewPrinter создаёт Printer.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Run печатает события до закрытия канала или отмены контекста.
func (p *Printer) Run(ctx context.Context, events <-chan model.ChatEvent) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintln(p.w, FormatLine(ev)); err != nil {
				return fmt.Errorf("display: write: %w", err)
			}
		}
	}
}
