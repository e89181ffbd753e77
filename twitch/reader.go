package twitch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"twitch-chat-viewer/config"
	"twitch-chat-viewer/telemetry"
)

// State описывает состояние цикла чтения.
type State int32

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrReaderStopped возвращается при повторном запуске остановленного Reader.
var ErrReaderStopped = errors.New("twitch: reader already stopped")

// ReadError сообщает об ошибке ввода-вывода или декодирования внутри цикла чтения.
type ReadError struct {
	Session string
	Cause   error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("twitch: session %s: read loop stopped: %v", e.Session, e.Cause)
}

func (e *ReadError) Unwrap() error { return e.Cause }

// Reader владеет соединением и гоняет блокирующий цикл чтения.
// Из STOPPED обратно в RUNNING не переходит.
type Reader struct {
	conn       io.ReadWriteCloser
	frames     framer
	parse      ParseFunc
	dispatcher *Dispatcher
	session    string
	state      atomic.Int32
}

// NewReader создаёт Reader в состоянии RUNNING. framing принимает config.FramingChunk или config.FramingLine.
func NewReader(conn io.ReadWriteCloser, dispatcher *Dispatcher, framing string) *Reader {
	r := &Reader{
		conn:       conn,
		dispatcher: dispatcher,
		session:    uuid.NewString(),
	}

	switch framing {
	case config.FramingLine:
		r.frames = newLineFramer(conn)
		r.parse = ParseLine
	default:
		r.frames = newChunkFramer(conn)
		r.parse = ParseChunk
	}

	return r
}

// State возвращает текущее состояние цикла.
func (r *Reader) State() State {
	return State(r.state.Load())
}

// Session возвращает идентификатор сессии для логов.
func (r *Reader) Session() string {
	return r.session
}

// Run блокируется до ошибки ввода-вывода или отмены контекста.
// Отмена контекста закрывает соединение и возвращает ctx.Err();
// сбой чтения закрывает соединение и возвращает *ReadError.
func (r *Reader) Run(ctx context.Context) error {
	if r.State() == StateStopped {
		return ErrReaderStopped
	}

	stop := context.AfterFunc(ctx, func() {
		r.conn.Close()
	})
	defer stop()

	for {
		frame, err := r.frames.Next()
		if err != nil {
			return r.fail(ctx, err)
		}
		telemetry.Inc(telemetry.FramesRead)

		if err := r.handle(frame); err != nil {
			return r.fail(ctx, err)
		}
	}
}

func (r *Reader) handle(frame string) error {
	if isPing(frame) {
		if _, err := io.WriteString(r.conn, PongFrame); err != nil {
			return fmt.Errorf("send pong: %w", err)
		}
		telemetry.Inc(telemetry.PingsAnswered)
		return nil
	}

	sender, text, ok := r.parse(frame)
	if !ok {
		telemetry.Inc(telemetry.FramesIgnored)
		return nil
	}

	r.dispatcher.Offer(sender, text)
	return nil
}

func (r *Reader) fail(ctx context.Context, cause error) error {
	r.state.Store(int32(StateStopped))
	r.conn.Close()

	if ctx.Err() != nil {
		log.Printf("twitch: [%s] цикл чтения остановлен по отмене контекста", r.session)
		return ctx.Err()
	}

	telemetry.Inc(telemetry.ReadErrors)
	log.Printf("twitch: [%s] ошибка чтения, цикл остановлен: %v", r.session, cause)
	return &ReadError{Session: r.session, Cause: cause}
}
