package twitch

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"

	"twitch-chat-viewer/config"
)

// Dialer открывает транспортное соединение; *net.Dialer удовлетворяет интерфейсу.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ConnectError сообщает об ошибке подключения или отправки рукопожатия.
type ConnectError struct {
	Addr  string
	Cause error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("twitch: connect %s: %v", e.Addr, e.Cause)
}

func (e *ConnectError) Unwrap() error { return e.Cause }

// Connect открывает TCP-соединение и отправляет PASS, NICK и JOIN.
// Подтверждение авторизации не ожидается: неверный токен проявится позже,
// когда сервер закроет поток.
func Connect(ctx context.Context, dialer Dialer, cfg config.TwitchConfig) (net.Conn, error) {
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	addr := cfg.Addr()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Cause: err}
	}

	if err := sendHandshake(conn, cfg); err != nil {
		conn.Close()
		return nil, &ConnectError{Addr: addr, Cause: err}
	}

	log.Printf("twitch: подключено к %s как %s, канал #%s", addr, cfg.Username, cfg.Channel)
	return conn, nil
}

func sendHandshake(w io.Writer, cfg config.TwitchConfig) error {
	for _, frame := range handshakeFrames(cfg) {
		if _, err := io.WriteString(w, frame); err != nil {
			return fmt.Errorf("send handshake: %w", err)
		}
	}
	return nil
}

func handshakeFrames(cfg config.TwitchConfig) []string {
	return []string{
		"PASS " + cfg.OAuthToken + "\n",
		"NICK " + cfg.Username + "\n",
		"JOIN #" + cfg.Channel + "\n",
	}
}
