package service

import (
	"context"
	"log"
	"net"
	"time"

	"github.com/cenkalti/backoff/v5"

	"twitch-chat-viewer/config"
	"twitch-chat-viewer/telemetry"
	"twitch-chat-viewer/twitch"
)

// RetryPolicy задаёт переподключение после остановки цикла чтения.
// Нулевое значение отключает переподключения: первая ошибка завершает сессию.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Service управляет жизненным циклом подключения и цикла чтения.
type Service struct {
	twitch     config.TwitchConfig
	framing    string
	retry      RetryPolicy
	dispatcher *twitch.Dispatcher

	// Dialer переопределяет способ подключения. По умолчанию net.Dialer.
	Dialer twitch.Dialer

	conn net.Conn
}

// New создаёт Service. Dispatcher общий для всех сессий, поэтому нумерация
// сообщений не сбрасывается при переподключении.
func New(cfg config.Config, dispatcher *twitch.Dispatcher) *Service {
	return &Service{
		twitch:  cfg.Twitch,
		framing: cfg.Reader.Framing,
		retry: RetryPolicy{
			MaxRetries:      cfg.Retry.MaxRetries,
			InitialInterval: cfg.Retry.InitialInterval,
			MaxInterval:     cfg.Retry.MaxInterval,
		},
		dispatcher: dispatcher,
	}
}

// Connect выполняет первое подключение. Ошибка здесь фатальна для процесса
// и не переповторяется независимо от RetryPolicy.
func (s *Service) Connect(ctx context.Context) error {
	conn, err := twitch.Connect(ctx, s.Dialer, s.twitch)
	if err != nil {
		return err
	}
	s.conn = conn
	return nil
}

// Run запускает цикл чтения и блокируется до его окончательной остановки.
// Если Connect не вызывался, подключение выполняется здесь же.
func (s *Service) Run(ctx context.Context) error {
	if s.retry.MaxRetries <= 0 {
		return s.session(ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retry.InitialInterval
	b.MaxInterval = s.retry.MaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if attempt > 0 {
			telemetry.Inc(telemetry.Reconnects)
			log.Printf("сервис: переподключение, попытка %d из %d", attempt, s.retry.MaxRetries)
		}
		attempt++

		err := s.session(ctx)
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.retry.MaxRetries+1)),
		backoff.WithMaxElapsedTime(0),
	)
	return err
}

func (s *Service) session(ctx context.Context) error {
	conn := s.conn
	s.conn = nil
	if conn == nil {
		var err error
		if conn, err = twitch.Connect(ctx, s.Dialer, s.twitch); err != nil {
			return err
		}
	}

	reader := twitch.NewReader(conn, s.dispatcher, s.framing)
	log.Printf("сервис: сессия %s запущена (framing=%s)", reader.Session(), s.framing)

	return reader.Run(ctx)
}
