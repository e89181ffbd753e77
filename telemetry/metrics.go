// Package telemetry содержит счётчики Prometheus для цикла чтения и очереди дисплея.
package telemetry

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	FramesRead       prometheus.Counter
	PingsAnswered    prometheus.Counter
	MessagesAccepted prometheus.Counter
	MessagesFiltered prometheus.Counter
	FramesIgnored    prometheus.Counter
	ReadErrors       prometheus.Counter
	Reconnects       prometheus.Counter
	EventsDropped    prometheus.Counter
)

// Init регистрирует метрики, повторный вызов ничего не делает. До Init все счётчики nil и Inc их пропускает.
func Init() {
	once.Do(func() {
		FramesRead = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_frames_read_total", Help: "Frames returned by the read loop"})
		PingsAnswered = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_pings_answered_total", Help: "PING frames answered with PONG"})
		MessagesAccepted = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_accepted_total", Help: "PRIVMSG frames dispatched to the display"})
		MessagesFiltered = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_messages_filtered_total", Help: "PRIVMSG frames dropped by the bot filter"})
		FramesIgnored = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_frames_ignored_total", Help: "Frames that were neither PING nor PRIVMSG"})
		ReadErrors = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_read_errors_total", Help: "Read loops stopped by an I/O or decode failure"})
		Reconnects = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_reconnects_total", Help: "Reconnect attempts made by the retry policy"})
		EventsDropped = promauto.NewCounter(prometheus.CounterOpts{Name: "chat_display_events_dropped_total", Help: "Events dropped because the display queue was full"})
	})
}

// Inc увеличивает c, если счётчик инициализирован.
func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

// Serve отдаёт /metrics на addr до отмены ctx.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry: ошибка остановки сервера метрик: %v", err)
		}
	}()

	log.Printf("telemetry: метрики доступны на %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
