package twitch

import (
	"sync/atomic"

	"twitch-chat-viewer/model"
	"twitch-chat-viewer/telemetry"
)

// Sink принимает принятые события чата. Dispatch вызывается из горутины
// чтения и не должен блокировать её на неограниченное время.
type Sink interface {
	Dispatch(model.ChatEvent)
}

// SinkFunc позволяет использовать функцию как Sink.
type SinkFunc func(model.ChatEvent)

// Dispatch вызывает f(ev).
func (f SinkFunc) Dispatch(ev model.ChatEvent) { f(ev) }

// Dispatcher фильтрует ботов и присваивает принятым сообщениям номера без пропусков.
// Переживает переподключения, поэтому нумерация продолжается между сессиями.
type Dispatcher struct {
	bots model.BotFilterSet
	sink Sink
	next atomic.Uint64
}

// NewDispatcher создаёт Dispatcher; при bots == nil используется model.DefaultBots.
func NewDispatcher(sink Sink, bots model.BotFilterSet) *Dispatcher {
	if bots == nil {
		bots = model.DefaultBots
	}
	return &Dispatcher{bots: bots, sink: sink}
}

// Offer передаёт сообщение в Sink, если отправитель не бот. Возвращает true, если событие отправлено.
func (d *Dispatcher) Offer(sender, text string) bool {
	if d.bots.IsBot(sender) {
		telemetry.Inc(telemetry.MessagesFiltered)
		return false
	}

	ev := model.ChatEvent{
		Sender:  sender,
		Message: text,
		Seq:     d.next.Add(1) - 1,
	}
	telemetry.Inc(telemetry.MessagesAccepted)

	d.sink.Dispatch(ev)
	return true
}

// Accepted возвращает число принятых сообщений, то есть следующий номер.
func (d *Dispatcher) Accepted() uint64 {
	return d.next.Load()
}
