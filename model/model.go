package model

import "strings"

// ChatEvent описывает принятое сообщение чата, передаваемое в дисплей.
// Seq равен числу ранее принятых (не отфильтрованных) сообщений.
type ChatEvent struct {
	Sender  string
	Message string
	Seq     uint64
}

// Band возвращает номер чередующейся полосы оформления (0 или 1).
func (e ChatEvent) Band() int {
	return int(e.Seq % 2)
}

// BotFilterSet хранит ники ботов в нижнем регистре. После создания не меняется.
type BotFilterSet map[string]struct{}

// DefaultBots содержит ботов, сообщения которых не показываются.
var DefaultBots = NewBotFilterSet("nightbot", "moobot", "streamelements")

// NewBotFilterSet собирает набор, приводя ники к нижнему регистру.
func NewBotFilterSet(names ...string) BotFilterSet {
	set := make(BotFilterSet, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// IsBot сообщает, принадлежит ли ник набору (без учёта регистра).
func (s BotFilterSet) IsBot(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}
