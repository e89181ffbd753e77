package twitch

import (
	"strings"
	"unicode/utf8"

	twitchirc "github.com/gempir/go-twitch-irc/v4"
)

// PongFrame отправляется в ответ на PING без ожидания ответа.
const PongFrame = "PONG :tmi.twitch.tv\n"

// ParseFunc извлекает отправителя и текст из кадра. ok == false, если кадр не PRIVMSG.
type ParseFunc func(frame string) (sender, text string, ok bool)

func isPing(frame string) bool {
	return strings.HasPrefix(frame, "PING")
}

// ParseChunk разбирает сырой кусок без разбиения на строки: делит по ':'
// максимум на три части, отправитель берётся до '!' во второй части, у текста
// отрезаются последние два символа (\r\n).
//
// Кусок с несколькими строками или строка, разрезанная между двумя чтениями,
// разбираются неверно или отбрасываются.
func ParseChunk(chunk string) (sender, text string, ok bool) {
	parts := strings.SplitN(chunk, ":", 3)
	if len(parts) <= 2 || !strings.Contains(parts[1], "PRIVMSG") {
		return "", "", false
	}

	sender, _, _ = strings.Cut(parts[1], "!")
	return sender, dropLastRunes(parts[2], 2), true
}

// ParseLine разбирает одну целую строку протокола (без терминатора) через go-twitch-irc.
// Отправитель берётся из префикса до '!', как и в ParseChunk. Строка, на которой
// парсер паникует, считается не PRIVMSG.
func ParseLine(line string) (sender, text string, ok bool) {
	if line == "" {
		return "", "", false
	}

	defer func() {
		if recover() != nil {
			sender, text, ok = "", "", false
		}
	}()

	msg, isPrivmsg := twitchirc.ParseMessage(line).(*twitchirc.PrivateMessage)
	if !isPrivmsg {
		return "", "", false
	}
	return prefixNick(line), msg.Message, true
}

// prefixNick возвращает ник из префикса ":nick!user@host", пропуская теги.
func prefixNick(line string) string {
	if strings.HasPrefix(line, "@") {
		_, line, _ = strings.Cut(line, " ")
	}
	prefix, ok := strings.CutPrefix(line, ":")
	if !ok {
		return ""
	}
	prefix, _, _ = strings.Cut(prefix, " ")
	nick, _, _ := strings.Cut(prefix, "!")
	return nick
}

func dropLastRunes(s string, n int) string {
	for ; n > 0 && s != ""; n-- {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}
