package model

import "testing"

func TestDefaultBotsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"nightbot", "Nightbot", "MOOBOT", "StreamElements"} {
		if !DefaultBots.IsBot(name) {
			t.Fatalf("expected %q to be filtered", name)
		}
	}
	if DefaultBots.IsBot("alice") {
		t.Fatalf("alice must not be treated as a bot")
	}
}

func TestChatEventBand(t *testing.T) {
	if (ChatEvent{Seq: 0}).Band() != 0 || (ChatEvent{Seq: 1}).Band() != 1 || (ChatEvent{Seq: 4}).Band() != 0 {
		t.Fatalf("unexpected band assignment")
	}
}
