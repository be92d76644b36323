package bot

import (
	"context"
	"testing"

	"RideDesk/bot/chat"
)

type fakeMessenger struct {
	texts []string
	menus []string
	rows  [][][]chat.MenuButton
}

func (m *fakeMessenger) SendText(chatID, text string) error {
	m.texts = append(m.texts, text)
	return nil
}
func (m *fakeMessenger) SendMenu(chatID, text string, rows [][]chat.MenuButton) error {
	m.menus = append(m.menus, text)
	m.rows = append(m.rows, rows)
	return nil
}
func (m *fakeMessenger) SendInlineOptions(chatID, text string, buttons []chat.InlineButton) error {
	return nil
}
func (m *fakeMessenger) SendContactRequest(chatID, text, buttonText string) error  { return nil }
func (m *fakeMessenger) SendLocationRequest(chatID, text, buttonText string) error { return nil }
func (m *fakeMessenger) SendLocation(chatID string, lat, lon float64, livePeriod int64) error {
	return nil
}
func (m *fakeMessenger) AnswerCallback(callbackID, text string) error { return nil }

func TestHandleHelpSendsCommandMenu(t *testing.T) {
	m := &fakeMessenger{}
	b := &RideBot{messenger: m}

	if err := b.handleHelp(context.Background(), "100"); err != nil {
		t.Fatalf("help: %v", err)
	}
	if len(m.menus) != 1 {
		t.Fatalf("menus sent = %d, want 1", len(m.menus))
	}
	if m.menus[0] != helpText {
		t.Fatalf("menu text = %q", m.menus[0])
	}

	var buttons []string
	for _, row := range m.rows[0] {
		for _, btn := range row {
			buttons = append(buttons, btn.Text)
		}
	}
	want := map[string]bool{"/ride": true, "/start": true, "/status": true, "/help": true}
	for _, text := range buttons {
		if !want[text] {
			t.Fatalf("unexpected menu button %q", text)
		}
		delete(want, text)
	}
	if len(want) != 0 {
		t.Fatalf("menu missing buttons: %v", want)
	}
}

func TestIsBareCommand(t *testing.T) {
	b := &RideBot{botUsername: "RideDeskBot"}

	cases := []struct {
		text string
		want bool
	}{
		{"/start", true},
		{" /start ", true},
		{"/start@RideDeskBot", true},
		{"/start now", false},
		{"/start@OtherBot", false},
		{"/started", false},
		{"start", false},
	}
	for _, c := range cases {
		if got := b.isBareCommand(c.text, "start"); got != c.want {
			t.Fatalf("isBareCommand(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}
