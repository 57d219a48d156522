package change

import "testing"

func TestChatMessage(t *testing.T) {
	c := Change{Index: 0, OldText: "GET NOTIFIED", NewText: "BOOK NOW"}

	got := c.ChatMessage()
	want := "🔔 Button 1 changed to: BOOK NOW"
	if got != want {
		t.Errorf("ChatMessage: got %q, want %q", got, want)
	}
}

func TestConsoleMessage(t *testing.T) {
	c := Change{Index: 2, OldText: "SOLD OUT", NewText: "AVAILABLE"}

	got := c.ConsoleMessage()
	want := "\n🔔 Button 3 changed: 'SOLD OUT' -> 'AVAILABLE'"
	if got != want {
		t.Errorf("ConsoleMessage: got %q, want %q", got, want)
	}
}

func TestSelectionEmpty(t *testing.T) {
	if !(Selection{}).Empty() {
		t.Error("zero Selection: Empty() = false, want true")
	}
	s := Selection{Indices: []int{1, 3}, Texts: map[int]string{1: "a", 3: "b"}}
	if s.Empty() {
		t.Error("non-empty Selection: Empty() = true, want false")
	}
}
