// Package change defines the data types exchanged between the monitor,
// its notification sinks, and the history store: a detected button text
// change and an interactive selection result.
package change

import "fmt"

// Change is one observed button text change. Index is the 0-based position
// of the button among all <button> elements on the page; notification
// messages render it 1-based.
type Change struct {
	Index     int    `json:"index"`
	OldText   string `json:"old_text"`
	NewText   string `json:"new_text"`
	PageURL   string `json:"page_url,omitempty"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
}

// ChatMessage renders the change in the wire format expected by chat
// notifiers. The format is a compatibility contract; do not reword it.
func (c Change) ChatMessage() string {
	return fmt.Sprintf("🔔 Button %d changed to: %s", c.Index+1, c.NewText)
}

// ConsoleMessage renders the change in the console fallback format,
// including the leading newline. Also a compatibility contract.
func (c Change) ConsoleMessage() string {
	return fmt.Sprintf("\n🔔 Button %d changed: '%s' -> '%s'", c.Index+1, c.OldText, c.NewText)
}

// Selection is the result of one interactive button selection: the chosen
// 0-based indices in ascending order and the text captured for each at
// selection time (the initial monitoring baseline).
type Selection struct {
	Indices []int          `json:"indices"`
	Texts   map[int]string `json:"texts"`
}

// Empty reports whether no buttons were selected.
func (s Selection) Empty() bool { return len(s.Indices) == 0 }
