// Package ipc lets hotkeys and scripts drive a running drill over a unix
// socket using one JSON object per line.
package ipc

// Commands understood by a running drill.
const (
	CommandStatus = "status"
	CommandToggle = "toggle"
	CommandNext   = "next"
)

type Request struct {
	Command string `json:"command"`
}

// Response mirrors the drill's visible surfaces after the command ran.
type Response struct {
	OK      bool     `json:"ok"`
	State   string   `json:"state,omitempty"`
	Word    string   `json:"word,omitempty"`
	Vowel   string   `json:"vowel,omitempty"`
	IPA     string   `json:"ipa,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Message string   `json:"message,omitempty"`
	Error   string   `json:"error,omitempty"`
}
