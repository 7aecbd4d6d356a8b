// Package terminal renders the drill to a terminal and turns key presses into
// controller intents.
package terminal

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const clearScreen = "\033[H\033[2J"

// Theme defines the drill colors.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default green-on-dark theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Error:   lipgloss.Color("#ff5f5f"),
}

// Styles are derived from a Theme.
type Styles struct {
	Title    lipgloss.Style
	Word     lipgloss.Style
	IPA      lipgloss.Style
	Button   lipgloss.Style
	Disabled lipgloss.Style
	Score    lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style
	Card     lipgloss.Style
}

// NewStyles builds styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Word:     lipgloss.NewStyle().Bold(true).Padding(0, 1),
		IPA:      lipgloss.NewStyle().Foreground(t.Primary),
		Button:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 2),
		Disabled: lipgloss.NewStyle().Foreground(t.Dim).Border(lipgloss.RoundedBorder()).BorderForeground(t.Dim).Padding(0, 2),
		Score:    lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Help:     lipgloss.NewStyle().Foreground(t.Dim),
		Error:    lipgloss.NewStyle().Foreground(t.Error),
		Card:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(1, 3),
	}
}

// View holds the drill surfaces and redraws the card on every change.
type View struct {
	out    io.Writer
	styles Styles
	clear  bool

	mu      sync.Mutex
	enabled bool
	label   string
	word    string
	ipa     string
	score   string
	message string
	hint    string
	errText string
}

// NewView draws to out. When clear is set each frame replaces the previous.
func NewView(out io.Writer, styles Styles, clear bool) *View {
	return &View{out: out, styles: styles, clear: clear}
}

func (v *View) SetRecordEnabled(enabled bool) { v.update(func() { v.enabled = enabled }) }
func (v *View) SetRecordLabel(label string)   { v.update(func() { v.label = label }) }
func (v *View) SetWord(word string)           { v.update(func() { v.word = word }) }
func (v *View) SetIPA(ipa string)             { v.update(func() { v.ipa = ipa }) }
func (v *View) SetScore(score string)         { v.update(func() { v.score = score }) }
func (v *View) SetMessage(message string)     { v.update(func() { v.message = message }) }
func (v *View) SetHint(hint string)           { v.update(func() { v.hint = hint }) }
func (v *View) SetError(text string)          { v.update(func() { v.errText = text }) }

func (v *View) update(apply func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	apply()
	if v.out == nil {
		return
	}
	frame := v.renderLocked()
	if v.clear {
		frame = clearScreen + frame
	}
	_, _ = fmt.Fprintln(v.out, frame)
}

// Render returns the current frame.
func (v *View) Render() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderLocked()
}

func (v *View) renderLocked() string {
	s := v.styles
	lines := []string{s.Title.Render("vowelpro"), ""}

	prompt := s.Word.Render(v.word)
	if v.ipa != "" {
		prompt = lipgloss.JoinHorizontal(lipgloss.Center, prompt, s.IPA.Render("/"+v.ipa+"/"))
	}
	lines = append(lines, prompt, "")

	label := v.label
	if label == "" {
		label = " "
	}
	button := s.Disabled.Render(label)
	if v.enabled {
		button = s.Button.Render(label)
	}
	lines = append(lines, button)

	if v.score != "" {
		result := s.Score.Render(v.score)
		if v.message != "" {
			result += "  " + v.message
		}
		lines = append(lines, "", result)
	} else if v.message != "" {
		lines = append(lines, "", v.message)
	}
	if v.hint != "" {
		lines = append(lines, s.Help.Render(v.hint))
	}
	if v.errText != "" {
		lines = append(lines, "", s.Error.Render(v.errText))
	}

	card := s.Card.Render(strings.Join(lines, "\n"))
	help := s.Help.Render("enter record/stop · n new word · q quit")
	return card + "\n" + help
}
