package ui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Suspended is the retrigger token of a reveal whose turn has not come yet.
// A suspended typewriter holds its text but shows nothing and owns no
// clock; chained banners park the dependent line on Suspended until the
// line before it reports Done.
const Suspended = -1

// DefaultTypewriterInterval is the reveal cadence when none is configured.
const DefaultTypewriterInterval = 35 * time.Millisecond

var lastTypewriterID int64

// TypewriterTickMsg advances a reveal by one rune. ID binds the message to
// a single typewriter instance and Gen to a single reveal cycle within it;
// anything else is a stale clock from a superseded cycle and is dropped.
type TypewriterTickMsg struct {
	Time time.Time
	ID   int
	Gen  int
}

// Typewriter reveals a string one rune per tick. It is a value model in the
// bubbles style: Update returns the advanced copy, and every restart bumps
// an internal generation so ticks scheduled by the previous cycle can never
// touch the new one, even when both cycles overlap in the runtime's
// message queue.
type Typewriter struct {
	Style lipgloss.Style

	id       int
	gen      int
	interval time.Duration
	token    int
	text     []rune
	shown    int
	done     bool
	active   bool
}

// TypewriterOption configures a Typewriter at construction.
type TypewriterOption func(*Typewriter)

// WithInterval sets the delay between reveal ticks.
func WithInterval(d time.Duration) TypewriterOption {
	return func(t *Typewriter) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithTypewriterStyle sets the style applied to the revealed prefix.
func WithTypewriterStyle(s lipgloss.Style) TypewriterOption {
	return func(t *Typewriter) { t.Style = s }
}

// NewTypewriter returns an idle typewriter. Nothing animates until Reveal
// is called with a token other than Suspended.
func NewTypewriter(opts ...TypewriterOption) Typewriter {
	t := Typewriter{
		id:       int(atomic.AddInt64(&lastTypewriterID, 1)),
		interval: DefaultTypewriterInterval,
		token:    Suspended,
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// Reveal arms the typewriter with text under the given retrigger token and
// returns the command that starts its clock. Rules:
//
//   - identical text and token: no-op, the current cycle keeps running
//   - any change to either: restart from an empty prefix; the generation
//     bump orphans every tick the old cycle still has in flight
//   - token == Suspended: hold the text, show nothing, start no clock
//
// Callers retrigger an unchanged banner by bumping the token.
func (t Typewriter) Reveal(text string, token int) (Typewriter, tea.Cmd) {
	if string(t.text) == text && t.token == token {
		return t, nil
	}
	t.text = []rune(text)
	t.token = token
	t.shown = 0
	t.done = false
	t.gen++
	if token == Suspended {
		t.active = false
		return t, nil
	}
	if len(t.text) == 0 {
		t.done = true
		t.active = false
		return t, nil
	}
	t.active = true
	return t, t.tick()
}

// SetInterval changes the reveal cadence. A live reveal restarts from an
// empty prefix under the new cadence.
func (t Typewriter) SetInterval(d time.Duration) (Typewriter, tea.Cmd) {
	if d <= 0 || d == t.interval {
		return t, nil
	}
	t.interval = d
	if !t.active {
		return t, nil
	}
	t.shown = 0
	t.done = false
	t.gen++
	return t, t.tick()
}

// Update consumes TypewriterTickMsg values and ignores everything else.
func (t Typewriter) Update(msg tea.Msg) (Typewriter, tea.Cmd) {
	tick, ok := msg.(TypewriterTickMsg)
	if !ok {
		return t, nil
	}
	if tick.ID != t.id || tick.Gen != t.gen {
		return t, nil
	}
	if !t.active || t.done {
		return t, nil
	}
	if t.shown < len(t.text) {
		t.shown++
	}
	if t.shown >= len(t.text) {
		t.done = true
		t.active = false
		return t, nil
	}
	return t, t.tick()
}

func (t Typewriter) tick() tea.Cmd {
	id, gen := t.id, t.gen
	return tea.Tick(t.interval, func(now time.Time) tea.Msg {
		return TypewriterTickMsg{Time: now, ID: id, Gen: gen}
	})
}

// View renders the revealed prefix.
func (t Typewriter) View() string {
	if t.shown == 0 {
		return ""
	}
	return t.Style.Render(string(t.text[:t.shown]))
}

// Done reports whether the full text has been revealed.
func (t Typewriter) Done() bool { return t.done }

// Active reports whether a reveal cycle is currently running.
func (t Typewriter) Active() bool { return t.active }

// Suspended reports whether the typewriter is parked waiting for a real
// retrigger token.
func (t Typewriter) Suspended() bool { return t.token == Suspended }

// Text returns the full target text, revealed or not.
func (t Typewriter) Text() string { return string(t.text) }
