// Package chat provides the interactive TUI for conversing with an indexed
// document collection. The model follows the Elm loop: every mutation
// happens in Update, every side effect is a tea.Cmd, and the view is a pure
// function of state.
package chat

import (
	"context"
	"os"
	"sync"
	"time"

	"paperchat/cmd/paperchat/ui"
	"paperchat/internal/api"
	"paperchat/internal/config"
	"paperchat/internal/logging"
	"paperchat/internal/modes"
	"paperchat/internal/upload"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	headerHeight      = 3
	inputHeight       = 3
	footerHeight      = 2
	errorBannerHeight = 3

	pickerWidth  = 46
	pickerHeight = 12

	roleUser      = "user"
	roleAssistant = "assistant"
)

// ViewMode determines which component is focused/active.
type ViewMode int

const (
	ChatView ViewMode = iota
	DocumentsView
	FilePickerView
)

// Message is a single transcript entry.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
	Time    time.Time
	Meta    *ResponseMeta // assistant messages only

	// Doc marks authored documentation (the help screen). Answers go
	// through the answer renderer; docs render as plain markdown.
	Doc bool
}

// ResponseMeta carries answer provenance shown under assistant messages.
type ResponseMeta struct {
	KnowledgeMode      string
	SourcesUsed        int
	SearchResultsCount int
	TotalTokens        int
}

// modeItem adapts a knowledge mode to the list component.
type modeItem struct {
	mode modes.KnowledgeMode
}

func (i modeItem) Title() string       { return i.mode.Icon() + " " + i.mode.DisplayName() }
func (i modeItem) Description() string { return i.mode.Description() }
func (i modeItem) FilterValue() string { return i.mode.Key() }

// rect is a hit-test region in terminal cells.
type rect struct {
	x, y, w, h int
}

func (r rect) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// Model is the main model for the interactive chat interface.
type Model struct {
	// UI components
	textarea   textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	filepicker filepicker.Model
	modeList   list.Model
	progress   progress.Model
	styles     ui.Styles
	renderer   *ui.Renderer

	// Banner typewriters. The tagline stays suspended until the title
	// finishes, then chains onto the same retrigger token.
	title   ui.Typewriter
	tagline ui.Typewriter

	viewMode ViewMode

	// Conversation state
	history      []Message
	isLoading    bool
	err          error
	showError    bool
	inputHistory []string
	historyIndex int

	// Document state
	docs          []api.Document
	docsLoaded    bool
	selectedDoc   int
	pendingDelete string // pdf_id awaiting y/n confirmation, "" when none

	// Upload state. A non-nil batch means an upload run owns the
	// pipeline; new triggers are ignored until it clears.
	batch         *upload.Batch
	watcher       *upload.InboxWatcher
	pendingInbox  []string
	statusMessage string

	// Knowledge mode
	mode       modes.KnowledgeMode
	modeEpoch  int // retrigger token for the banner typewriters
	pickerOpen bool

	// Drag state
	dropzone  ui.DropZone
	overApp   bool
	overInput bool

	// Layout
	width        int
	height       int
	ready        bool
	mouseEnabled bool

	// Backend
	client api.Backend
	cfg    *config.Config

	// configPath is where mode changes are persisted; empty disables
	// persistence.
	configPath string

	// Shutdown coordination
	shutdownOnce   *sync.Once
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// New builds the chat model around a backend client and loaded config.
func New(client api.Backend, cfg *config.Config) Model {
	styles := ui.NewStyles(ui.ThemeFromName(cfg.UI.Theme))

	ta := textarea.New()
	ta.Placeholder = "Ask about your documents, or /help for commands"
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(1)
	ta.ShowLineNumbers = false
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	fp := filepicker.New()
	fp.AllowedTypes = []string{".pdf"}
	if cfg.Upload.InboxDir != "" {
		fp.CurrentDirectory = cfg.Upload.InboxDir
	} else if home, err := os.UserHomeDir(); err == nil {
		fp.CurrentDirectory = home
	}

	items := make([]list.Item, 0, len(modes.All()))
	for _, mode := range modes.All() {
		items = append(items, modeItem{mode: mode})
	}
	delegate := list.NewDefaultDelegate()
	modeList := list.New(items, delegate, pickerWidth-4, pickerHeight-4)
	modeList.Title = "Knowledge mode"
	modeList.SetShowStatusBar(false)
	modeList.SetFilteringEnabled(false)
	modeList.SetShowHelp(false)
	modeList.DisableQuitKeybindings()

	prog := progress.New(progress.WithDefaultGradient(), progress.WithWidth(24), progress.WithoutPercentage())

	interval := cfg.GetTypewriterInterval()

	ctx, cancel := context.WithCancel(context.Background())

	m := Model{
		textarea:       ta,
		spinner:        sp,
		filepicker:     fp,
		modeList:       modeList,
		progress:       prog,
		styles:         styles,
		renderer:       ui.NewRenderer(styles, 80),
		title:          ui.NewTypewriter(ui.WithInterval(interval), ui.WithTypewriterStyle(styles.Bold)),
		tagline:        ui.NewTypewriter(ui.WithInterval(interval), ui.WithTypewriterStyle(styles.Muted)),
		viewMode:       ChatView,
		history:        []Message{},
		historyIndex:   0,
		mode:           cfg.DefaultKnowledgeMode(),
		mouseEnabled:   cfg.UI.MouseEnabled,
		client:         client,
		cfg:            cfg,
		configPath:     config.DefaultPath(),
		shutdownOnce:   &sync.Once{},
		shutdownCtx:    ctx,
		shutdownCancel: cancel,
	}

	if cfg.Upload.InboxDir != "" {
		watcher, err := upload.NewInboxWatcher(cfg.Upload.InboxDir, upload.DefaultSettle)
		if err != nil {
			logging.Watch("inbox watcher disabled: %v", err)
		} else if err := watcher.Start(); err != nil {
			logging.Watch("inbox watcher failed to start: %v", err)
		} else {
			m.watcher = watcher
		}
	}

	return m
}

// Init starts the boot fetch, the cursor blink, and the banner reveal.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textarea.Blink,
		m.refreshDocsCmd(),
		func() tea.Msg { return bannerRetriggerMsg{} },
	}
	if m.watcher != nil {
		cmds = append(cmds, m.awaitInboxCmd())
	}
	return tea.Batch(cmds...)
}

// startModeBanner restarts both banner lines under a fresh retrigger token.
// The tagline parks on Suspended and is promoted by the tick handler once
// the title completes.
func (m *Model) startModeBanner() tea.Cmd {
	m.modeEpoch++
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.title, cmd = m.title.Reveal(m.mode.Icon()+" "+m.mode.DisplayName(), m.modeEpoch)
	cmds = append(cmds, cmd)
	m.tagline, cmd = m.tagline.Reveal(m.mode.Description(), ui.Suspended)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

// performShutdown stops background work exactly once. Safe to call from
// any quit path.
func (m *Model) performShutdown() {
	m.shutdownOnce.Do(func() {
		if m.watcher != nil {
			m.watcher.Stop()
		}
		if m.shutdownCancel != nil {
			m.shutdownCancel()
		}
		logging.Session("session closed, %d questions asked", len(m.inputHistory))
		logging.Sync()
	})
}

// Mode returns the active knowledge mode.
func (m Model) Mode() modes.KnowledgeMode { return m.mode }

// History returns the transcript.
func (m Model) History() []Message { return m.history }

// Err returns the current surfaced error, if any.
func (m Model) Err() error { return m.err }

// chatWidth is the usable content column width.
func (m Model) chatWidth() int {
	w := m.width - 2
	if w < 20 {
		w = 20
	}
	return w
}

// pickerRect is the screen region occupied by the mode picker overlay,
// used both to place it and to hit-test outside clicks.
func (m Model) pickerRect() rect {
	w := pickerWidth
	if w > m.width {
		w = m.width
	}
	h := pickerHeight
	contentH := m.height - headerHeight - inputHeight - footerHeight
	if h > contentH && contentH > 0 {
		h = contentH
	}
	x := (m.width - w) / 2
	y := headerHeight + (contentH-h)/2
	if y < headerHeight {
		y = headerHeight
	}
	return rect{x: x, y: y, w: w, h: h}
}

// appRect is the drop target: the content column plus the input box.
func (m Model) appRect() rect {
	return rect{x: 0, y: headerHeight, w: m.width, h: m.viewport.Height + m.errorBannerSpace() + inputHeight}
}

// inputRect is the nested region inside the drop target.
func (m Model) inputRect() rect {
	return rect{x: 0, y: headerHeight + m.viewport.Height + m.errorBannerSpace(), w: m.width, h: inputHeight}
}

func (m Model) errorBannerSpace() int {
	if m.err != nil && m.showError {
		return errorBannerHeight
	}
	return 0
}
