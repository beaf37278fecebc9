// Package tui is the interactive chat screen: a scrolling message log,
// a sidebar of uploaded documents and a multi-line input box.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/iksnae/rag-chat/internal"
)

const (
	sidebarWidth = 30
	headerHeight = 2
	inputHeight  = 5
	footerHeight = 2
)

type viewMode int

const (
	chatView viewMode = iota
	pickerView
)

// chatDoneMsg reports a finished /chat round trip
type chatDoneMsg struct {
	res internal.ChatResult
}

// uploadDoneMsg reports a finished upload. err is set when the local
// files could not be opened and nothing was sent.
type uploadDoneMsg struct {
	res   internal.UploadResult
	sent  bool
	count int
	size  int64
	err   error
}

// Options configures the chat screen
type Options struct {
	// Context bounds every request started from the screen
	Context context.Context
	// Theme is a glamour style name, or "auto"
	Theme string
	// Extensions limits what the file picker offers; empty allows all
	Extensions []string
	// OnChange runs after each completed chat or upload
	OnChange func()
}

// Model is the bubbletea model for the chat screen
type Model struct {
	ctrl *internal.Controller
	opts Options
	keys keyMap

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	picker   filepicker.Model
	renderer *glamour.TermRenderer

	mode   viewMode
	status string
	isErr  bool

	width  int
	height int
	ready  bool
}

// New creates the chat screen for ctrl
func New(ctrl *internal.Controller, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Theme == "" {
		opts.Theme = "auto"
	}

	keys := defaultKeyMap()

	ta := textarea.New()
	ta.Placeholder = "Ask a question about your documents..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.SetWidth(80)
	ta.KeyMap.InsertNewline = keys.Newline
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		ctrl:     ctrl,
		opts:     opts,
		keys:     keys,
		textarea: ta,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles a message and returns the next model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case chatDoneMsg:
		if !msg.res.OK() {
			m.setStatus("The assistant could not answer. See the log for details.", true)
		} else {
			m.setStatus("", false)
		}
		m.refresh()
		m.changed()
		return m, nil

	case uploadDoneMsg:
		switch {
		case msg.err != nil:
			m.setStatus(fmt.Sprintf("Could not read files: %v", msg.err), true)
		case !msg.sent:
		case msg.res.OK():
			m.setStatus(fmt.Sprintf("Uploaded %d file(s), %s", msg.count, humanize.Bytes(uint64(msg.size))), false)
		default:
			m.setStatus("Upload failed. See the log for details.", true)
		}
		m.refresh()
		if msg.sent {
			m.changed()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.ctrl.Session().Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.mode == pickerView {
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.mode == pickerView {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Upload):
		return m.openPicker()

	case key.Matches(msg, m.keys.Scroll):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case msg.Type == tea.KeyEnter && !msg.Alt:
		if m.ctrl.Session().Loading() {
			return m, nil
		}
		return m.submit()
	}

	if m.ctrl.Session().Loading() {
		return m, nil
	}
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.mode = chatView
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = chatView
		m.setStatus("Uploading "+filepath.Base(path)+"...", false)
		return m, tea.Batch(cmd, m.uploadCmd([]string{path}))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.setStatus(fmt.Sprintf("%s is not a supported document type", filepath.Base(path)), true)
	}
	return m, cmd
}

func (m Model) openPicker() (tea.Model, tea.Cmd) {
	fp := filepicker.New()
	fp.AllowedTypes = m.opts.Extensions
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}
	fp.AutoHeight = false
	fp.Height = m.pickerHeight()
	m.picker = fp
	m.mode = pickerView
	return m, m.picker.Init()
}

// submit sends the draft or runs a slash command
func (m Model) submit() (tea.Model, tea.Cmd) {
	draft := m.textarea.Value()

	if fields := strings.Fields(draft); len(fields) > 0 && fields[0] == "/upload" {
		if len(fields) == 1 {
			m.setStatus("Usage: /upload <file> [file...]", true)
			return m, nil
		}
		m.textarea.Reset()
		paths := expandPaths(fields[1:])
		m.setStatus(fmt.Sprintf("Uploading %d file(s)...", len(paths)), false)
		return m, m.uploadCmd(paths)
	}

	task, ok := m.ctrl.BeginSend(draft)
	if !ok {
		return m, nil
	}
	m.textarea.Reset()
	m.setStatus("", false)
	m.refresh()

	ctx := m.opts.Context
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		return chatDoneMsg{res: task.Run(ctx)}
	})
}

func (m Model) uploadCmd(paths []string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.opts.Context
	return func() tea.Msg {
		opened, err := internal.OpenUploadFiles(paths)
		if err != nil {
			return uploadDoneMsg{err: err}
		}
		defer func() { _ = opened.Close() }()

		res, sent := ctrl.UploadFiles(ctx, opened.Files)
		return uploadDoneMsg{res: res, sent: sent, count: len(opened.Files), size: opened.TotalSize}
	}
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	chatWidth := m.chatWidth()
	vpHeight := height - headerHeight - inputHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(chatWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = chatWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(width - 4)
	m.picker.Height = m.pickerHeight()

	renderer, err := newRenderer(m.opts.Theme, chatWidth-4)
	if err != nil {
		internal.LogWarn("Markdown rendering disabled: %v", err)
	}
	m.renderer = renderer
	m.refresh()
}

func (m Model) chatWidth() int {
	w := m.width - sidebarWidth - 2
	if w < 20 {
		w = m.width
	}
	if w < 1 {
		w = 1
	}
	return w
}

func (m Model) pickerHeight() int {
	h := m.height - headerHeight - footerHeight - 4
	if h < 3 {
		h = 3
	}
	return h
}

// refresh re-renders the log and scrolls to the newest message
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.isErr = isErr
}

func (m Model) changed() {
	if m.opts.OnChange != nil {
		m.opts.OnChange()
	}
}

// newRenderer builds the markdown renderer for assistant answers
func newRenderer(theme string, wrap int) (*glamour.TermRenderer, error) {
	if wrap < 10 {
		wrap = 10
	}
	style := glamour.WithStandardStyle(theme)
	if theme == "" || theme == "auto" {
		style = glamour.WithAutoStyle()
	}
	return glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
}

// expandPaths resolves ~ and glob patterns. A pattern with no match is
// kept as typed so the open error names it.
func expandPaths(args []string) []string {
	var paths []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "~/") {
			if home, err := os.UserHomeDir(); err == nil {
				arg = filepath.Join(home, arg[2:])
			}
		}
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			add(arg)
			continue
		}
		for _, match := range matches {
			add(match)
		}
	}
	return paths
}
