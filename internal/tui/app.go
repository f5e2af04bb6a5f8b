// Package tui is the interactive terminal chat client.
package tui

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nadzzz/polyglot/internal/apperr"
	"github.com/nadzzz/polyglot/internal/chat"
	"github.com/nadzzz/polyglot/internal/languages"
	"github.com/nadzzz/polyglot/internal/markdown"
	"github.com/nadzzz/polyglot/internal/message"
)

// Chat is the part of the chat controller the TUI drives.
type Chat interface {
	Submit(ctx context.Context, text string) (message.Message, error)
	Clear(ctx context.Context) error
	Messages(ctx context.Context) ([]message.View, error)
	ActiveError() string
	Summarize(ctx context.Context, id int64) (message.Enrichment, error)
	Translate(ctx context.Context, id int64, target string) (message.Enrichment, error)
	Languages() []languages.Language
}

type focus int

const (
	focusInput focus = iota
	focusList
)

type action int

const (
	actionSubmit action = iota
	actionSummarize
	actionTranslate
	actionClear
	actionRefresh
)

// resultMsg carries the outcome of an action plus a fresh snapshot of the chat.
type resultMsg struct {
	action    action
	id        int64
	views     []message.View
	activeErr string
	err       error
}

// Model is the chat screen: the message list, the input box and the
// per-message summarize and translate actions.
type Model struct {
	ctx  context.Context
	chat Chat

	input   textarea.Model
	spinner spinner.Model

	views     []message.View
	activeErr string
	notice    string // failures not shown on a message or as the active error

	langs  []languages.Language
	target int

	cursor     int
	focus      focus
	submitting bool
	pending    map[int64]int

	width    int
	height   int
	rendered map[string]string
	quitting bool
}

// NewModel builds the chat screen over c. Calls into c use ctx.
func NewModel(ctx context.Context, c Chat) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter")
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	langs := c.Languages()
	target := 0
	for i, l := range langs {
		if l.Code == languages.English {
			target = i
			break
		}
	}

	return Model{
		ctx:      ctx,
		chat:     c,
		input:    ta,
		spinner:  sp,
		langs:    langs,
		target:   target,
		pending:  make(map[int64]int),
		width:    80,
		height:   24,
		rendered: make(map[string]string),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.run(actionRefresh, 0, func(context.Context) error { return nil }))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.SetWidth(max(20, msg.Width-4))
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		return m.applyResult(msg), nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "ctrl+l":
			m.notice = ""
			return m, m.run(actionClear, 0, m.chat.Clear)
		case "tab":
			m.toggleFocus()
			return m, nil
		}
		if m.focus == focusList {
			return m.updateList(msg)
		}
		return m.updateInput(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.quitting = true
		return m, tea.Quit
	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" || m.submitting {
			return m, nil
		}
		m.submitting = true
		m.notice = ""
		m.input.Reset()
		submit := m.run(actionSubmit, 0, func(ctx context.Context) error {
			_, err := m.chat.Submit(ctx, text)
			return err
		})
		return m, tea.Batch(submit, m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.views)-1 {
			m.cursor++
		}

	case "left", "h":
		if len(m.langs) > 0 {
			m.target = (m.target - 1 + len(m.langs)) % len(m.langs)
		}

	case "right", "l":
		if len(m.langs) > 0 {
			m.target = (m.target + 1) % len(m.langs)
		}

	case "s":
		v, ok := m.selected()
		if !ok || !v.CanSummarize || m.pending[v.ID] > 0 {
			return m, nil
		}
		m.pending[v.ID]++
		id := v.ID
		cmd := m.run(actionSummarize, id, func(ctx context.Context) error {
			_, err := m.chat.Summarize(ctx, id)
			return err
		})
		return m, tea.Batch(cmd, m.spinner.Tick)

	case "t":
		v, ok := m.selected()
		if !ok || len(m.langs) == 0 || m.pending[v.ID] > 0 {
			return m, nil
		}
		m.pending[v.ID]++
		id, target := v.ID, m.langs[m.target].Code
		cmd := m.run(actionTranslate, id, func(ctx context.Context) error {
			_, err := m.chat.Translate(ctx, id, target)
			return err
		})
		return m, tea.Batch(cmd, m.spinner.Tick)
	}
	return m, nil
}

// run performs fn off the UI goroutine, then snapshots the chat.
func (m Model) run(a action, id int64, fn func(context.Context) error) tea.Cmd {
	ctx, c := m.ctx, m.chat
	return func() tea.Msg {
		res := resultMsg{action: a, id: id, err: fn(ctx)}
		views, err := c.Messages(ctx)
		if err != nil && res.err == nil {
			res.err = err
		}
		res.views = views
		res.activeErr = c.ActiveError()
		return res
	}
}

func (m Model) applyResult(r resultMsg) Model {
	switch r.action {
	case actionSubmit:
		m.submitting = false
	case actionSummarize, actionTranslate:
		if m.pending[r.id] > 0 {
			m.pending[r.id]--
		}
	case actionClear:
		m.pending = make(map[int64]int)
		m.cursor = 0
	}

	if r.views != nil || r.action == actionClear {
		grew := len(r.views) > len(m.views)
		m.views = r.views
		if grew && r.action == actionSubmit {
			m.cursor = len(m.views) - 1
		}
	}
	if m.cursor >= len(m.views) {
		m.cursor = max(0, len(m.views)-1)
	}
	m.activeErr = r.activeErr

	m.notice = ""
	if r.err != nil && !m.shown(r) {
		fallback := chat.SubmitFailed
		switch r.action {
		case actionSummarize:
			fallback = chat.SummarizeFailed
		case actionTranslate:
			fallback = chat.TranslateFailed
		}
		m.notice = apperr.Display(r.err, fallback)
	}
	return m
}

// shown reports whether r's error is already visible as the active error or
// on the message it concerns.
func (m Model) shown(r resultMsg) bool {
	if r.action == actionSubmit {
		return m.activeErr != ""
	}
	for _, v := range m.views {
		if v.ID == r.id {
			return v.Enrichment.Error != ""
		}
	}
	return false
}

func (m *Model) toggleFocus() {
	if m.focus == focusInput {
		m.focus = focusList
		m.input.Blur()
		return
	}
	m.focus = focusInput
	m.input.Focus()
}

func (m Model) selected() (message.View, bool) {
	if m.cursor < 0 || m.cursor >= len(m.views) {
		return message.View{}, false
	}
	return m.views[m.cursor], true
}

func (m Model) busy() bool {
	if m.submitting {
		return true
	}
	for _, n := range m.pending {
		if n > 0 {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("polyglot"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d messages", len(m.views))))
	b.WriteString("\n\n")

	if len(m.views) == 0 {
		b.WriteString(dimStyle.Render("  No messages yet.") + "\n")
	}
	for i, v := range m.views {
		b.WriteString(m.renderMessage(v, i == m.cursor && m.focus == focusList))
	}

	b.WriteString("\n")
	if m.activeErr != "" {
		for _, line := range strings.Split(m.activeErr, "\n") {
			b.WriteString(errorStyle.Render(line) + "\n")
		}
	}
	if m.notice != "" {
		b.WriteString(errorStyle.Render(m.notice) + "\n")
	}

	box := blurredBorder
	if m.focus == focusInput {
		box = focusedBorder
	}
	b.WriteString(box.Render(m.input.View()) + "\n")

	count := fmt.Sprintf("%d characters", utf8.RuneCountInString(m.input.Value()))
	if m.submitting {
		count = m.spinner.View() + " Processing...  " + count
	}
	b.WriteString(dimStyle.Render(count) + "\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderMessage(v message.View, selected bool) string {
	var b strings.Builder

	line := langTag.Render("["+v.Language+"]") + " " + v.Text
	if selected {
		line = selectedStyle.Render("> ["+v.Language+"] "+v.Text)
	}
	b.WriteString(line + "\n")

	var controls []string
	if m.pending[v.ID] > 0 || v.Enrichment.Loading {
		controls = append(controls, m.spinner.View()+" Processing...")
	} else if selected {
		if v.CanSummarize {
			controls = append(controls, "[s] summarize")
		}
		if len(m.langs) > 0 {
			controls = append(controls, "[t] translate to "+m.langs[m.target].Name)
		}
	}
	if len(controls) > 0 {
		b.WriteString(dimStyle.Render("  "+strings.Join(controls, "  ")) + "\n")
	}

	e := v.Enrichment
	if e.Summary != "" {
		b.WriteString(m.renderSummary(e.Summary))
	}
	if e.Translation != "" {
		b.WriteString(translationStyle.Render(languages.Name(e.TargetLanguage)+": "+e.Translation) + "\n")
	}
	if e.Error != "" {
		b.WriteString(errorStyle.Render("  "+e.Error) + "\n")
	}
	return b.String()
}

func (m Model) renderSummary(summary string) string {
	if out, ok := m.rendered[summary]; ok {
		return out
	}
	out, err := markdown.Terminal(summary, max(20, m.width-4))
	if err != nil {
		out = summary + "\n"
	}
	m.rendered[summary] = out
	return out
}

func (m Model) renderHelp() string {
	if m.focus == focusList {
		return helpStyle.Render("  ↑/↓: select  ←/→: language  s: summarize  t: translate  Tab: input  Ctrl+L: clear  q: quit")
	}
	return helpStyle.Render("  Enter: send  Alt+Enter: newline  Tab: messages  Ctrl+L: clear  Esc: quit")
}
