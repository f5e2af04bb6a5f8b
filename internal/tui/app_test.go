package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/polyglot/internal/chat"
	"github.com/nadzzz/polyglot/internal/engine"
	"github.com/nadzzz/polyglot/internal/engine/enginetest"
	"github.com/nadzzz/polyglot/internal/gateway"
	"github.com/nadzzz/polyglot/internal/store"
)

var englishParagraph = strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5)[:200]

func newTestModel(t *testing.T, host *enginetest.Host) Model {
	t.Helper()
	c := chat.NewController(gateway.New(host), store.NewMemory())
	return NewModel(context.Background(), c)
}

// drain runs cmd and feeds every resultMsg it produces back into m.
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drain(t, m, c)
		}
	case resultMsg:
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+l":
		msg = tea.KeyMsg{Type: tea.KeyCtrlL}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func submit(t *testing.T, m Model, text string) Model {
	t.Helper()
	m.input.SetValue(text)
	m, cmd := press(t, m, "enter")
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)
	assert.Contains(t, m.View(), "Processing...")
	return drain(t, m, cmd)
}

func TestSubmit(t *testing.T) {
	m := newTestModel(t, enginetest.New())

	m = submit(t, m, "Hello there")
	assert.False(t, m.submitting)
	assert.Empty(t, m.input.Value())
	require.Len(t, m.views, 1)
	assert.Equal(t, "en", m.views[0].Language)
	assert.Contains(t, m.View(), "[en]")
}

func TestSubmit_BlankIgnored(t *testing.T) {
	m := newTestModel(t, enginetest.New())
	m.input.SetValue("   ")
	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.False(t, m.submitting)
}

func TestSubmit_ActiveErrorShown(t *testing.T) {
	host := enginetest.New()
	host.Detections = []engine.LanguageGuess{{Language: "en", Confidence: 0.2}}
	m := newTestModel(t, host)

	m = submit(t, m, "hmm")
	assert.Empty(t, m.views)
	assert.Equal(t, "Language detection confidence too low", m.activeErr)
	assert.Empty(t, m.notice)
	assert.Contains(t, m.View(), "Language detection confidence too low")
}

func TestCharacterCount(t *testing.T) {
	m := newTestModel(t, enginetest.New())
	m.input.SetValue("héllo")
	assert.Contains(t, m.View(), "5 characters")
}

func TestSummarize(t *testing.T) {
	m := newTestModel(t, enginetest.New())
	m = submit(t, m, englishParagraph)
	m = submit(t, m, "short")

	m, _ = press(t, m, "tab")
	require.Equal(t, focusList, m.focus)
	assert.Equal(t, 1, m.cursor)

	// Not offered for the short message.
	m, cmd := press(t, m, "s")
	assert.Nil(t, cmd)

	m, _ = press(t, m, "k")
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "[s] summarize")

	m, cmd = press(t, m, "s")
	require.NotNil(t, cmd)
	assert.Equal(t, 1, m.pending[m.views[0].ID])
	assert.Contains(t, m.View(), "Processing...")

	m = drain(t, m, cmd)
	assert.Zero(t, m.pending[m.views[0].ID])
	assert.Equal(t, "- "+englishParagraph, m.views[0].Enrichment.Summary)
}

func TestTranslate(t *testing.T) {
	m := newTestModel(t, enginetest.New())
	m = submit(t, m, "Hello there")
	m, _ = press(t, m, "tab")

	// The default target is English, the message's own language.
	assert.Equal(t, "en", m.langs[m.target].Code)
	m, cmd := press(t, m, "t")
	m = drain(t, m, cmd)
	assert.Equal(t, "Text is already in the selected language", m.views[0].Enrichment.Error)
	assert.Empty(t, m.notice)

	m, _ = press(t, m, "l")
	assert.Equal(t, "pt", m.langs[m.target].Code)
	assert.Contains(t, m.View(), "[t] translate to Portuguese")

	m, cmd = press(t, m, "t")
	m = drain(t, m, cmd)
	e := m.views[0].Enrichment
	assert.Equal(t, "[pt] Hello there", e.Translation)
	assert.Equal(t, "pt", e.TargetLanguage)
	assert.Empty(t, e.Error)

	m, _ = press(t, m, "h")
	m, _ = press(t, m, "h")
	assert.Equal(t, "fr", m.langs[m.target].Code)
}

func TestClear(t *testing.T) {
	m := newTestModel(t, enginetest.New())
	m = submit(t, m, "one")
	m = submit(t, m, "two")
	require.Len(t, m.views, 2)

	m, cmd := press(t, m, "ctrl+l")
	m = drain(t, m, cmd)
	assert.Empty(t, m.views)
	assert.Zero(t, m.cursor)
	assert.Contains(t, m.View(), "No messages yet.")

	// Clearing an empty chat is harmless.
	m, cmd = press(t, m, "ctrl+l")
	m = drain(t, m, cmd)
	assert.Empty(t, m.views)
	assert.Empty(t, m.notice)
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, enginetest.New())
	m, _ = press(t, m, "tab")
	m, cmd := press(t, m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}
