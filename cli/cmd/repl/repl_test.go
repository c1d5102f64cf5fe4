package repl

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/tpt/lang/symbols"
)

func testModel(t *testing.T) model {
	t.Helper()

	s := NewSession(Config{Symbols: symbols.New(symbols.WithBuiltins(nil))})

	return newModel(t.Context(), s, NewHistory(""))
}

func typeText(m model, text string) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})

	return m
}

func press(m model, k tea.KeyType) model {
	m, _ = m.handleKey(tea.KeyMsg{Type: k})

	return m
}

func TestModel_TabCompletes(t *testing.T) {
	m := typeText(testModel(t), "@unse")

	if len(m.matches) == 0 {
		t.Fatal("expected directive matches")
	}

	m = press(m, tea.KeyTab)

	if got := m.input.Value(); got != "@unset" {
		t.Errorf("after tab: %q", got)
	}

	if m.tabActive {
		m = press(m, tea.KeyEnter)
	}

	if m.tabActive || m.input.Value() != "@unset" {
		t.Errorf("completion not confirmed: %q", m.input.Value())
	}
}

func TestModel_EscRestoresBeforeTab(t *testing.T) {
	m := typeText(testModel(t), "@")
	m = press(m, tea.KeyTab)

	if !m.tabActive {
		t.Fatal("tab should start cycling")
	}

	m = press(m, tea.KeyEsc)

	if m.input.Value() != "@" || m.mode != modeEval {
		t.Errorf("esc while cycling: %q mode %d", m.input.Value(), m.mode)
	}
}

func TestModel_Execute(t *testing.T) {
	m := typeText(testModel(t), "@set(x, 2 + 3)")
	m = press(m, tea.KeyEnter)

	if v, _ := m.session.syms.Get("x", nil); v != "5" {
		t.Errorf("x = %q, want 5", v)
	}

	if m.input.Value() != "" {
		t.Errorf("input not cleared: %q", m.input.Value())
	}

	if e, err := m.history.Entry(0); err != nil || e.Line != "@set(x, 2 + 3)" {
		t.Errorf("history = %+v, %v", e, err)
	}
}

func TestModel_Continuation(t *testing.T) {
	m := typeText(testModel(t), `@set(y, 1)\`)
	m = press(m, tea.KeyEnter)

	if len(m.pending) != 1 || !strings.Contains(m.promptText(), contPrompt) {
		t.Fatalf("pending = %v, prompt %q", m.pending, m.promptText())
	}

	if _, ok := m.session.syms.Get("y", nil); ok {
		t.Error("continued line evaluated early")
	}

	m = typeText(m, "${y}")
	m = press(m, tea.KeyEnter)

	if len(m.pending) != 0 {
		t.Errorf("pending not cleared: %v", m.pending)
	}

	if v, _ := m.session.syms.Get("y", nil); v != "1" {
		t.Errorf("y = %q", v)
	}
}

func TestModel_ModesAndHistory(t *testing.T) {
	m := typeText(testModel(t), "text")
	m = press(m, tea.KeyEnter)

	m = press(m, tea.KeyEsc)
	if m.mode != modeCtrl {
		t.Fatal("esc should enter control mode")
	}

	m = typeText(m, "vars")
	m = press(m, tea.KeyEnter)

	if m.quitting || m.history.Len() != 2 {
		t.Fatalf("history len %d", m.history.Len())
	}

	m = press(m, tea.KeyUp)
	if m.input.Value() != "vars" || m.mode != modeCtrl {
		t.Errorf("up: %q mode %d", m.input.Value(), m.mode)
	}

	m = press(m, tea.KeyUp)
	if m.input.Value() != "text" || m.mode != modeEval {
		t.Errorf("up again: %q mode %d", m.input.Value(), m.mode)
	}

	m = press(m, tea.KeyDown)
	m = press(m, tea.KeyDown)

	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("down past newest: %q idx %d", m.input.Value(), m.historyIdx)
	}
}

func TestModel_Quit(t *testing.T) {
	m := press(testModel(t), tea.KeyEsc)
	m = typeText(m, "quit")
	m = press(m, tea.KeyEnter)

	if !m.quitting || m.View() != "" {
		t.Error("quit command should end the session")
	}

	m = press(testModel(t), tea.KeyCtrlD)
	if !m.quitting {
		t.Error("ctrl-d on empty input should quit")
	}
}

func TestModel_HintLine(t *testing.T) {
	m := typeText(testModel(t), "@substr(a, ")

	if got := plain(m.hintLine()); got != "@substr(s, start, [len])" {
		t.Errorf("hint = %q", got)
	}
}
