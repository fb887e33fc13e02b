// cmd/phone/main.go
//
// Minimal terminal chat client. Talks to the agent over the same two
// files the agent watches: lines appended to the input file, latest
// utterance read back from the output file.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"psyche/internal/config"
	"psyche/internal/scheduler"
)

var (
	meStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	herStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)
)

type pollMsg struct {
	out scheduler.OutMessage
	ok  bool
}

type model struct {
	cfg     *config.Config
	input   textinput.Model
	history []string
	lastAt  time.Time
	err     error
}

func initialModel(cfg *config.Config) model {
	ti := textinput.New()
	ti.Placeholder = "say something (or /quit)"
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	return model{cfg: cfg, input: ti}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, poll(m.cfg.OutputFile))
}

func poll(path string) tea.Cmd {
	return tea.Tick(300*time.Millisecond, func(time.Time) tea.Msg {
		b, err := os.ReadFile(path)
		if err != nil || len(b) == 0 {
			return pollMsg{}
		}
		var out scheduler.OutMessage
		if json.Unmarshal([]byte(strings.TrimSpace(string(b))), &out) != nil {
			return pollMsg{}
		}
		return pollMsg{out: out, ok: true}
	})
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			if line == "/quit" {
				return m, tea.Quit
			}
			if err := appendLine(m.cfg.InputFile, line); err != nil {
				m.err = err
				return m, nil
			}
			m.history = append(m.history, meStyle.Render("you: ")+line)
			return m, nil
		}
	case pollMsg:
		if msg.ok && msg.out.At.After(m.lastAt) {
			m.lastAt = msg.out.At
			m.history = append(m.history, herStyle.Render("psyche: ")+msg.out.Text)
		}
		return m, poll(m.cfg.OutputFile)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(faintStyle.Render("-- psyche phone --") + "\n\n")
	start := 0
	if len(m.history) > 20 {
		start = len(m.history) - 20
	}
	for _, line := range m.history[start:] {
		b.WriteString(line + "\n")
	}
	if m.err != nil {
		b.WriteString(faintStyle.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString("\n" + m.input.View() + "\n")
	return b.String()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(line + "\n")
	return err
}

func main() {
	cfg := config.New()
	if _, err := tea.NewProgram(initialModel(cfg)).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
