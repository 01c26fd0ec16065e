package tui

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// ErrCancelled is returned when the user quits a prompt without answering.
var ErrCancelled = errors.New("cancelled")

// Choice is the answer to the record-or-reuse question.
type Choice int

const (
	NoChoice Choice = iota
	ChoiceRecord
	ChoiceReuse
)

func (c Choice) String() string {
	switch c {
	case ChoiceRecord:
		return "record"
	case ChoiceReuse:
		return "reuse"
	default:
		return "none"
	}
}

const (
	promptQuestion = "Record new audio or use the old one? [r/o]"
	promptRetry    = `You didn't type "r" for record or "o" for old. Please try again.`
)

var (
	recordKey = key.NewBinding(key.WithKeys("r", "R"))
	reuseKey  = key.NewBinding(key.WithKeys("o", "O"))
	cancelKey = key.NewBinding(key.WithKeys("ctrl+c", "esc"))
)

// PromptModel asks whether to record a new sample or reuse the previous
// statistics, re-asking until it gets r or o.
type PromptModel struct {
	choice    Choice
	invalid   bool
	cancelled bool
}

// NewPromptModel creates a prompt with no answer yet.
func NewPromptModel() PromptModel {
	return PromptModel{}
}

// Choice returns the answer, NoChoice while unanswered.
func (m PromptModel) Choice() Choice { return m.choice }

// Cancelled reports whether the user quit the prompt.
func (m PromptModel) Cancelled() bool { return m.cancelled }

func (m PromptModel) Init() tea.Cmd { return nil }

func (m PromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, cancelKey):
		m.cancelled = true
		return m, tea.Quit
	case key.Matches(keyMsg, recordKey):
		m.choice = ChoiceRecord
		m.invalid = false
		return m, tea.Quit
	case key.Matches(keyMsg, reuseKey):
		m.choice = ChoiceReuse
		m.invalid = false
		return m, tea.Quit
	default:
		m.invalid = true
		return m, nil
	}
}

func (m PromptModel) View() string {
	if m.choice != NoChoice {
		return fmt.Sprintf("%s %s\n", promptQuestion, highlightStyle.Render(m.choice.String()))
	}
	if m.cancelled {
		return ""
	}
	view := promptQuestion + "\n"
	if m.invalid {
		view = errorStyle.Render(promptRetry) + "\n" + view
	}
	return view
}

// AskRecordOrReuse runs the prompt on in and out and returns the answer.
func AskRecordOrReuse(in io.Reader, out io.Writer) (Choice, error) {
	p := tea.NewProgram(NewPromptModel(), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return NoChoice, fmt.Errorf("failed to run prompt: %w", err)
	}

	m := final.(PromptModel)
	if m.Cancelled() || m.Choice() == NoChoice {
		return NoChoice, ErrCancelled
	}
	return m.Choice(), nil
}
