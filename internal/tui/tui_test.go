package tui

import (
	"errors"
	"testing"

	"noisemask/internal/audio"
	"noisemask/internal/stats"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestPromptChoices(t *testing.T) {
	tests := []struct {
		name string
		key  tea.KeyMsg
		want Choice
	}{
		{"record", runeKey('r'), ChoiceRecord},
		{"record upper", runeKey('R'), ChoiceRecord},
		{"old", runeKey('o'), ChoiceReuse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := NewPromptModel().Update(tt.key)
			assert.Equal(t, tt.want, m.(PromptModel).Choice())
			assert.True(t, isQuit(cmd))
			assert.Contains(t, m.View(), tt.want.String())
		})
	}
}

func TestPromptRetriesOnOtherKeys(t *testing.T) {
	m := tea.Model(NewPromptModel())
	assert.Contains(t, m.View(), promptQuestion)
	assert.NotContains(t, m.View(), "Please try again")

	m, cmd := m.Update(runeKey('x'))
	assert.False(t, isQuit(cmd))
	assert.Equal(t, NoChoice, m.(PromptModel).Choice())
	assert.Contains(t, m.View(), "Please try again")
	assert.Contains(t, m.View(), promptQuestion)

	m, cmd = m.Update(runeKey('o'))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, ChoiceReuse, m.(PromptModel).Choice())
}

func TestPromptCancel(t *testing.T) {
	m, cmd := NewPromptModel().Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, isQuit(cmd))
	assert.True(t, m.(PromptModel).Cancelled())
	assert.Equal(t, NoChoice, m.(PromptModel).Choice())
}

func TestPromptIgnoresNonKeys(t *testing.T) {
	m, cmd := NewPromptModel().Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	assert.Equal(t, NoChoice, m.(PromptModel).Choice())
}

var testDevices = []audio.Device{
	{ID: 0, Name: "Built-in Microphone", MaxInputChannels: 2, DefaultSampleRate: 48000},
	{ID: 1, Name: "HDMI", MaxOutputChannels: 8, DefaultSampleRate: 48000},
	{ID: 2, Name: "USB Mic", MaxInputChannels: 1, DefaultSampleRate: 44100},
}

func loadedPicker(t *testing.T) tea.Model {
	t.Helper()
	m := NewDeviceListModel(func() ([]audio.Device, error) { return testDevices, nil })
	msg := m.Init()()
	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	model, _ = model.Update(msg)
	return model
}

func TestDevicePickerListsInputsOnly(t *testing.T) {
	m := loadedPicker(t)
	view := m.View()
	assert.Contains(t, view, "Built-in Microphone")
	assert.Contains(t, view, "USB Mic")
	assert.NotContains(t, view, "HDMI")
}

func TestDevicePickerSelect(t *testing.T) {
	m := loadedPicker(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "Configure Device: USB Mic")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	sel, ok := m.(DeviceListModel).Selection()
	require.True(t, ok)
	assert.Equal(t, Selection{DeviceID: 2, Name: "USB Mic", SampleRate: 48000}, sel)
}

func TestDevicePickerBackAndQuit(t *testing.T) {
	m := loadedPicker(t)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Contains(t, m.View(), "Capture Devices")

	m, cmd := m.Update(runeKey('q'))
	require.NotNil(t, cmd)
	_, ok := m.(DeviceListModel).Selection()
	assert.False(t, ok)
}

func TestDevicePickerLoadError(t *testing.T) {
	m := NewDeviceListModel(func() ([]audio.Device, error) { return nil, errors.New("no PortAudio") })
	var model tea.Model = m
	model, _ = model.Update(m.Init()())
	assert.Contains(t, model.View(), "no PortAudio")
}

func TestRenderSummary(t *testing.T) {
	out := RenderSummary("Ambient noise", stats.Params{MeanHz: 225, StdDevHz: 82.92, VolumeDB: 3.01},
		Row{"Samples", "44100 Hz"})
	for _, want := range []string{"Ambient noise", "225.00 Hz", "82.92 Hz", "3.01 dB", "44100 Hz"} {
		assert.Contains(t, out, want)
	}
}
