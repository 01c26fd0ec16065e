package sox

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"noisemask/internal/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCommand(t *testing.T) {
	tests := []struct {
		goos    string
		want    Command
		wantErr bool
	}{
		{"linux", Command{"arecord", []string{"-d", "10", "-f", "cd", "data/input.wav"}}, false},
		{"darwin", Command{"sox", []string{"-d", "data/input.wav", "trim", "0", "10"}}, false},
		{"windows", Command{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			got, err := RecordCommand(tt.goos, "data/input.wav", 10)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSynthCommand(t *testing.T) {
	t.Run("with lead-in", func(t *testing.T) {
		got := SynthCommand(SynthSpec{CenterHz: 294.5, WidthHz: 889.25, GainDB: -52.5, Lead: true})
		assert.Equal(t, "play", got.Name)
		assert.Equal(t, []string{
			"-n", "trim", "0.0", "2.0", ":",
			"synth", "noise", "band", "294.5", "889.25", "vol", "-52.5dB",
		}, got.Args)
	})

	t.Run("static", func(t *testing.T) {
		got := SynthCommand(SynthSpec{Binary: "/usr/local/bin/play", CenterHz: 300, WidthHz: 100, GainDB: -30})
		assert.Equal(t, "/usr/local/bin/play", got.Name)
		assert.Equal(t, []string{"-n", "synth", "noise", "band", "300", "100", "vol", "-30dB"}, got.Args)
	})
}

func TestAnalysisCommands(t *testing.T) {
	assert.Equal(t, []string{"in.wav", "-n", "spectrogram", "-o", "out.png"}, SpectrogramCommand("in.wav", "out.png").Args)
	assert.Equal(t, []string{"in.wav", "-n", "stat", "-freq"}, StatFreqCommand("in.wav").Args)
	assert.Equal(t, Command{"amixer", []string{"sget", "Master"}}, AmixerCommand("Master"))
	assert.Equal(t, Command{"killall", []string{"play"}}, KillallCommand("play"))
}

func TestCommandString(t *testing.T) {
	c := Command{Name: "sox", Args: []string{"my file.wav", "-n"}}
	assert.Equal(t, `sox "my file.wav" "-n"`, c.String())
}

func TestToolsFrequencyTable(t *testing.T) {
	in := filepath.Join(t.TempDir(), "input.wav")
	require.NoError(t, os.WriteFile(in, []byte("RIFF"), 0o644))

	fake := &FakeRunner{Stderr: map[string][]byte{"sox": []byte("100 1\n200 2\n")}}
	tools := &Tools{Runner: fake, GOOS: "linux"}

	out, err := tools.FrequencyTable(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "100 1\n200 2\n", string(out))
	require.Len(t, fake.Commands(), 1)
	assert.Equal(t, StatFreqCommand(in), fake.Commands()[0])
}

func TestToolsFrequencyTable_MissingInput(t *testing.T) {
	tools := &Tools{Runner: &FakeRunner{}, GOOS: "linux"}
	_, err := tools.FrequencyTable(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	require.Error(t, err)
}

func TestToolsRecord_PropagatesFailure(t *testing.T) {
	fake := &FakeRunner{Errs: map[string]error{"arecord": errors.New("no capture device")}}
	tools := &Tools{Runner: fake, GOOS: "linux"}

	err := tools.Record(context.Background(), "input.wav", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no capture device")
}

func TestToolsRecord_UnsupportedPlatform(t *testing.T) {
	fake := &FakeRunner{}
	tools := &Tools{Runner: fake, GOOS: "plan9"}

	require.Error(t, tools.Record(context.Background(), "input.wav", 3))
	assert.Empty(t, fake.Commands())
}

func TestExecRunner_StderrInError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewExecRunner()
	_, _, err := r.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestExecRunner_FailureLoggedOnlyAtDebug(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	var buf bytes.Buffer
	prev := log.GetLevel()
	log.SetOutput(&buf)
	log.SetLevel(log.LevelInfo)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(prev)
	})

	_, _, err := NewExecRunner().Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 1"}})
	require.Error(t, err)
	assert.Empty(t, buf.String(), "the caller reports the error")
}

func TestExecRunner_StopOnce(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep not available")
	}
	r := NewExecRunner()
	p, err := r.Start(Command{Name: "sleep", Args: []string{"30"}})
	require.NoError(t, err)
	assert.Positive(t, p.Pid())

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop(), "second stop must be a no-op")
}
