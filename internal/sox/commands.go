// Package sox builds and runs the external audio tools the mask relies on:
// arecord or sox for recording, sox for the spectrogram and frequency table,
// and play for the noise itself. Every invocation is an explicit argument
// list; nothing goes through a shell.
package sox

import (
	"fmt"
	"strconv"
)

// Command is a fully built tool invocation.
type Command struct {
	Name string
	Args []string
}

// String renders the command for logs.
func (c Command) String() string {
	s := c.Name
	for _, a := range c.Args {
		s += " " + strconv.Quote(a)
	}
	return s
}

// RecordCommand records seconds of audio from the default input into out.
// Linux uses arecord at CD quality, macOS uses sox's default device.
func RecordCommand(goos, out string, seconds int) (Command, error) {
	switch goos {
	case "linux":
		return Command{
			Name: "arecord",
			Args: []string{"-d", strconv.Itoa(seconds), "-f", "cd", out},
		}, nil
	case "darwin":
		return Command{
			Name: "sox",
			Args: []string{"-d", out, "trim", "0", strconv.Itoa(seconds)},
		}, nil
	default:
		return Command{}, fmt.Errorf("recording is not supported on %s", goos)
	}
}

// SpectrogramCommand renders a spectrogram of in to the PNG at out.
func SpectrogramCommand(in, out string) Command {
	return Command{
		Name: "sox",
		Args: []string{in, "-n", "spectrogram", "-o", out},
	}
}

// StatFreqCommand prints the frequency/amplitude table of in, followed by
// sox's statistics summary, on stderr.
func StatFreqCommand(in string) Command {
	return Command{
		Name: "sox",
		Args: []string{in, "-n", "stat", "-freq"},
	}
}

// SynthSpec describes the band-limited noise to play.
type SynthSpec struct {
	Binary   string  // usually "play"
	CenterHz float64 // band centre
	WidthHz  float64 // band width
	GainDB   float64 // output gain
	// Lead plays two seconds of silence before the noise so the stream can be
	// found and turned down before anything is audible.
	Lead bool
}

// SynthCommand builds the play invocation for spec.
func SynthCommand(spec SynthSpec) Command {
	binary := spec.Binary
	if binary == "" {
		binary = "play"
	}

	args := []string{"-n"}
	if spec.Lead {
		args = append(args, "trim", "0.0", "2.0", ":")
	}
	args = append(args,
		"synth", "noise", "band",
		formatFloat(spec.CenterHz),
		formatFloat(spec.WidthHz),
		"vol", formatFloat(spec.GainDB)+"dB",
	)

	return Command{Name: binary, Args: args}
}

// AmixerCommand queries a simple mixer control, e.g. "Master".
func AmixerCommand(control string) Command {
	return Command{
		Name: "amixer",
		Args: []string{"sget", control},
	}
}

// KillallCommand terminates every process called name.
func KillallCommand(name string) Command {
	return Command{
		Name: "killall",
		Args: []string{name},
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
