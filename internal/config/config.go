package config

import "time"

// Core configuration constants that define the defaults for a noise mask run.
const (
	// Workspace
	DefaultDataDir = "data" // Holds input.wav, spectrum.png, data.txt, history.db

	// Recording
	DefaultRecordSeconds   = 10        // Length of the ambient sample
	DefaultBackend         = "tool"    // arecord/sox; "portaudio" records natively
	DefaultDeviceID        = MinDeviceID
	DefaultChannels        = 2         // arecord -f cd is stereo
	DefaultSampleRate      = 44100     // CD-quality audio
	DefaultFramesPerBuffer = 512       // PortAudio buffer size
	DefaultBitDepth        = 16        // WAV bit depth for native capture
	DefaultSilenceLevel    = 0.0005    // Peak below this is treated as a silent capture

	// Playback
	DefaultStreamName     = "ALSA plug-in [sox]"
	DefaultSynthCommand   = "play"
	DefaultStartupGainDB  = -20.0 // Reduction applied when the synth is first launched
	DefaultLingerDelay    = 200 * time.Millisecond
	DefaultSettleDelay    = 200 * time.Millisecond
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultMixerControl   = "Master"
	DefaultMonitorAddress = "" // Disabled

	// Logging
	DefaultLogLevel = "info"

	// History
	DefaultHistoryLimit = 10

	// Limits
	MinDeviceID      = -1 // -1 represents system default device
	MaxRecordSeconds = 600
	MinPollInterval  = 10 * time.Millisecond
)

// Recording backends.
const (
	BackendTool      = "tool"
	BackendPortAudio = "portaudio"
)

// Config holds all runtime configuration. It is built from defaults, then an
// optional YAML file, then NOISEMASK_* environment variables, then flags.
type Config struct {
	LogLevel string `yaml:"log_level"`         // debug, info, warn, error
	DataDir  string `yaml:"data_dir"`          // Workspace directory
	Command  string `yaml:"command,omitempty"` // Set by the CLI, never read from file

	Recording RecordingConfig `yaml:"recording"`
	Playback  PlaybackConfig  `yaml:"playback"`
	Monitor   MonitorConfig   `yaml:"monitor"`

	// Per-run choices made on the command line.
	ForceRecord  bool         `yaml:"-"`
	ForceReuse   bool         `yaml:"-"`
	PickDevice   bool         `yaml:"-"`
	HistoryLimit int          `yaml:"-"`
	Manual       ManualParams `yaml:"-"`
}

// ManualParams are noise parameters given on the command line instead of
// measured.
type ManualParams struct {
	Set      bool
	MeanHz   float64
	StdDevHz float64
	VolumeDB float64
}

// RecordingConfig holds settings for capturing the ambient sample.
type RecordingConfig struct {
	Seconds         int     `yaml:"seconds"`           // Sample length
	Backend         string  `yaml:"backend"`           // "tool" or "portaudio"
	DeviceID        int     `yaml:"device"`            // PortAudio input device (-1 for default)
	Channels        int     `yaml:"channels"`          // PortAudio input channels
	SampleRate      float64 `yaml:"sample_rate"`       // PortAudio sample rate in Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // PortAudio buffer size, power of 2
	BitDepth        int     `yaml:"bit_depth"`         // WAV bit depth for native capture
	SilenceLevel    float64 `yaml:"silence_level"`     // Normalised peak treated as silence
	Backup          bool    `yaml:"backup"`            // Keep a timestamped copy of each recording
}

// PlaybackConfig holds settings for the noise synth and the volume loop.
type PlaybackConfig struct {
	StreamName    string        `yaml:"stream_name"`     // application.name of the synth's sink input
	SynthCommand  string        `yaml:"synth_command"`   // Binary used to play the mask
	StartupGainDB float64       `yaml:"startup_gain_db"` // Offset added to the measured loudness
	LingerDelay   time.Duration `yaml:"linger_delay"`    // Wait before the first stream lookup
	SettleDelay   time.Duration `yaml:"settle_delay"`    // Wait after launching the synth
	PollInterval  time.Duration `yaml:"poll_interval"`   // Volume polling cadence
	MixerControl  string        `yaml:"mixer_control"`   // amixer simple control to follow
}

// MonitorConfig holds settings for the optional live status feed.
type MonitorConfig struct {
	Address    string `yaml:"address"`     // host:port for the WebSocket feed, empty disables it
	UDPAddress string `yaml:"udp_address"` // host:port receiving status datagrams, empty disables it
}

// NewConfig creates a Config populated with default values.
func NewConfig() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		DataDir:  DefaultDataDir,
		Recording: RecordingConfig{
			Seconds:         DefaultRecordSeconds,
			Backend:         DefaultBackend,
			DeviceID:        DefaultDeviceID,
			Channels:        DefaultChannels,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			BitDepth:        DefaultBitDepth,
			SilenceLevel:    DefaultSilenceLevel,
			Backup:          true,
		},
		Playback: PlaybackConfig{
			StreamName:    DefaultStreamName,
			SynthCommand:  DefaultSynthCommand,
			StartupGainDB: DefaultStartupGainDB,
			LingerDelay:   DefaultLingerDelay,
			SettleDelay:   DefaultSettleDelay,
			PollInterval:  DefaultPollInterval,
			MixerControl:  DefaultMixerControl,
		},
		Monitor: MonitorConfig{
			Address: DefaultMonitorAddress,
		},
		HistoryLimit: DefaultHistoryLimit,
	}
}
