// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"noisemask/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches the default locations ("noisemask.yaml", then the user config dir). If no
// file is found, it uses built-in defaults. After loading, it applies environment
// variable overrides. Callers validate once every layer, flags included, is applied.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		for _, candidate := range candidatePaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment variables win over the file.
	cfg.applyEnvOverrides()

	return cfg, nil
}

func candidatePaths() []string {
	candidates := []string{"noisemask.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "noisemask", "config.yaml"))
	}
	return candidates
}

// Validate checks the configuration for values the run cannot work with.
func (c *Config) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}

	r := c.Recording
	if r.Seconds <= 0 || r.Seconds > MaxRecordSeconds {
		errs = append(errs, fmt.Errorf("recording.seconds must be in 1..%d, got %d", MaxRecordSeconds, r.Seconds))
	}
	switch r.Backend {
	case BackendTool, BackendPortAudio:
	default:
		errs = append(errs, fmt.Errorf("recording.backend must be %q or %q, got %q", BackendTool, BackendPortAudio, r.Backend))
	}
	if r.DeviceID < MinDeviceID {
		errs = append(errs, fmt.Errorf("recording.device must be >= %d, got %d", MinDeviceID, r.DeviceID))
	}
	if r.Channels < 1 || r.Channels > 2 {
		errs = append(errs, fmt.Errorf("recording.channels must be 1 or 2, got %d", r.Channels))
	}
	if r.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("recording.sample_rate must be positive, got %g", r.SampleRate))
	}
	if r.FramesPerBuffer <= 0 || !bitint.IsPowerOfTwo(r.FramesPerBuffer) {
		errs = append(errs, fmt.Errorf("recording.frames_per_buffer must be a power of 2, got %d", r.FramesPerBuffer))
	}
	if r.BitDepth != 16 && r.BitDepth != 24 && r.BitDepth != 32 {
		errs = append(errs, fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", r.BitDepth))
	}

	p := c.Playback
	if p.StreamName == "" {
		errs = append(errs, errors.New("playback.stream_name must be set"))
	}
	if p.SynthCommand == "" {
		errs = append(errs, errors.New("playback.synth_command must be set"))
	}
	if p.PollInterval < MinPollInterval {
		errs = append(errs, fmt.Errorf("playback.poll_interval must be at least %s, got %s", MinPollInterval, p.PollInterval))
	}
	if p.LingerDelay < 0 || p.SettleDelay < 0 {
		errs = append(errs, errors.New("playback delays must not be negative"))
	}

	if c.Monitor.Address != "" && !strings.Contains(c.Monitor.Address, ":") {
		errs = append(errs, fmt.Errorf("monitor.address %q appears invalid (missing port?)", c.Monitor.Address))
	}
	if c.Monitor.UDPAddress != "" && !strings.Contains(c.Monitor.UDPAddress, ":") {
		errs = append(errs, fmt.Errorf("monitor.udp_address %q appears invalid (missing port?)", c.Monitor.UDPAddress))
	}

	return errors.Join(errs...)
}

// applyEnvOverrides copies NOISEMASK_* variables over the loaded values.
// Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// NOISEMASK_LOG_LEVEL
	if val, ok := os.LookupEnv("NOISEMASK_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	// NOISEMASK_DATA_DIR
	if val, ok := os.LookupEnv("NOISEMASK_DATA_DIR"); ok {
		cfg.DataDir = val
	}

	// NOISEMASK_RECORD_SECONDS
	if val, ok := os.LookupEnv("NOISEMASK_RECORD_SECONDS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Recording.Seconds = n
		}
	}
	// NOISEMASK_BACKEND
	if val, ok := os.LookupEnv("NOISEMASK_BACKEND"); ok {
		cfg.Recording.Backend = strings.ToLower(val)
	}
	// NOISEMASK_DEVICE
	if val, ok := os.LookupEnv("NOISEMASK_DEVICE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Recording.DeviceID = n
		}
	}

	// NOISEMASK_STREAM_NAME
	if val, ok := os.LookupEnv("NOISEMASK_STREAM_NAME"); ok {
		cfg.Playback.StreamName = val
	}
	// NOISEMASK_POLL_INTERVAL
	if val, ok := os.LookupEnv("NOISEMASK_POLL_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Playback.PollInterval = dur
		}
	}
	// NOISEMASK_STARTUP_GAIN_DB
	if val, ok := os.LookupEnv("NOISEMASK_STARTUP_GAIN_DB"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Playback.StartupGainDB = f
		}
	}

	// NOISEMASK_MONITOR_ADDRESS
	if val, ok := os.LookupEnv("NOISEMASK_MONITOR_ADDRESS"); ok {
		cfg.Monitor.Address = val
	}
	// NOISEMASK_MONITOR_UDP
	if val, ok := os.LookupEnv("NOISEMASK_MONITOR_UDP"); ok {
		cfg.Monitor.UDPAddress = val
	}
}
