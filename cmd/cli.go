package cmd

import (
	"fmt"

	"noisemask/internal/config"
	"noisemask/pkg/bitint"
	"noisemask/pkg/build"

	"github.com/spf13/cobra"
)

// Commands set in config.Config.Command.
const (
	CommandRun         = "run"
	CommandRecord      = "record"
	CommandAnalyze     = "analyze"
	CommandPlay        = "play"
	CommandResetVolume = "reset-volume"
	CommandDevices     = "devices"
	CommandHistory     = "history"
)

// flagValues holds persistent flags until the config file is loaded; only
// flags the user actually set override it.
type flagValues struct {
	configPath      string
	dataDir         string
	seconds         int
	backend         string
	deviceID        int
	framesPerBuffer int
	record          bool
	reuse           bool
	noBackup        bool
	monitorAddr     string
	udpAddr         string
	verbose         bool
}

// ParseArgs builds the configuration for args (normally os.Args[1:]).
// Config.Command is empty when nothing should run, e.g. after --help.
func ParseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags   flagValues
		options *config.Config
		cmdName string
		manual  config.ManualParams
		pick    bool
		limit   int
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(flags.configPath)
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			options = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdName = CommandRun
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	set := func(name string) func(*cobra.Command, []string) {
		return func(*cobra.Command, []string) { cmdName = name }
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "record",
		Short: "Record a new ambient sample and keep a timestamped copy",
		Args:  cobra.NoArgs,
		Run:   set(CommandRecord),
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "analyze",
		Short: "Render the spectrogram and print the noise parameters of the last sample",
		Args:  cobra.NoArgs,
		Run:   set(CommandAnalyze),
	})

	playCmd := &cobra.Command{
		Use:   "play",
		Short: "Play the mask from the latest measurement or from explicit parameters",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmdName = CommandPlay
			manual.Set = cmd.Flags().Changed("mean")
		},
	}
	playCmd.Flags().Float64Var(&manual.MeanHz, "mean", 0, "Centre frequency of the noise band in Hz")
	playCmd.Flags().Float64Var(&manual.StdDevHz, "stddev", 0, "Width of the noise band in Hz")
	playCmd.Flags().Float64Var(&manual.VolumeDB, "db", 0, "Measured loudness in dB")
	playCmd.MarkFlagsRequiredTogether("mean", "stddev", "db")
	rootCmd.AddCommand(playCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "reset-volume",
		Short: "Set the synth stream back to 100% volume",
		Args:  cobra.NoArgs,
		Run:   set(CommandResetVolume),
	})

	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		Run:   set(CommandDevices),
	}
	devicesCmd.Flags().BoolVarP(&pick, "pick", "p", false, "Choose a capture device interactively")
	rootCmd.AddCommand(devicesCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent measurements",
		Args:  cobra.NoArgs,
		Run:   set(CommandHistory),
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", config.DefaultHistoryLimit, "Number of measurements to show")
	rootCmd.AddCommand(historyCmd)

	// Configuration
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "",
		"Config file (default noisemask.yaml, then the user config directory)")
	pf.StringVarP(&flags.dataDir, "data-dir", "D", config.DefaultDataDir,
		"Directory holding recordings, statistics and history")

	// Recording
	pf.IntVarP(&flags.seconds, "duration", "t", config.DefaultRecordSeconds,
		"Seconds of ambient audio to record")
	pf.StringVar(&flags.backend, "backend", config.DefaultBackend,
		"Recording backend: tool (arecord/sox) or portaudio")
	pf.IntVarP(&flags.deviceID, "device", "d", config.DefaultDeviceID,
		"PortAudio input device ID. Use the 'devices' command to see available devices.")
	pf.IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"PortAudio frames per buffer, rounded up to a power of 2")
	pf.BoolVarP(&flags.record, "record", "r", false, "Record a new sample without asking")
	pf.BoolVarP(&flags.reuse, "reuse", "o", false, "Use the old sample without asking")
	pf.BoolVar(&flags.noBackup, "no-backup", false, "Do not keep a timestamped copy of the recording")
	rootCmd.MarkFlagsMutuallyExclusive("record", "reuse")

	// Monitoring
	pf.StringVar(&flags.monitorAddr, "monitor-addr", config.DefaultMonitorAddress,
		"Serve live status over WebSocket on this address, e.g. localhost:8080")
	pf.StringVar(&flags.udpAddr, "udp-addr", "",
		"Send live status datagrams to this address, e.g. 127.0.0.1:9090")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if options == nil {
		// --help or --version
		return config.NewConfig(), nil
	}
	options.Command = cmdName
	options.Manual = manual
	options.PickDevice = pick
	options.HistoryLimit = limit
	return options, nil
}

// apply copies the flags the user set over cfg.
func (f *flagValues) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("data-dir") {
		cfg.DataDir = f.dataDir
	}
	if changed("duration") {
		cfg.Recording.Seconds = f.seconds
	}
	if changed("backend") {
		cfg.Recording.Backend = f.backend
	}
	if changed("device") {
		cfg.Recording.DeviceID = f.deviceID
	}
	if changed("frames-per-buffer") && f.framesPerBuffer > 0 {
		cfg.Recording.FramesPerBuffer = bitint.NextPowerOfTwo(f.framesPerBuffer)
	}
	if changed("no-backup") {
		cfg.Recording.Backup = !f.noBackup
	}
	if changed("monitor-addr") {
		cfg.Monitor.Address = f.monitorAddr
	}
	if changed("udp-addr") {
		cfg.Monitor.UDPAddress = f.udpAddr
	}
	if f.verbose {
		cfg.LogLevel = "debug"
	}
	cfg.ForceRecord = f.record
	cfg.ForceReuse = f.reuse
}
