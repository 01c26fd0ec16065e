package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"noisemask/internal/audio"
	"noisemask/internal/config"
	"noisemask/internal/history"
	"noisemask/internal/log"
	"noisemask/internal/mask"
	"noisemask/internal/mixer"
	"noisemask/internal/pipeline"
	"noisemask/internal/sox"
	"noisemask/internal/stats"
	"noisemask/internal/transport"
	"noisemask/internal/transport/udp"
	"noisemask/internal/tui"
	"noisemask/internal/workspace"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

const pulseClientName = "noisemask"

// App holds what the commands share: the config, the tool runner and the
// output stream.
type App struct {
	Config *config.Config
	Runner sox.Runner
	GOOS   string
	In     io.Reader
	Out    io.Writer
}

// NewApp wires the real tool runner and terminal streams.
func NewApp(cfg *config.Config) *App {
	return &App{
		Config: cfg,
		Runner: sox.NewExecRunner(),
		GOOS:   runtime.GOOS,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Run executes cfg.Command until it finishes or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	switch a.Config.Command {
	case CommandRun:
		return a.runMask(ctx)
	case CommandRecord:
		return a.runRecord(ctx)
	case CommandAnalyze:
		return a.runAnalyze(ctx)
	case CommandPlay:
		return a.runPlay(ctx)
	case CommandResetVolume:
		return a.runResetVolume()
	case CommandDevices:
		return a.runDevices()
	case CommandHistory:
		return a.runHistory()
	case "":
		return nil
	default:
		return fmt.Errorf("unknown command %q", a.Config.Command)
	}
}

func (a *App) workspace() *workspace.Workspace {
	return workspace.New(a.Config.DataDir)
}

func (a *App) tools() *sox.Tools {
	return &sox.Tools{Runner: a.Runner, GOOS: a.GOOS}
}

// openHistory opens the measurement history. A broken history database
// must not stop the mask from playing, so failures only warn.
func (a *App) openHistory(ws *workspace.Workspace) *history.Store {
	if err := ws.Ensure(); err != nil {
		log.Warnf("History disabled: %v", err)
		return nil
	}
	store, err := history.Open(ws.History())
	if err != nil {
		log.Warnf("History disabled: %v", err)
		return nil
	}
	return store
}

// openStore opens the history for commands that cannot run without it.
func (a *App) openStore() (*history.Store, error) {
	ws := a.workspace()
	if err := ws.Ensure(); err != nil {
		return nil, err
	}
	return history.Open(ws.History())
}

func (a *App) pipeline(ws *workspace.Workspace, store *history.Store) *pipeline.Pipeline {
	rec := a.Config.Recording
	p := &pipeline.Pipeline{
		Workspace:    ws,
		Tools:        a.tools(),
		Recorder:     pipeline.NewRecorder(rec, a.tools()),
		Backup:       rec.Backup,
		SilenceLevel: rec.SilenceLevel,
		Out:          a.Out,
		Prompt: func() (tui.Choice, error) {
			return tui.AskRecordOrReuse(a.In, a.Out)
		},
	}
	if store != nil {
		p.History = store
	}
	switch {
	case a.Config.ForceRecord:
		p.Mode = pipeline.Record
	case a.Config.ForceReuse:
		p.Mode = pipeline.Reuse
	}
	return p
}

// runMask is the default command: prepare the params, then play.
func (a *App) runMask(ctx context.Context) error {
	capability, err := mask.DetectCapability(a.GOOS)
	if err != nil {
		return err
	}

	ws := a.workspace()
	store := a.openHistory(ws)
	if store != nil {
		defer store.Close()
	}

	params, err := a.pipeline(ws, store).Prepare(ctx)
	if err != nil {
		return err
	}
	return a.play(ctx, capability, params)
}

func (a *App) runRecord(ctx context.Context) error {
	ws := a.workspace()
	if err := a.pipeline(ws, nil).Record(ctx); err != nil {
		return err
	}
	log.Infof("Audio recorded and saved as %s", ws.Input())

	backups, err := ws.Backups()
	if err != nil {
		return err
	}
	if len(backups) > 0 {
		fmt.Fprintln(a.Out, backupTable(backups))
	}
	return nil
}

func backupTable(backups []workspace.Backup) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Recorded", "Backup")
	for _, b := range backups {
		t.Row(b.At.Format("2006-01-02 15:04"), filepath.Base(b.Path))
	}
	return t.String()
}

func (a *App) runAnalyze(ctx context.Context) error {
	ws := a.workspace()
	store := a.openHistory(ws)
	if store != nil {
		defer store.Close()
	}

	p := a.pipeline(ws, store)
	p.Mode = pipeline.Reuse
	_, err := p.Prepare(ctx)
	return err
}

func (a *App) runPlay(ctx context.Context) error {
	capability, err := mask.DetectCapability(a.GOOS)
	if err != nil {
		return err
	}

	var params stats.Params
	if m := a.Config.Manual; m.Set {
		params = stats.Params{MeanHz: m.MeanHz, StdDevHz: m.StdDevHz, VolumeDB: m.VolumeDB}
	} else {
		store, err := a.openStore()
		if err != nil {
			return err
		}
		latest, err := store.Latest()
		store.Close()
		if errors.Is(err, history.ErrEmpty) {
			return fmt.Errorf("%w; run a measurement first or pass --mean, --stddev and --db", err)
		}
		if err != nil {
			return err
		}
		log.Infof("Using measurement #%d from %s", latest.ID, latest.RecordedAt.Format(time.DateTime))
		params = latest.Params
	}

	fmt.Fprintln(a.Out, tui.RenderSummary("Noise mask", params))
	return a.play(ctx, capability, params)
}

// play runs the mask until ctx is cancelled.
func (a *App) play(ctx context.Context, capability mask.Capability, params stats.Params) error {
	pb := a.Config.Playback
	player := &mask.Player{
		Capability:    capability,
		Runner:        a.Runner,
		StreamName:    pb.StreamName,
		SynthBinary:   pb.SynthCommand,
		StartupGainDB: pb.StartupGainDB,
		LingerDelay:   pb.LingerDelay,
		SettleDelay:   pb.SettleDelay,
		PollInterval:  pb.PollInterval,
	}

	tr, err := a.transport()
	if err != nil {
		return err
	}
	defer tr.Close()
	player.Transport = tr

	if capability == mask.CanSlaveVolume {
		srv, err := mixer.DialPulse(pulseClientName)
		if err != nil {
			return err
		}
		defer srv.Close()
		player.Server = srv
		player.Volume = &mixer.Amixer{Runner: a.Runner, Control: pb.MixerControl}
	}

	fmt.Fprintln(a.Out, "Please use Control + c or other SIGINT to exit gracefully.")
	return player.Run(ctx, params)
}

func (a *App) transport() (transport.Transport, error) {
	multi := transport.Multi{transport.NewLoggingTransport()}
	if addr := a.Config.Monitor.Address; addr != "" {
		wst := transport.NewWebSocketTransport(addr)
		if err := wst.Start(); err != nil {
			wst.Close()
			return nil, fmt.Errorf("failed to start monitor on %s: %w", addr, err)
		}
		multi = append(multi, wst)
	}
	if addr := a.Config.Monitor.UDPAddress; addr != "" {
		pub, err := udp.NewPublisher(addr)
		if err != nil {
			multi.Close()
			return nil, err
		}
		multi = append(multi, pub)
	}
	return multi, nil
}

func (a *App) runResetVolume() error {
	capability, err := mask.DetectCapability(a.GOOS)
	if err != nil {
		return err
	}
	if capability != mask.CanSlaveVolume {
		return fmt.Errorf("%w: stream volume cannot be set on %s", mask.ErrUnsupportedPlatform, a.GOOS)
	}

	srv, err := mixer.DialPulse(pulseClientName)
	if err != nil {
		return err
	}
	defer srv.Close()

	return resetVolume(srv, a.Config.Playback.StreamName, a.Out)
}

func resetVolume(srv mixer.Server, name string, out io.Writer) error {
	found, err := mixer.ResetStream(srv, name)
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, "Couldn't find sox stream in PulseAudio.")
		return nil
	}
	fmt.Fprintf(out, "%s volume reset to 100%%\n", name)
	return nil
}

func (a *App) runDevices() error {
	if err := audio.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := audio.Terminate(); err != nil {
			log.Warnf("%v", err)
		}
	}()

	if !a.Config.PickDevice {
		return audio.ListDevices(a.Out)
	}

	sel, err := tui.PickDevice(audio.HostDevices)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Selected [%d] %s at %.0f Hz.\n", sel.DeviceID, sel.Name, sel.SampleRate)
	fmt.Fprintf(a.Out, "Record with: --backend portaudio --device %d\n", sel.DeviceID)
	return nil
}

func (a *App) runHistory() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	recent, err := store.Recent(a.Config.HistoryLimit)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		fmt.Fprintln(a.Out, history.ErrEmpty.Error())
		return nil
	}
	fmt.Fprintln(a.Out, historyTable(recent))
	return nil
}

func historyTable(ms []history.Measurement) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("#", "Recorded", "Mean Hz", "Std dev Hz", "Volume dB", "Length", "Source")
	for _, m := range ms {
		length := "-"
		if m.DurationSec > 0 {
			length = strconv.FormatFloat(m.DurationSec, 'f', 1, 64) + "s"
		}
		t.Row(
			strconv.FormatInt(m.ID, 10),
			m.RecordedAt.Format(time.DateTime),
			fmt.Sprintf("%.2f", m.Params.MeanHz),
			fmt.Sprintf("%.2f", m.Params.StdDevHz),
			fmt.Sprintf("%.2f", m.Params.VolumeDB),
			length,
			m.Source,
		)
	}
	return t.String()
}
