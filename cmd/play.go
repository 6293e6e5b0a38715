package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/playqueue/internal/app"
	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

type playOptions struct {
	shuffle bool
	repeat  string
	mock    bool
}

func newPlayCmd(flags *rootFlags) *cobra.Command {
	opts := &playOptions{}
	cfg := &flags.config

	cmd := &cobra.Command{
		Use:   "play [dir | files...]",
		Short: "Play a folder or a list of files; with no arguments resume the last session",
		Long: `Play a folder or a list of files.

Commands read from stdin while playing:
  p          play / pause
  n          next track
  b          previous track (restarts the track after a few seconds)
  s <sec>    seek to a position in seconds
  sh         toggle shuffle
  r          cycle repeat mode (off, all, one)
  i          show the current state
  stop       stop playback
  q          quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mock {
				cfg.Engine = app.EngineMock
			}
			return runPlay(cmd, *cfg, opts, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.shuffle, "shuffle", false, "start with shuffle on")
	f.StringVar(&opts.repeat, "repeat", "", "repeat mode: off, all or one")
	f.BoolVar(&opts.mock, "mock", false, "use the silent mock engine")
	f.StringSliceVar(&cfg.SandboxRoots, "sandbox", cfg.SandboxRoots, "folders whose files need a scope grant")
	f.BoolVar(&cfg.MPRIS, "mpris", cfg.MPRIS, "publish now playing over D-Bus MPRIS")
	f.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "speaker sample rate in Hz")
	f.DurationVar(&cfg.Controller.SkipDelay, "skip-delay", cfg.Controller.SkipDelay, "delay before a skip starts the next track")
	f.DurationVar(&cfg.Controller.RestartThreshold, "restart-threshold", cfg.Controller.RestartThreshold, "elapsed time after which previous restarts the track")

	return cmd
}

func runPlay(cmd *cobra.Command, config app.Config, opts *playOptions, args []string) error {
	application, err := app.NewApplication(config)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "shutdown: %v\n", err)
		}
	}()

	restored, err := application.Start()
	if err != nil {
		return err
	}

	ctrl := application.Controller()
	out := cmd.OutOrStdout()

	application.EventBus().SubscribeMany([]domain.EventType{
		domain.EventTrackStarted,
		domain.EventTrackError,
		domain.EventScopeDenied,
	}, func(e domain.Event) {
		switch ev := e.(type) {
		case domain.TrackStartedEvent:
			fmt.Fprintf(out, "> %s\n", describe(ev.Track))
		case domain.TrackErrorEvent:
			fmt.Fprintf(out, "! %s: %v\n", ev.Track.Title, ev.Error)
		case domain.ScopeDeniedEvent:
			fmt.Fprintf(out, "! no access to %s\n", ev.Location)
		}
	})

	if opts.repeat != "" {
		mode := domain.ParseRepeatMode(opts.repeat)
		for ctrl.State().RepeatMode != mode {
			ctrl.ToggleRepeatMode()
		}
	}
	if opts.shuffle && !ctrl.State().Shuffle {
		ctrl.ToggleShuffle()
	}

	switch {
	case len(args) > 0:
		tracks, label, err := loadTracks(cmd.Context(), application, args)
		if err != nil {
			return err
		}
		lead := tracks[0]
		if ctrl.State().Shuffle {
			lead = tracks[rand.IntN(len(tracks))]
		}
		if err := ctrl.Play(lead, tracks, label); err != nil {
			return err
		}
	case restored:
		fmt.Fprintln(out, "resuming last session")
		if err := ctrl.TogglePlayPause(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("nothing to play: pass a folder or files")
	}

	return runREPL(cmd.Context(), cmd.InOrStdin(), out, ctrl)
}

// loadTracks scans a single folder, or reads the given files in order.
func loadTracks(ctx context.Context, application *app.Application, args []string) ([]domain.Track, string, error) {
	library := application.Library()

	var (
		tracks []domain.Track
		label  string
		err    error
	)

	if info, statErr := os.Stat(args[0]); len(args) == 1 && statErr == nil && info.IsDir() {
		label = filepath.Base(filepath.Clean(args[0]))
		tracks, err = library.ScanFolder(ctx, args[0])
	} else {
		tracks, err = library.ScanFiles(ctx, args)
	}
	if err != nil {
		return nil, "", err
	}
	if len(tracks) == 0 {
		return nil, "", fmt.Errorf("no playable files found (supported: %v)", library.GetSupportedFormats())
	}
	return tracks, label, nil
}

func describe(t domain.Track) string {
	s := t.Title
	if t.Artist != "" {
		s += " - " + t.Artist
	}
	if t.Album != "" {
		s += " [" + t.Album + "]"
	}
	return s
}
