package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tejashwikalptaru/playqueue/internal/domain"
)

// player is the part of the playback controller the prompt drives.
type player interface {
	TogglePlayPause() error
	SkipForward() error
	SkipBackward() error
	Seek(position time.Duration) error
	ToggleShuffle() bool
	ToggleRepeatMode() domain.RepeatMode
	Stop(clearTrack bool)
	State() domain.PlaybackState
}

// runREPL reads one command per line until q, EOF or ctx is done.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, p player) error {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := execute(strings.Fields(line), out, p); quit {
				return nil
			}
		}
	}
}

// execute runs one command and reports whether the prompt should exit.
func execute(fields []string, out io.Writer, p player) bool {
	if len(fields) == 0 {
		return false
	}

	var err error
	switch fields[0] {
	case "p":
		err = p.TogglePlayPause()
	case "n":
		err = p.SkipForward()
	case "b":
		err = p.SkipBackward()
	case "s":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: s <seconds>")
			return false
		}
		secs, perr := strconv.ParseFloat(fields[1], 64)
		if perr != nil {
			fmt.Fprintf(out, "bad position %q\n", fields[1])
			return false
		}
		err = p.Seek(time.Duration(secs * float64(time.Second)))
	case "sh":
		fmt.Fprintf(out, "shuffle %s\n", onOff(p.ToggleShuffle()))
	case "r":
		fmt.Fprintf(out, "repeat %s\n", p.ToggleRepeatMode())
	case "i":
		printState(out, p.State())
	case "stop":
		p.Stop(false)
	case "q", "quit", "exit":
		return true
	default:
		fmt.Fprintf(out, "unknown command %q\n", fields[0])
	}

	if err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	return false
}

func printState(out io.Writer, s domain.PlaybackState) {
	if s.CurrentTrack == nil {
		fmt.Fprintln(out, "nothing loaded")
		return
	}
	status := "paused"
	if s.IsPlaying {
		status = "playing"
	}
	fmt.Fprintf(out, "%s %s %s/%s  track %d/%d  shuffle %s  repeat %s\n",
		status, describe(*s.CurrentTrack),
		s.CurrentTime.Truncate(time.Second), s.Duration.Truncate(time.Second),
		s.CurrentIndex+1, len(s.Queue), onOff(s.Shuffle), s.RepeatMode)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
