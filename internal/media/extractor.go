// Package media adapts ffmpeg into the push-style audio source the quiz
// engine consumes.
package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Extractor streams raw s16le audio windows out of remote or local media
// using ffmpeg. Locators are probed first so an unresolvable source is
// rejected before any playback starts.
type Extractor struct {
	ffmpegBin  string
	ffprobeBin string
}

// NewExtractor creates an extractor using the given binaries
func NewExtractor(ffmpegBin, ffprobeBin string) *Extractor {
	return &Extractor{
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
	}
}

// Open probes the locator, then starts pushing up to limit seconds of
// audio from offset into sink from a background goroutine. sink is
// closed when the window ends or ctx is cancelled. A probe failure is
// returned synchronously with nothing written.
func (e *Extractor) Open(ctx context.Context, locator string, offset, limit time.Duration, sink io.WriteCloser) error {
	if err := e.probe(ctx, locator); err != nil {
		return err
	}

	args := []string{
		"-v", "error",
		"-ss", formatSeconds(offset),
		"-t", formatSeconds(limit),
		"-i", locator,
		"-vn",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"pipe:1",
	}
	cmd := exec.CommandContext(ctx, e.ffmpegBin, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	go func() {
		defer sink.Close()
		if _, err := io.Copy(sink, stdout); err != nil && ctx.Err() == nil {
			log.Printf("extract %s: %v", locator, err)
		}
		if err := cmd.Wait(); err != nil && ctx.Err() == nil {
			log.Printf("ffmpeg %s: %v", locator, err)
		}
	}()
	return nil
}

// probe verifies the locator resolves to readable media
func (e *Extractor) probe(ctx context.Context, locator string) error {
	cmd := exec.CommandContext(ctx, e.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		locator,
	)
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("resolve %q: %w", locator, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return fmt.Errorf("resolve %q: no readable stream", locator)
	}
	return nil
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
