// Package stream turns a media URL into Opus frames on a voice connection:
// ffmpeg decodes to PCM, gopus encodes, the voice connection sends.
package stream

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
)

const (
	Channels   = 2
	SampleRate = 48000
	FrameSize  = 960 // 20ms at 48kHz

	bytesPerSecond = SampleRate * Channels * 2
)

// FFmpeg starts ffmpeg reading link from seekSec and returns its s16le PCM
// output. Closing the reader kills the process.
func FFmpeg(ctx context.Context, link string, seekSec float64) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.FormatFloat(seekSec, 'f', 3, 64),
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-i", link,
		"-f", "s16le",
		"-ar", strconv.Itoa(SampleRate),
		"-ac", strconv.Itoa(Channels),
		"-loglevel", "warning",
		"pipe:1",
	)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe error: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return &process{ReadCloser: out, cmd: cmd}, nil
}

type process struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (p *process) Close() error {
	_ = p.cmd.Process.Kill()
	err := p.ReadCloser.Close()
	_ = p.cmd.Wait()
	return err
}
