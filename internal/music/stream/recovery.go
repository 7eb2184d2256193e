package stream

import (
	"errors"
	"io"
	"log"
)

const maxRecoveryAttempts = 3

// Opener (re)opens a PCM stream at the given position in seconds.
type Opener func(seekSec float64) (io.ReadCloser, error)

// RecoveryStream reopens its source at the current position when the source
// ends early, e.g. when the CDN drops the connection mid-track.
type RecoveryStream struct {
	open     Opener
	stream   io.ReadCloser
	seekSec  float64
	attempts int
	// Length is the expected duration in seconds; 0 disables recovery.
	Length float64
}

// NewRecoveryStream opens the source at position 0.
func NewRecoveryStream(open Opener, length float64) (*RecoveryStream, error) {
	s, err := open(0)
	if err != nil {
		return nil, err
	}
	return &RecoveryStream{open: open, stream: s, Length: length}, nil
}

// Read implements io.Reader.
func (rs *RecoveryStream) Read(p []byte) (int, error) {
	if rs.stream == nil {
		return 0, errors.New("stream not opened")
	}
	n, err := rs.stream.Read(p)
	rs.seekSec += float64(n) / bytesPerSecond
	if err == io.EOF && n == 0 && rs.early() {
		return rs.recover(p)
	}
	return n, err
}

// early reports whether playback stopped more than two seconds short.
func (rs *RecoveryStream) early() bool {
	return rs.Length > 0 && rs.seekSec+2 < rs.Length
}

func (rs *RecoveryStream) recover(p []byte) (int, error) {
	if rs.attempts >= maxRecoveryAttempts {
		log.Printf("[WARN] Stream ended at %.1fs of %.1fs, giving up after %d recoveries", rs.seekSec, rs.Length, rs.attempts)
		return 0, io.EOF
	}
	rs.attempts++
	log.Printf("[INFO] Stream ended early at %.1fs, reopening (attempt %d)", rs.seekSec, rs.attempts)

	_ = rs.stream.Close()
	s, err := rs.open(rs.seekSec)
	if err != nil {
		log.Printf("[ERR] Stream recovery failed: %v", err)
		rs.stream = nil
		return 0, io.EOF
	}
	rs.stream = s
	return rs.Read(p)
}

// Close closes the underlying stream.
func (rs *RecoveryStream) Close() error {
	if rs.stream == nil {
		return nil
	}
	return rs.stream.Close()
}
