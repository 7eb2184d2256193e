package ytweb

import (
	"errors"
	"sort"

	kkdai "github.com/kkdai/youtube/v2"
)

var ErrNoAudioFormat = errors.New("no audio formats found for video")

// AudioFormat prefers audio-only formats with the highest bitrate, falling
// back to muxed formats that carry audio.
func AudioFormat(video *kkdai.Video) (*kkdai.Format, error) {
	formats := video.Formats.Type("audio")
	if len(formats) == 0 {
		formats = video.Formats.WithAudioChannels()
	}
	if len(formats) == 0 {
		return nil, ErrNoAudioFormat
	}
	sort.SliceStable(formats, func(i, j int) bool { return formats[i].Bitrate > formats[j].Bitrate })
	return &formats[0], nil
}
