// Package ffmpeg verifies finalized downloads using ffprobe. The engine
// occasionally reports success for a file it then fails to finish
// post-processing; probing the container catches that early, and the
// probe's duration is used to backfill metadata the engine omitted.
package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/floostack/transcoder/ffmpeg"
)

type Prober struct {
	config ffmpeg.Config
}

func NewProber(ffprobeBinPath string) *Prober {
	return &Prober{config: ffmpeg.Config{FfprobeBinPath: ffprobeBinPath}}
}

// Probe inspects the container at the given path and returns its
// duration in seconds. An error indicates the file is missing, not a
// media container, or truncated beyond ffprobe's tolerance.
func (prober *Prober) Probe(path string) (float64, error) {
	transcoderInstance := ffmpeg.New(&prober.config).Input(path)
	metadata, err := transcoderInstance.GetMetadata()
	if err != nil {
		return 0, fmt.Errorf("failed to extract file metadata information using ffprobe: %s", err.Error())
	}

	duration, err := strconv.ParseFloat(metadata.GetFormat().GetDuration(), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe reported a non-numeric duration: %s", err.Error())
	}

	return duration, nil
}
