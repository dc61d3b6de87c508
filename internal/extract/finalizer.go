package extract

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hbomb79/Grabbr/internal/engine"
	"github.com/hbomb79/Grabbr/internal/strategy"
)

// Finalizer derives the final on-disk path and the public-facing
// filename for a completed download. The on-disk name is already
// collision-safe (the strategy's output template embeds a per-request
// unique token); the finalizer's job is to account for post-processing
// extension rewrites and to produce a name safe to echo to a caller.
type Finalizer struct {
	downloadDir string
}

func NewFinalizer(downloadDir string) *Finalizer {
	return &Finalizer{downloadDir: downloadDir}
}

// Finalize resolves the engine-reported filename against the strategy
// that produced it. For audio-only strategies the engine's report
// reflects the pre-processing container, so the extension is rewritten
// to the post-processing target before the file is checked. A missing
// file is a MissingOutputError.
func (finalizer *Finalizer) Finalize(result *engine.Result, strat strategy.Strategy) (diskPath string, publicName string, err error) {
	path := result.Filename
	if path == "" {
		return "", "", &MissingOutputError{Path: finalizer.downloadDir}
	}

	if strat.ExtractAudio {
		path = strings.TrimSuffix(path, filepath.Ext(path)) + "." + strat.AudioCodec
	}

	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return "", "", &MissingOutputError{Path: path}
		}

		return "", "", statErr
	}

	return path, SanitizeFilename(filepath.Base(path)), nil
}

var disallowedFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a filename to a form that is safe to return
// to a caller and safe to later use as a static-file lookup key. Any
// directory components are stripped, disallowed characters (path
// separators, control characters, null bytes) are collapsed to
// underscores, and leading dots are removed so the result can never
// reference a parent directory or become a hidden file.
func SanitizeFilename(name string) string {
	// Base against both separator conventions; a caller-influenced
	// title may carry either.
	name = filepath.Base(name)
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}

	name = disallowedFilenameChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, "._")

	if name == "" {
		return "download"
	}

	return name
}
