// Package engine wraps the external media extraction engine (yt-dlp,
// executed as a subprocess). The engine is treated as an unreliable
// collaborator: this package's job is to invoke it with the options a
// strategy describes, decode whatever structured output it produces,
// and classify its failures so the orchestrator can decide what to do
// next. No retry or fallback decisions are made here.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hbomb79/Grabbr/internal/strategy"
	"github.com/hbomb79/Grabbr/pkg/logger"
)

var log = logger.Get("Engine")

type Config struct {
	BinaryPath  string `yaml:"binary_path" env:"ENGINE_BIN" env-default:"yt-dlp"`
	Parallelism int    `yaml:"parallelism" env:"ENGINE_PARALLELISM" env-default:"4"`
}

type (
	// Format is a raw format record as reported by the engine. Records
	// lacking a URL are present in engine output but unusable.
	Format struct {
		FormatID   string `json:"format_id"`
		Ext        string `json:"ext"`
		Resolution string `json:"resolution"`
		Note       string `json:"format_note"`
		Filesize   *int64 `json:"filesize"`
		URL        string `json:"url"`
		Protocol   string `json:"protocol"`
		VideoCodec string `json:"vcodec"`
		AudioCodec string `json:"acodec"`
	}

	// Result is the engine's structured output for a single extraction.
	// For download invocations, Filename reports the path the engine
	// wrote the media file to, before any post-processing rewrites.
	Result struct {
		Type       string            `json:"_type"`
		Title      string            `json:"title"`
		Duration   float64           `json:"duration"`
		Thumbnail  string            `json:"thumbnail"`
		Uploader   string            `json:"uploader"`
		ViewCount  int64             `json:"view_count"`
		WebpageURL string            `json:"webpage_url"`
		Formats    []Format          `json:"formats"`
		Entries    []json.RawMessage `json:"entries"`
		Filename   string            `json:"_filename"`
	}
)

// IsPlaylist reports whether the engine resolved the URL to a
// collection rather than a single media item.
func (result *Result) IsPlaylist() bool {
	return result.Type == "playlist" || result.Type == "multi_video" || len(result.Entries) > 0
}

// ytdlpEngine executes the configured binary. Invocations are bounded
// by a counting semaphore so a burst of requests cannot fork an
// unbounded number of engine processes.
type ytdlpEngine struct {
	config Config
	sem    chan struct{}
}

func New(config Config) *ytdlpEngine {
	parallelism := config.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}

	return &ytdlpEngine{config: config, sem: make(chan struct{}, parallelism)}
}

// Extract invokes the engine once with the options the strategy
// describes. Download strategies additionally write the media file to
// the strategy's output template. The returned error, if any, is one of
// this package's classified error types.
func (engine *ytdlpEngine) Extract(ctx context.Context, url string, strat strategy.Strategy) (*Result, error) {
	select {
	case engine.sem <- struct{}{}:
		defer func() { <-engine.sem }()
	case <-ctx.Done():
		return nil, &TransientError{Reason: "engine invocation queue wait aborted: " + ctx.Err().Error()}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, strat.AttemptTimeout)
	defer cancel()

	args := buildArgs(strat)
	args = append(args, "--", url)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(attemptCtx, engine.config.BinaryPath, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.Emit(logger.DEBUG, "Invoking %s with %d args (download=%v)\n", engine.config.BinaryPath, len(args), strat.Download)
	if err := cmd.Run(); err != nil {
		return nil, classify(attemptCtx, err, stderr.String())
	}

	var result Result
	payload := bytes.TrimSpace(stdout.Bytes())
	if len(payload) == 0 {
		return nil, &UnknownError{Reason: "engine exited successfully but produced no output"}
	}

	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, &UnknownError{Reason: fmt.Sprintf("engine output could not be decoded: %s", err.Error())}
	}

	return &result, nil
}

// buildArgs translates a strategy in to the engine's flag surface.
func buildArgs(strat strategy.Strategy) []string {
	args := []string{"--no-playlist", "--quiet", "--no-warnings"}

	if strat.Download {
		args = append(args,
			"--print-json",
			"--restrict-filenames",
			"-f", strat.FormatSelector,
			"-o", strat.OutputTemplate,
		)

		if strat.ExtractAudio {
			args = append(args,
				"--extract-audio",
				"--audio-format", strat.AudioCodec,
				"--audio-quality", strat.AudioQuality,
			)
		}
	} else {
		args = append(args, "-J")
	}

	if ua, ok := strat.Headers["User-Agent"]; ok {
		args = append(args, "--user-agent", ua)
	}
	for name, value := range strat.Headers {
		if name == "User-Agent" {
			continue
		}

		args = append(args, "--add-headers", name+":"+value)
	}

	if seconds := int(strat.AttemptTimeout.Seconds()); seconds > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(seconds))
	}

	if hintArg := buildExtractorArgs(strat.Hints); hintArg != "" {
		args = append(args, "--extractor-args", hintArg)
	}

	return args
}

func buildExtractorArgs(hints strategy.ExtractorHints) string {
	parts := make([]string, 0, 3)
	if len(hints.PlayerClients) > 0 {
		parts = append(parts, "player_client="+strings.Join(hints.PlayerClients, ","))
	}
	if len(hints.SkipProtocols) > 0 {
		parts = append(parts, "skip="+strings.Join(hints.SkipProtocols, ","))
	}
	if hints.AuxiliaryToken != "" {
		parts = append(parts, "po_token=web.gvs+"+hints.AuxiliaryToken)
	}

	if len(parts) == 0 {
		return ""
	}

	return "youtube:" + strings.Join(parts, ";")
}

// classify buckets an engine failure by sniffing its stderr. The engine
// offers no structured error channel, so substring matching against its
// known message shapes is the only classification signal available.
func classify(ctx context.Context, err error, stderr string) error {
	detail := strings.TrimSpace(stderr)
	if detail == "" {
		detail = err.Error()
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TransientError{Reason: "engine invocation exceeded the attempt timeout"}
	}

	lowered := strings.ToLower(detail)
	switch {
	case containsAny(lowered, "429", "too many requests", "rate-limit", "rate limit", "timed out", "timeout", "connection reset", "connection refused", "temporary failure", "network is unreachable", "unable to download webpage"):
		return &TransientError{Reason: detail}
	case containsAny(lowered, "sign in to confirm", "login required", "requires authentication", "age-restricted", "age restricted", "not available in your country", "geo restricted", "geo-restricted", "private video", "members-only", "join this channel"):
		return &RestrictedError{Reason: detail}
	case containsAny(lowered, "404", "video unavailable", "does not exist", "has been removed", "no longer available", "not a valid url", "unsupported url", "is not a valid url", "requested format is not available"):
		return &NotFoundError{Reason: detail}
	}

	return &UnknownError{Reason: detail}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}

	return false
}
