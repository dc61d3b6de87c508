package engine

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hbomb79/Grabbr/internal/strategy"
	"github.com/stretchr/testify/assert"
)

func Test_Classify_BucketsKnownStderrShapes(t *testing.T) {
	t.Parallel()
	exitErr := errors.New("exit status 1")
	cases := []struct {
		stderr   string
		expected error
	}{
		{"ERROR: HTTP Error 429: Too Many Requests", &TransientError{}},
		{"ERROR: unable to download webpage (connection reset by peer)", &TransientError{}},
		{"ERROR: [youtube] abc: Sign in to confirm you're not a bot", &RestrictedError{}},
		{"ERROR: Private video. Sign in if you've been granted access", &RestrictedError{}},
		{"ERROR: This video is not available in your country", &RestrictedError{}},
		{"ERROR: Video unavailable", &NotFoundError{}},
		{"ERROR: Unsupported URL: https://example.com", &NotFoundError{}},
		{"ERROR: something truly novel happened", &UnknownError{}},
	}

	for _, testCase := range cases {
		classified := classify(context.Background(), exitErr, testCase.stderr)
		assert.IsTypef(t, testCase.expected, classified, "stderr %q", testCase.stderr)
	}
}

func Test_Classify_DeadlineExceededIsTransient(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	classified := classify(ctx, errors.New("signal: killed"), "")
	assert.IsType(t, &TransientError{}, classified)
}

func Test_BuildArgs_InfoRequestsDumpJSONWithoutDownloading(t *testing.T) {
	t.Parallel()
	args := buildArgs(strategy.Strategy{AttemptTimeout: time.Second * 15})

	assert.Contains(t, args, "-J")
	assert.Contains(t, args, "--no-playlist")
	assert.NotContains(t, args, "--print-json")
	assert.NotContains(t, args, "-o")
}

func Test_BuildArgs_DownloadRequestsCarryTemplateAndSelector(t *testing.T) {
	t.Parallel()
	args := buildArgs(strategy.Strategy{
		Download:       true,
		FormatSelector: "bestvideo+bestaudio/best",
		OutputTemplate: "downloads/uuid_%(title)s.%(ext)s",
		AttemptTimeout: time.Second * 30,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "-f bestvideo+bestaudio/best")
	assert.Contains(t, joined, "-o downloads/uuid_%(title)s.%(ext)s")
	assert.Contains(t, args, "--print-json")
	assert.Contains(t, args, "--restrict-filenames")
	assert.NotContains(t, args, "--extract-audio")
}

func Test_BuildArgs_AudioDirectiveTranslatesToPostProcessorFlags(t *testing.T) {
	t.Parallel()
	args := buildArgs(strategy.Strategy{
		Download:       true,
		FormatSelector: "bestaudio/best",
		OutputTemplate: "downloads/uuid_%(title)s.%(ext)s",
		ExtractAudio:   true,
		AudioCodec:     "mp3",
		AudioQuality:   "192K",
		AttemptTimeout: time.Second * 30,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--extract-audio")
	assert.Contains(t, joined, "--audio-format mp3")
	assert.Contains(t, joined, "--audio-quality 192K")
}

func Test_BuildArgs_IdentityHeadersAndHintsAreForwarded(t *testing.T) {
	t.Parallel()
	args := buildArgs(strategy.Strategy{
		Headers: map[string]string{
			"User-Agent":      "test-agent",
			"Accept-Language": "en-US",
		},
		Hints: strategy.ExtractorHints{
			PlayerClients:  []string{"web", "android"},
			SkipProtocols:  []string{"hls", "dash"},
			AuxiliaryToken: "tok",
		},
		AttemptTimeout: time.Second * 15,
	})

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--user-agent test-agent")
	assert.Contains(t, joined, "--add-headers Accept-Language:en-US")
	assert.Contains(t, joined, "player_client=web,android")
	assert.Contains(t, joined, "skip=hls,dash")
	assert.Contains(t, joined, "po_token=web.gvs+tok")
	assert.Contains(t, joined, "--socket-timeout 15")
}

func Test_BuildArgs_NoTokenMeansNoTokenHint(t *testing.T) {
	t.Parallel()
	args := buildArgs(strategy.Strategy{
		Hints:          strategy.ExtractorHints{SkipProtocols: []string{"hls"}},
		AttemptTimeout: time.Second * 15,
	})

	assert.NotContains(t, strings.Join(args, " "), "po_token")
}

func Test_IsPlaylist_DetectsCollectionShapes(t *testing.T) {
	t.Parallel()
	assert.True(t, (&Result{Type: "playlist"}).IsPlaylist())
	assert.True(t, (&Result{Entries: make([]json.RawMessage, 2)}).IsPlaylist())
	assert.False(t, (&Result{Title: "single video"}).IsPlaylist())
}
