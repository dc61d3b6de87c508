// Package strategy describes a single engine invocation: which formats to
// ask for, what identity to present, how long to wait, and which
// extractor hints to attach. A Strategy is built fresh for every attempt
// and never mutated afterwards.
package strategy

import (
	"time"
)

type RequestKind int

const (
	KindInfo RequestKind = iota
	KindDownload
)

// Request captures what the caller asked for, independent of how the
// orchestrator chooses to satisfy it.
type Request struct {
	URL            string
	AudioOnly      bool
	FormatSelector string
	Kind           RequestKind
}

// Tier is the fallback level a strategy is built for. The orchestrator
// starts every request at TierPlain and may escalate to TierAugmented
// at most once.
type Tier int

const (
	TierPlain Tier = iota
	TierAugmented
)

func (tier Tier) String() string {
	if tier == TierAugmented {
		return "augmented"
	}

	return "plain"
}

// ExtractorHints bias the engine towards formats this service can
// actually use. PlayerClients restricts which playback clients the
// engine may impersonate, SkipProtocols suppresses delivery protocols
// known to produce unusable records, and AuxiliaryToken (when present)
// unlocks formats the platform withholds from anonymous clients.
type ExtractorHints struct {
	PlayerClients  []string
	SkipProtocols  []string
	AuxiliaryToken string
}

// Strategy is the immutable options descriptor for one engine attempt.
type Strategy struct {
	Headers        map[string]string
	FormatSelector string
	AttemptTimeout time.Duration
	MaxRetries     int
	Backoff        func(attempt int) time.Duration
	Hints          ExtractorHints
	OutputTemplate string
	UniqueToken    string
	Download       bool

	// Audio post-processing directive, honoured by the engine after the
	// media file has been written.
	ExtractAudio bool
	AudioCodec   string
	AudioQuality string
}

const (
	maxRetries      = 3
	infoTimeout     = time.Second * 15
	downloadTimeout = time.Second * 30

	backoffCap = time.Second * 10

	audioCodec   = "mp3"
	audioQuality = "192K"

	defaultSelector         = "best"
	defaultDownloadSelector = "bestvideo+bestaudio/best"
	audioSelector           = "bestaudio/best"
)

// skippedProtocols are suppressed on every strategy. Adaptive-streaming
// manifests yield records without a directly retrievable locator, and
// auto-translated caption tracks inflate the format list with entries
// that are never downloadable media.
var skippedProtocols = []string{"hls", "dash", "translated_subs"}

// playerClients restricts the engine to playback clients that reliably
// expose progressive formats.
var playerClients = []string{"web", "android"}

// ExponentialBackoff is the retry delay policy shared by every
// strategy: 1s, 2s, 4s, 8s, then capped at 10s.
func ExponentialBackoff(attempt int) time.Duration {
	if attempt >= 4 {
		return backoffCap
	}

	delay := time.Duration(1<<uint(attempt)) * time.Second
	if delay > backoffCap {
		return backoffCap
	}

	return delay
}
