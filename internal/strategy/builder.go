package strategy

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hbomb79/Grabbr/internal/identity"
)

// Builder constructs strategies from process-wide configuration. The
// configuration it holds is read-only; all per-request state lives in
// the strategies it returns.
type Builder struct {
	rotator     *identity.Rotator
	auxToken    string
	downloadDir string
}

func NewBuilder(rotator *identity.Rotator, auxToken string, downloadDir string) *Builder {
	return &Builder{rotator: rotator, auxToken: auxToken, downloadDir: downloadDir}
}

// Escalatable reports whether the augmented tier differs from the plain
// tier at all. When no auxiliary token is configured the augmented tier
// degrades to a copy of the plain one, and callers should not expect a
// different result from escalating.
func (builder *Builder) Escalatable() bool {
	return builder.auxToken != ""
}

// Build produces a frozen strategy for one attempt of the given request
// at the given tier. Each call draws a fresh identity, so retrying
// callers get new headers by rebuilding rather than by mutation.
func (builder *Builder) Build(request Request, tier Tier) Strategy {
	id := builder.rotator.Draw()

	strat := Strategy{
		Headers: map[string]string{
			"User-Agent":      id.UserAgent,
			"Accept-Language": id.AcceptLanguage,
			"Referer":         id.Referer,
			"Origin":          id.Origin,
		},
		FormatSelector: defaultSelector,
		AttemptTimeout: infoTimeout,
		MaxRetries:     maxRetries,
		Backoff:        ExponentialBackoff,
		Hints: ExtractorHints{
			PlayerClients: playerClients,
			SkipProtocols: skippedProtocols,
		},
	}

	if tier == TierAugmented {
		strat.Hints.AuxiliaryToken = builder.auxToken
	}

	if request.Kind == KindDownload {
		token := uuid.New().String()

		strat.Download = true
		strat.AttemptTimeout = downloadTimeout
		strat.UniqueToken = token
		strat.OutputTemplate = filepath.Join(builder.downloadDir, token+"_%(title)s.%(ext)s")
		strat.FormatSelector = defaultDownloadSelector
		if request.FormatSelector != "" {
			strat.FormatSelector = request.FormatSelector
		}
	}

	if request.AudioOnly {
		strat.FormatSelector = audioSelector
		strat.ExtractAudio = true
		strat.AudioCodec = audioCodec
		strat.AudioQuality = audioQuality
	}

	return strat
}
