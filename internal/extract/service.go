// Package extract owns the resilient extraction orchestration for this
// service: which strategy to attempt, when to retry, when to escalate,
// and how every failure is classified before it reaches a caller.
//
// Two axes are kept strictly separate. The *retry* axis re-attempts the
// same tier after a transient engine fault, with bounded exponential
// backoff and a freshly drawn identity each time. The *escalation* axis
// switches from the plain tier to the augmented tier when the plain one
// is structurally insufficient, and happens at most once per request. A
// request that fails augmented extraction is genuinely unresolvable,
// not transiently unlucky.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/hbomb79/Grabbr/internal/engine"
	"github.com/hbomb79/Grabbr/internal/strategy"
	"github.com/hbomb79/Grabbr/pkg/logger"
)

var log = logger.Get("Extractor")

type (
	// Engine is the narrow interface to the external extraction engine.
	// Errors returned by Extract are expected to be the engine
	// package's classified error types.
	Engine interface {
		Extract(ctx context.Context, url string, strat strategy.Strategy) (*engine.Result, error)
	}

	// StrategyBuilder produces a frozen strategy per attempt.
	// Escalatable reports whether the augmented tier differs from the
	// plain tier at all.
	StrategyBuilder interface {
		Build(request strategy.Request, tier strategy.Tier) strategy.Strategy
		Escalatable() bool
	}

	// Prober verifies a finalized download and reports its duration.
	Prober interface {
		Probe(path string) (float64, error)
	}

	// Outcome is the result of a successful resolution.
	Outcome struct {
		Title                 string
		Duration              int
		Thumbnail             string
		Uploader              string
		ViewCount             int64
		CanonicalURL          string
		Formats               []PublicFormat
		UsedEscalatedStrategy bool
		Warnings              []string
		DownloadedFilePath    string
		PublicFilename        string
	}

	Service struct {
		builder   StrategyBuilder
		engine    Engine
		finalizer *Finalizer
		prober    Prober

		// sleep suspends only the calling request's goroutine, and
		// aborts early if the request context is cancelled.
		sleep func(ctx context.Context, delay time.Duration) error
	}
)

func New(builder StrategyBuilder, eng Engine, finalizer *Finalizer, prober Prober) *Service {
	return &Service{
		builder:   builder,
		engine:    eng,
		finalizer: finalizer,
		prober:    prober,
		sleep:     contextSleep,
	}
}

// Resolve runs the full retry/escalation state machine for a request
// and produces either an Outcome or one of this package's taxonomy
// errors. The provided context bounds the whole resolution; a
// cancelled context aborts the in-flight engine attempt.
func (service *Service) Resolve(ctx context.Context, request strategy.Request) (*Outcome, error) {
	if strings.TrimSpace(request.URL) == "" {
		return nil, &InvalidRequestError{Reason: "no URL provided"}
	}

	var tierErrs *multierror.Error
	totalAttempts := 0

	for _, tier := range []strategy.Tier{strategy.TierPlain, strategy.TierAugmented} {
		result, strat, attempts, err := service.resolveTier(ctx, request, tier)
		totalAttempts += attempts

		if err != nil {
			var transient *TransientFailureError
			if !errors.As(err, &transient) {
				service.logTerminal(request.URL, totalAttempts, err)
				return nil, err
			}

			tierErrs = multierror.Append(tierErrs, err)
			if tier == strategy.TierPlain {
				log.Emit(logger.WARNING, "Plain tier exhausted for %s, escalating once (escalatable=%v)\n", sanitizeURL(request.URL), service.builder.Escalatable())
				continue
			}

			terminal := &TransientFailureError{Detail: tierErrs.Error(), Attempts: totalAttempts}
			service.logTerminal(request.URL, totalAttempts, terminal)
			return nil, terminal
		}

		// Collections are terminal the moment they are detected; no
		// formats are resolved and no file is staged.
		if result.IsPlaylist() {
			terminal := &PlaylistError{URL: request.URL}
			service.logTerminal(request.URL, totalAttempts, terminal)
			return nil, terminal
		}

		outcome, err := service.buildOutcome(request, result, strat)
		if err != nil {
			var noFormats *NoUsableFormatsError
			if errors.As(err, &noFormats) && tier == strategy.TierPlain {
				log.Emit(logger.WARNING, "Plain tier yielded zero usable formats for %s, escalating once (escalatable=%v)\n", sanitizeURL(request.URL), service.builder.Escalatable())
				continue
			}

			if errors.As(err, &noFormats) {
				noFormats.Attempts = totalAttempts
				noFormats.Advise = !service.builder.Escalatable()
			}

			service.logTerminal(request.URL, totalAttempts, err)
			return nil, err
		}

		outcome.UsedEscalatedStrategy = tier == strategy.TierAugmented && service.builder.Escalatable()
		if outcome.UsedEscalatedStrategy {
			outcome.Warnings = append(outcome.Warnings, "resolution succeeded only after escalating to the configured auxiliary access token")
		}

		log.Emit(logger.SUCCESS, "Resolved %s in %d attempt(s) (tier=%s)\n", sanitizeURL(request.URL), totalAttempts, tier)
		return outcome, nil
	}

	// Unreachable: the augmented tier always terminates above.
	terminal := &UnclassifiedError{Detail: "resolution terminated without an outcome", Attempts: totalAttempts}
	service.logTerminal(request.URL, totalAttempts, terminal)
	return nil, terminal
}

// resolveTier runs the bounded retry loop for a single tier. Only
// transient engine failures are retried; anything else is mapped to its
// taxonomy error and returned immediately. Each attempt is made with a
// freshly built strategy so the identity headers differ between
// attempts while remaining frozen within one.
func (service *Service) resolveTier(ctx context.Context, request strategy.Request, tier strategy.Tier) (*engine.Result, strategy.Strategy, int, error) {
	var attemptErrs *multierror.Error

	strat := service.builder.Build(request, tier)
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			strat = service.builder.Build(request, tier)
		}

		result, err := service.engine.Extract(ctx, request.URL, strat)
		if err == nil {
			return result, strat, attempt + 1, nil
		}

		var transient *engine.TransientError
		if !errors.As(err, &transient) {
			return nil, strat, attempt + 1, mapEngineError(err, attempt+1)
		}

		attemptErrs = multierror.Append(attemptErrs, err)
		if attempt >= strat.MaxRetries {
			return nil, strat, attempt + 1, &TransientFailureError{Detail: attemptErrs.Error(), Attempts: attempt + 1}
		}

		delay := strat.Backoff(attempt)
		log.Emit(logger.DEBUG, "Transient engine failure on attempt %d (tier=%s), retrying in %s\n", attempt+1, tier, delay)
		if err := service.sleep(ctx, delay); err != nil {
			return nil, strat, attempt + 1, &TransientFailureError{Detail: fmt.Sprintf("retry wait aborted: %s", err.Error()), Attempts: attempt + 1}
		}
	}
}

// buildOutcome converts a non-playlist engine result in to the public
// outcome shape, running format filtering and (for downloads) the
// finalizer and post-download probe.
func (service *Service) buildOutcome(request strategy.Request, result *engine.Result, strat strategy.Strategy) (*Outcome, error) {
	outcome := &Outcome{
		Title:        result.Title,
		Duration:     int(result.Duration),
		Thumbnail:    result.Thumbnail,
		Uploader:     result.Uploader,
		ViewCount:    result.ViewCount,
		CanonicalURL: result.WebpageURL,
		Formats:      FilterFormats(result.Formats),
	}

	if request.Kind == strategy.KindInfo {
		if len(outcome.Formats) == 0 {
			return nil, &NoUsableFormatsError{}
		}

		if dropped := len(result.Formats) - len(outcome.Formats); dropped > 0 {
			outcome.Warnings = append(outcome.Warnings, fmt.Sprintf("%d format(s) reported by the engine were not retrievable and have been omitted", dropped))
		}

		return outcome, nil
	}

	diskPath, publicName, err := service.finalizer.Finalize(result, strat)
	if err != nil {
		return nil, err
	}

	outcome.DownloadedFilePath = diskPath
	outcome.PublicFilename = publicName

	if duration, err := service.prober.Probe(diskPath); err != nil {
		log.Emit(logger.WARNING, "Downloaded file %s failed ffprobe verification: %s\n", publicName, err.Error())
		outcome.Warnings = append(outcome.Warnings, "downloaded file could not be verified by ffprobe")
	} else if outcome.Duration == 0 {
		outcome.Duration = int(duration)
	}

	return outcome, nil
}

// mapEngineError lifts a classified engine error in to the service
// taxonomy. Transient errors never reach here; they are consumed by the
// retry loop.
func mapEngineError(err error, attempts int) error {
	var restricted *engine.RestrictedError
	if errors.As(err, &restricted) {
		return &AccessRestrictedError{Detail: restricted.Reason, Attempts: attempts}
	}

	var notFound *engine.NotFoundError
	if errors.As(err, &notFound) {
		return &NoUsableFormatsError{Detail: notFound.Reason, Attempts: attempts}
	}

	return &UnclassifiedError{Detail: err.Error(), Attempts: attempts}
}

func (service *Service) logTerminal(rawURL string, attempts int, err error) {
	log.Emit(logger.ERROR, "Resolution of %s failed terminally after %d attempt(s): %s\n", sanitizeURL(rawURL), attempts, err.Error())
}

// sensitiveParams are stripped from URLs before they are logged.
var sensitiveParams = []string{"token", "key", "api_key", "apikey", "auth", "signature", "sig", "session"}

func sanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	for _, param := range sensitiveParams {
		if query.Has(param) {
			query.Set(param, "REDACTED")
		}
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func contextSleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
