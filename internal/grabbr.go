// Package internal wires the resolution service together: identity
// rotation, strategy building, the extraction orchestrator, the engine
// adapter and the REST gateway.
package internal

import (
	"context"

	"github.com/hbomb79/Grabbr/internal/api"
	"github.com/hbomb79/Grabbr/internal/engine"
	"github.com/hbomb79/Grabbr/internal/extract"
	"github.com/hbomb79/Grabbr/internal/ffmpeg"
	"github.com/hbomb79/Grabbr/internal/identity"
	"github.com/hbomb79/Grabbr/internal/strategy"
	"github.com/hbomb79/Grabbr/pkg/logger"
)

var log = logger.Get("Core")

type grabbr struct {
	config      GrabbrConfig
	restGateway *api.RestGateway
}

// New constructs the service graph from the provided configuration.
// The downloads directory is created if it does not yet exist.
func New(config GrabbrConfig) (*grabbr, error) {
	if err := config.EnsureDownloadDir(); err != nil {
		return nil, err
	}

	rotator := identity.NewRotator()
	builder := strategy.NewBuilder(rotator, config.AuxToken, config.DownloadDir)
	prober := ffmpeg.NewProber(config.FfprobeBinPath)
	finalizer := extract.NewFinalizer(config.DownloadDir)
	extractService := extract.New(builder, engine.New(config.Engine), finalizer, prober)

	if config.AuxToken == "" {
		log.Emit(logger.WARNING, "No auxiliary access token configured; the augmented extraction tier will behave identically to the plain tier\n")
	}

	return &grabbr{
		config:      config,
		restGateway: api.NewRestGateway(&config.Api, extractService, config.DownloadDir),
	}, nil
}

// Run starts the REST gateway and blocks until the provided context is
// cancelled or the gateway fails.
func (grabbr *grabbr) Run(ctx context.Context) error {
	log.Emit(logger.NEW, "Grabbr starting (downloads staged in %s)\n", grabbr.config.DownloadDir)
	return grabbr.restGateway.Run(ctx)
}
