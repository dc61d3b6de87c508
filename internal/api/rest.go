package api

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Grabbr/internal/api/videos"
	"github.com/hbomb79/Grabbr/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var log = logger.Get("API")

type (
	RestConfig struct {
		HostAddr string `yaml:"host_address" env:"API_HOST_ADDR" env-default:"0.0.0.0:8080"`
	}

	controller interface {
		SetRoutes(*echo.Group)
	}

	// The RestGateway is a thin wrapper around the Echo HTTP router.
	// Its sole responsibility is to create the routes this service
	// exposes and to serve staged downloads back to callers.
	RestGateway struct {
		config          *RestConfig
		ec              *echo.Echo
		videoController controller
	}
)

// NewRestGateway constructs the Echo router and populates it with the
// routes defined by the videos controller, plus a static route rooted
// at the downloads directory so finalized files can be fetched by
// their public filename.
func NewRestGateway(config *RestConfig, videoService videos.Service, downloadDir string) *RestGateway {
	ec := echo.New()
	ec.OnAddRouteHandler = func(host string, route echo.Route, handler echo.HandlerFunc, middleware []echo.MiddlewareFunc) {
		log.Emit(logger.DEBUG, "Registered new route %s %s\n", route.Method, route.Path)
	}
	ec.HidePort = true
	ec.HideBanner = true

	gateway := &RestGateway{
		config:          config,
		ec:              ec,
		videoController: videos.New(validator.New(), videoService),
	}

	ec.Use(middleware.Logger())
	ec.Use(middleware.Recover())
	ec.Use(middleware.CORS())
	ec.Pre(middleware.RemoveTrailingSlash())

	gateway.videoController.SetRoutes(ec.Group(""))
	ec.Static("/downloads", downloadDir)

	return gateway
}

// Run starts the router and blocks until the provided context is
// cancelled, at which point the underlying HTTP server is shut down
// gracefully.
func (gateway *RestGateway) Run(parentCtx context.Context) error {
	ctx, ctxCancel := context.WithCancelCause(parentCtx)
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Emit(logger.NEW, "Starting HTTP router on %s\n", gateway.config.HostAddr)
		if err := gateway.ec.Start(gateway.config.HostAddr); err != nil {
			ctxCancel(err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*10)
	defer shutdownCancel()
	if err := gateway.ec.Shutdown(shutdownCtx); err != nil {
		log.Emit(logger.ERROR, "Failed to gracefully shutdown HTTP router: %s\n", err.Error())
	}

	wg.Wait()
	if cause := context.Cause(ctx); cause != nil && cause != parentCtx.Err() {
		return cause
	}

	return nil
}
