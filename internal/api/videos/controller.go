package videos

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Grabbr/internal/extract"
	"github.com/hbomb79/Grabbr/internal/strategy"
	"github.com/labstack/echo/v4"
)

type (
	// InfoDto is the response shape for the info endpoint.
	InfoDto struct {
		Title     string                 `json:"title"`
		Duration  int                    `json:"duration"`
		Thumbnail string                 `json:"thumbnail"`
		Uploader  string                 `json:"uploader,omitempty"`
		ViewCount int64                  `json:"view_count,omitempty"`
		URL       string                 `json:"webpage_url"`
		Formats   []extract.PublicFormat `json:"formats"`
		Warnings  []string               `json:"warnings,omitempty"`
	}

	DownloadRequest struct {
		URL       string `json:"url" validate:"required"`
		Format    string `json:"format"`
		AudioOnly bool   `json:"audio_only"`
	}

	DownloadDto struct {
		Message   string `json:"message"`
		Filename  string `json:"filename"`
		Title     string `json:"title"`
		Duration  int    `json:"duration"`
		Thumbnail string `json:"thumbnail"`
	}

	Service interface {
		Resolve(ctx context.Context, request strategy.Request) (*extract.Outcome, error)
	}

	// Controller defines the routes for the two resolution operations
	// and translates taxonomy errors in to transport status codes.
	Controller struct {
		service  Service
		validate *validator.Validate
	}
)

func New(validate *validator.Validate, service Service) *Controller {
	return &Controller{service: service, validate: validate}
}

func (controller *Controller) SetRoutes(eg *echo.Group) {
	eg.GET("/info", controller.info)
	eg.POST("/download", controller.download)
}

func (controller *Controller) info(ec echo.Context) error {
	url := ec.QueryParam("url")
	if url == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No URL provided")
	}

	outcome, err := controller.service.Resolve(ec.Request().Context(), strategy.Request{
		URL:  url,
		Kind: strategy.KindInfo,
	})
	if err != nil {
		return mapTaxonomyError(err, strategy.KindInfo)
	}

	return ec.JSON(http.StatusOK, NewInfoDto(outcome))
}

func (controller *Controller) download(ec echo.Context) error {
	var request DownloadRequest
	if err := ec.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	if err := controller.validate.Struct(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid body: %s", err.Error()))
	}

	outcome, err := controller.service.Resolve(ec.Request().Context(), strategy.Request{
		URL:            request.URL,
		AudioOnly:      request.AudioOnly,
		FormatSelector: request.Format,
		Kind:           strategy.KindDownload,
	})
	if err != nil {
		return mapTaxonomyError(err, strategy.KindDownload)
	}

	return ec.JSON(http.StatusOK, DownloadDto{
		Message:   "Download successful",
		Filename:  outcome.PublicFilename,
		Title:     outcome.Title,
		Duration:  outcome.Duration,
		Thumbnail: outcome.Thumbnail,
	})
}

func NewInfoDto(outcome *extract.Outcome) *InfoDto {
	return &InfoDto{
		Title:     outcome.Title,
		Duration:  outcome.Duration,
		Thumbnail: outcome.Thumbnail,
		Uploader:  outcome.Uploader,
		ViewCount: outcome.ViewCount,
		URL:       outcome.CanonicalURL,
		Formats:   outcome.Formats,
		Warnings:  outcome.Warnings,
	}
}

const tokenAdvisory = "No retrievable formats were found; configuring an auxiliary access token may unlock additional formats"

// mapTaxonomyError translates an orchestration failure in to the HTTP
// status the taxonomy prescribes. The caller-visible message never
// includes strategy internals, but does pass through the engine's own
// error string where the taxonomy allows it.
func mapTaxonomyError(err error, kind strategy.RequestKind) *echo.HTTPError {
	var invalid *extract.InvalidRequestError
	if errors.As(err, &invalid) {
		return echo.NewHTTPError(http.StatusBadRequest, invalid.Error())
	}

	var playlist *extract.PlaylistError
	if errors.As(err, &playlist) {
		return echo.NewHTTPError(http.StatusBadRequest, playlist.Error())
	}

	var transient *extract.TransientFailureError
	if errors.As(err, &transient) {
		return echo.NewHTTPError(http.StatusBadGateway, transient.Error())
	}

	var noFormats *extract.NoUsableFormatsError
	if errors.As(err, &noFormats) {
		status := http.StatusNotFound
		if kind == strategy.KindDownload {
			status = http.StatusBadRequest
		}

		message := noFormats.Error()
		if noFormats.Advise {
			message = tokenAdvisory
		}

		return echo.NewHTTPError(status, message)
	}

	var restricted *extract.AccessRestrictedError
	if errors.As(err, &restricted) {
		return echo.NewHTTPError(http.StatusBadGateway, restricted.Error())
	}

	var missing *extract.MissingOutputError
	if errors.As(err, &missing) {
		return echo.NewHTTPError(http.StatusInternalServerError, "Download completed but the output file could not be located")
	}

	return echo.NewHTTPError(http.StatusInternalServerError, "An unexpected error occurred")
}
