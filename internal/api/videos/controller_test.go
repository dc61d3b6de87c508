package videos_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/Grabbr/internal/api/videos"
	"github.com/hbomb79/Grabbr/internal/extract"
	"github.com/hbomb79/Grabbr/internal/strategy"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockService records resolution requests and replays a canned
// outcome or error.
type mockService struct {
	requests []strategy.Request
	outcome  *extract.Outcome
	err      error
}

func (mock *mockService) Resolve(_ context.Context, request strategy.Request) (*extract.Outcome, error) {
	mock.requests = append(mock.requests, request)
	return mock.outcome, mock.err
}

func newServer(service videos.Service) *echo.Echo {
	ec := echo.New()
	controller := videos.New(validator.New(), service)
	controller.SetRoutes(ec.Group(""))
	return ec
}

func performRequest(ec *echo.Echo, method, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	ec.ServeHTTP(rec, req)
	return rec
}

func successfulOutcome() *extract.Outcome {
	return &extract.Outcome{
		Title:        "Test Video",
		Duration:     125,
		Thumbnail:    "https://example.com/thumb.jpg",
		Uploader:     "uploader",
		ViewCount:    1000,
		CanonicalURL: "https://example.com/watch?v=abc123",
		Formats: []extract.PublicFormat{
			{FormatID: "18", Ext: "mp4", Resolution: "640x360"},
			{FormatID: "22", Ext: "mp4", Resolution: "1280x720"},
		},
	}
}

func Test_Info_MissingURLRejectedWithoutResolution(t *testing.T) {
	t.Parallel()
	mock := &mockService{}
	rec := performRequest(newServer(mock), http.MethodGet, "/info", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, mock.requests)
}

func Test_Info_SuccessProjectsOutcome(t *testing.T) {
	t.Parallel()
	mock := &mockService{outcome: successfulOutcome()}
	rec := performRequest(newServer(mock), http.MethodGet, "/info?url=https%3A%2F%2Fexample.com%2Fwatch%3Fv%3Dabc123", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mock.requests, 1)
	assert.Equal(t, strategy.KindInfo, mock.requests[0].Kind)
	assert.Equal(t, "https://example.com/watch?v=abc123", mock.requests[0].URL)

	var dto videos.InfoDto
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "Test Video", dto.Title)
	assert.Equal(t, 125, dto.Duration)
	assert.Len(t, dto.Formats, 2)
}

func Test_Download_MalformedBodyRejectedWithoutResolution(t *testing.T) {
	t.Parallel()
	mock := &mockService{}
	server := newServer(mock)

	rec := performRequest(server, http.MethodPost, "/download", `{"audio_only": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = performRequest(server, http.MethodPost, "/download", `this is not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, mock.requests)
}

func Test_Download_SuccessReturnsPublicFilename(t *testing.T) {
	t.Parallel()
	outcome := successfulOutcome()
	outcome.PublicFilename = "c0ffee_Test_Video.mp4"
	mock := &mockService{outcome: outcome}

	rec := performRequest(newServer(mock), http.MethodPost, "/download", `{"url": "https://example.com/watch?v=abc123", "audio_only": true, "format": "best"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, mock.requests, 1)
	assert.Equal(t, strategy.KindDownload, mock.requests[0].Kind)
	assert.True(t, mock.requests[0].AudioOnly)
	assert.Equal(t, "best", mock.requests[0].FormatSelector)

	var dto videos.DownloadDto
	require.Nil(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "Download successful", dto.Message)
	assert.Equal(t, "c0ffee_Test_Video.mp4", dto.Filename)
	assert.Equal(t, "Test Video", dto.Title)
}

func Test_TaxonomyErrorsMapToTransportCodes(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		err      error
		method   string
		target   string
		body     string
		expected int
	}{
		{"playlist info", &extract.PlaylistError{}, http.MethodGet, "/info?url=u", "", http.StatusBadRequest},
		{"playlist download", &extract.PlaylistError{}, http.MethodPost, "/download", `{"url":"u"}`, http.StatusBadRequest},
		{"transient exhausted", &extract.TransientFailureError{Detail: "timeout", Attempts: 8}, http.MethodGet, "/info?url=u", "", http.StatusBadGateway},
		{"no formats info", &extract.NoUsableFormatsError{Attempts: 2}, http.MethodGet, "/info?url=u", "", http.StatusNotFound},
		{"no formats download", &extract.NoUsableFormatsError{Attempts: 2}, http.MethodPost, "/download", `{"url":"u"}`, http.StatusBadRequest},
		{"restricted", &extract.AccessRestrictedError{Detail: "age gate"}, http.MethodGet, "/info?url=u", "", http.StatusBadGateway},
		{"missing output", &extract.MissingOutputError{Path: "x"}, http.MethodPost, "/download", `{"url":"u"}`, http.StatusInternalServerError},
		{"unclassified", &extract.UnclassifiedError{Detail: "boom"}, http.MethodGet, "/info?url=u", "", http.StatusInternalServerError},
	}

	for _, testCase := range cases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			mock := &mockService{err: testCase.err}
			rec := performRequest(newServer(mock), testCase.method, testCase.target, testCase.body)
			assert.Equal(t, testCase.expected, rec.Code)
		})
	}
}

func Test_NoFormatsAdvisoryMentionsToken(t *testing.T) {
	t.Parallel()
	mock := &mockService{err: &extract.NoUsableFormatsError{Attempts: 2, Advise: true}}
	rec := performRequest(newServer(mock), http.MethodGet, "/info?url=u", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "auxiliary access token")
}
