// Package transport implements the client side of the DepViz analysis
// service: it uploads a packaged source archive and resolves to a GraphData
// payload or a reported failure.
//
// The service owns graph construction and cycle detection; this package only
// moves bytes and decodes the result. Transient failures (network errors,
// 5xx responses) retry with backoff; every other failure surfaces exactly one
// user-visible message, preferring the server's detail field.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/errors"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/graphdata"
	"github.com/vinay-asish/Code-Dependency-Visualizer/pkg/httputil"
)

const (
	// analyzePath is the upload endpoint on the analysis server.
	analyzePath = "/api/analyze"

	// uploadField is the multipart form field carrying the archive.
	uploadField = "file"

	// httpTimeout bounds one upload round trip, archive transfer included.
	httpTimeout = 60 * time.Second
)

// GenericFailureMessage is shown when the server reports a failure without a
// detail string.
const GenericFailureMessage = "analysis failed"

// apiError is the structured failure payload of the analysis server.
type apiError struct {
	Detail string `json:"detail"`
}

// Client uploads source archives to the analysis service.
type Client struct {
	http    *http.Client
	baseURL string
	cache   *httputil.Cache
}

// NewClient creates a client for the analysis server at baseURL.
// Pass a nil cache to disable response caching; a non-nil cache is scoped to
// an "analyze:" namespace so analysis responses never collide with other
// entries sharing the directory.
func NewClient(baseURL string, cache *httputil.Cache) *Client {
	if cache != nil {
		cache = cache.Namespace("analyze:")
	}
	return &Client{
		http:    &http.Client{Timeout: httpTimeout},
		baseURL: baseURL,
		cache:   cache,
	}
}

// Analyze uploads the zip archive and returns the decoded analysis result,
// consulting the response cache first. The cache key is derived from the
// archive content, so identical uploads resolve without a round trip.
// If refresh is true the cache is bypassed.
func (c *Client) Analyze(ctx context.Context, archive []byte, refresh bool) (graphdata.GraphData, error) {
	key := httputil.HashBytes(archive)

	var g graphdata.GraphData
	if c.cache != nil && !refresh {
		if ok, _ := c.cache.Get(key, &g); ok {
			return g, nil
		}
	}

	g, err := c.Upload(ctx, archive)
	if err != nil {
		return graphdata.GraphData{}, err
	}
	if c.cache != nil {
		_ = c.cache.Set(key, g)
	}
	return g, nil
}

// Upload posts the archive as a multipart request and decodes the response.
// It retries transient failures with backoff; the server's detail string, if
// present, becomes the error message.
func (c *Client) Upload(ctx context.Context, archive []byte) (graphdata.GraphData, error) {
	var g graphdata.GraphData
	err := httputil.RetryWithBackoff(ctx, func() error {
		res, err := c.doUpload(ctx, archive)
		if err != nil {
			return err
		}
		g = res
		return nil
	})
	if err != nil {
		return graphdata.GraphData{}, err
	}
	return g, nil
}

func (c *Client) doUpload(ctx context.Context, archive []byte) (graphdata.GraphData, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadField, "upload.zip")
	if err != nil {
		return graphdata.GraphData{}, errors.Wrap(errors.ErrCodeInternal, err, "build multipart body")
	}
	if _, err := part.Write(archive); err != nil {
		return graphdata.GraphData{}, errors.Wrap(errors.ErrCodeInternal, err, "write archive part")
	}
	if err := mw.Close(); err != nil {
		return graphdata.GraphData{}, errors.Wrap(errors.ErrCodeInternal, err, "finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, &body)
	if err != nil {
		return graphdata.GraphData{}, errors.Wrap(errors.ErrCodeInternal, err, "build request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return graphdata.GraphData{}, &httputil.RetryableError{
			Err: errors.Wrap(errors.ErrCodeTransport, err, "upload failed"),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return graphdata.GraphData{}, &httputil.RetryableError{
			Err: errors.New(errors.ErrCodeTransport, "%s", failureMessage(resp.Body)),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return graphdata.GraphData{}, errors.New(errors.ErrCodeTransport, "%s", failureMessage(resp.Body))
	}

	g, err := graphdata.Read(resp.Body)
	if err != nil {
		return graphdata.GraphData{}, errors.Wrap(errors.ErrCodeTransport, err, "decode analysis response")
	}
	return g, nil
}

// failureMessage extracts the server's detail string from a failure payload,
// falling back to the generic message when absent or undecodable.
func failureMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 1<<16))
	if err != nil {
		return GenericFailureMessage
	}
	var payload apiError
	if err := json.Unmarshal(data, &payload); err != nil || payload.Detail == "" {
		return GenericFailureMessage
	}
	return payload.Detail
}

// BaseURL returns the configured analysis server address.
func (c *Client) BaseURL() string { return c.baseURL }
