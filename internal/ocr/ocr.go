// Package ocr provides the OCR collaborator: a single Predict(image) call
// whose backend is chosen once at process start from OCR_BACKEND.
package ocr

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Backend names the supported OCR engines.
type Backend string

const (
	BackendPaddle   Backend = "paddle"
	BackendNanonets Backend = "nanonets"
	BackendDummy    Backend = "dummy"
)

const requestTimeout = 30 * time.Second

// OCR recognizes text inside an image. A timeout or non-2xx response is an
// ExternalCallError: callers treat it as recovered, logging it and leaving
// the image record's OCRText empty rather than failing the request.
type OCR interface {
	Predict(ctx context.Context, image []byte) (string, error)
}

// Config parameterizes the selected backend's HTTP endpoint.
type Config struct {
	Backend  Backend
	Endpoint string
	APIKey   string
}

// New selects and constructs the OCR backend named by cfg.Backend (or the
// OCR_BACKEND env var, at the call site's discretion — this constructor
// takes the resolved value directly so it can be unit tested without
// touching the environment).
func New(cfg Config) OCR {
	switch cfg.Backend {
	case BackendPaddle:
		return &httpOCR{name: "paddle", client: newClient(cfg)}
	case BackendNanonets:
		return &httpOCR{name: "nanonets", client: newClient(cfg)}
	default:
		return dummyOCR{}
	}
}

func newClient(cfg Config) *resty.Client {
	client := resty.New().SetTimeout(requestTimeout)
	if cfg.Endpoint != "" {
		client.SetBaseURL(cfg.Endpoint)
	}
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	return client
}

// dummyOCR returns empty text immediately. Used in tests and environments
// with no OCR backend configured.
type dummyOCR struct{}

func (dummyOCR) Predict(context.Context, []byte) (string, error) { return "", nil }

type ocrResponse struct {
	Text string `json:"text"`
}

// httpOCR posts the image to a configured inference endpoint and parses
// recognized text from the JSON response. paddle and nanonets share this
// same request/response shape in this deployment; only the base URL and
// credentials differ, so one implementation serves both.
type httpOCR struct {
	name   string
	client *resty.Client
}

func (h *httpOCR) Predict(ctx context.Context, image []byte) (string, error) {
	var result ocrResponse
	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"image": base64.StdEncoding.EncodeToString(image)}).
		ForceContentType("application/json").
		SetResult(&result).
		Post("/predict")
	if err != nil {
		return "", fmt.Errorf("ocr: %s predict: %w", h.name, err)
	}
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("ocr: %s predict: status %d", h.name, resp.StatusCode())
	}
	return result.Text, nil
}
