// Package markitdown provides a client for a Markitdown-style conversion
// service: a single synchronous call that turns an arbitrary office
// document or PDF into Markdown, used as the PDF parser's second-attempt
// fallback and the Word parser's first attempt.
package markitdown

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/kestrel-data/docreader/internal/clients/base"
	"github.com/kestrel-data/docreader/internal/config"
)

const serviceName = "markitdown"

// DefaultTimeout bounds a single conversion call. Markitdown-style
// services convert synchronously, unlike Doc2X/MinerU's poll loop.
const DefaultTimeout = 60 * time.Second

// Converter defines the conversion operation this client exposes.
type Converter interface {
	Convert(ctx context.Context, fileName string, data []byte) (ConvertResponse, error)
}

// Client wraps the shared HTTP client foundation with Markitdown's
// request/response shape.
type Client struct {
	httpClient *base.HTTPClient
}

var _ Converter = (*Client)(nil)

// NewClient constructs a Markitdown client against cfg.BaseURL.
func NewClient(cfg config.ServiceConfig) *Client {
	return &Client{httpClient: base.NewHTTPClient(serviceName, cfg, DefaultTimeout)}
}

type convertRequest struct {
	FileName string `json:"file_name"`
	Content  string `json:"content"` // base64
}

// ConvertResponse carries the resulting Markdown plus any images the
// service extracted alongside it, keyed by the path referenced from the
// Markdown content and base64-encoded in transit.
type ConvertResponse struct {
	Markdown string            `json:"markdown"`
	Images   map[string]string `json:"images"`
}

// Convert submits the document for synchronous conversion.
func (c *Client) Convert(ctx context.Context, fileName string, data []byte) (ConvertResponse, error) {
	var result ConvertResponse
	req := convertRequest{FileName: fileName, Content: base64.StdEncoding.EncodeToString(data)}
	if err := c.httpClient.Post(ctx, "/convert", req, &result); err != nil {
		return ConvertResponse{}, err
	}
	return result, nil
}
