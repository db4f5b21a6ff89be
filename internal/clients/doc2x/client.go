// Package doc2x provides a client for the Doc2X document parsing service:
// the MinerU-style collaborator behind the PDF parser's first attempt at
// layout-aware OCR extraction.
package doc2x

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kestrel-data/docreader/internal/clients/base"
	"github.com/kestrel-data/docreader/internal/config"
)

// Service name for error reporting
const serviceName = "doc2x"

// Default timeouts for Doc2X operations
const (
	DefaultTimeout = 30 * time.Second
	pollInterval   = 5 * time.Second
)

// DocumentParser defines the interface for document parsing operations.
type DocumentParser interface {
	UploadPDF(ctx context.Context, pdfData []byte) (*UploadResponse, error)
	GetStatus(ctx context.Context, uid string) (*StatusResponse, error)
	DownloadFile(ctx context.Context, url string) ([]byte, error)
	WaitForParsing(ctx context.Context, uid string) (*StatusResponse, error)
}

// Client provides Doc2X document parsing functionality.
// It wraps the HTTP client with domain-specific methods.
type Client struct {
	httpClient *base.HTTPClient
	cfg        config.ServiceConfig
}

// Compile-time check to ensure Client implements DocumentParser interface
var _ DocumentParser = (*Client)(nil)

// NewClient creates a new Doc2X client with standardized configuration.
// It uses the base HTTP client for consistent error handling and retry logic.
func NewClient(cfg config.ServiceConfig) *Client {
	httpClient := base.NewHTTPClient(serviceName, cfg, DefaultTimeout)

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

type UploadResponse struct {
	Code string `json:"code"`
	Data struct {
		UID string `json:"uid"`
	} `json:"data"`
}

type StatusResponse struct {
	Code string `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Data *struct {
		Progress int    `json:"progress"`
		Status   string `json:"status"`
		Detail   string `json:"detail"`
		Result   *struct {
			Version string `json:"version"`
			Pages   []struct {
				URL        string `json:"url"`
				PageIdx    int    `json:"page_idx"`
				PageWidth  int    `json:"page_width"`
				PageHeight int    `json:"page_height"`
				Md         string `json:"md"`
			} `json:"pages"`
		} `json:"result"`
	} `json:"data"`
}

// UploadPDF uploads PDF data for parsing.
// It returns the upload response containing the UID for tracking.
func (c *Client) UploadPDF(ctx context.Context, pdfData []byte) (*UploadResponse, error) {
	var result UploadResponse
	if err := c.httpClient.Post(ctx, "/api/v2/parse/pdf", pdfData, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStatus checks the parsing status for a given UID.
// It returns detailed status information including progress and results.
func (c *Client) GetStatus(ctx context.Context, uid string) (*StatusResponse, error) {
	var result StatusResponse
	params := map[string]string{"uid": uid}
	if err := c.httpClient.Get(ctx, "/api/v2/parse/status", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadFile downloads a file from the given URL.
// It handles URL unescaping and returns the raw file content.
func (c *Client) DownloadFile(ctx context.Context, url string) ([]byte, error) {
	url = strings.ReplaceAll(url, "\\u0026", "&")
	return c.httpClient.GetRaw(ctx, url)
}

// WaitForParsing polls the parsing status until completion, failure, or
// context cancellation, whichever comes first.
func (c *Client) WaitForParsing(ctx context.Context, uid string) (*StatusResponse, error) {
	for {
		status, err := c.GetStatus(ctx, uid)
		if err != nil {
			return nil, err
		}

		if status.Code != "success" {
			return nil, base.NewClientError(serviceName, "wait for parsing",
				fmt.Errorf("parse failed: %s - %s", status.Code, status.Msg))
		}

		switch status.Data.Status {
		case "success":
			return status, nil
		case "failed":
			return nil, base.NewClientError(serviceName, "wait for parsing",
				fmt.Errorf("parse failed: %s", status.Data.Detail))
		default:
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pollInterval):
			}
		}
	}
}
