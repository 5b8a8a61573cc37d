package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/pefman/w40k-cheatsheet/internal/models"
)

const (
	generatePath = "/generate"
	finalizePath = "/generate_with_attachments"

	// cap on error bodies we are willing to read
	maxErrorBody = 64 << 10
)

// TransportError means the request never produced a usable HTTP response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// ServiceError is a completed request the service reported as failed.
// Message is empty when the service gave no reason.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return e.Message
}

// Config holds API configuration
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	config Config
	http   *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
	}
}

// Generate submits the raw army list. The answer is either a finished sheet or
// an attachment prompt (RequiresAttachmentSelection).
func (c *Client) Generate(ctx context.Context, req models.GenerateRequest) (*models.GenerateResponse, error) {
	form := url.Values{}
	form.Set("army_list", req.ArmyList)
	form.Set("format", string(req.Format))
	body := strings.NewReader(form.Encode())
	return c.apiPost(ctx, generatePath, "application/x-www-form-urlencoded", body)
}

// Finalize submits the list again together with the chosen attachments.
func (c *Client) Finalize(ctx context.Context, req models.FinalizeRequest) (*models.GenerateResponse, error) {
	if req.Attachments == nil {
		req.Attachments = map[string]string{}
	}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "encode attachments")
	}
	return c.apiPost(ctx, finalizePath, "application/json", bytes.NewReader(data))
}

func (c *Client) apiPost(ctx context.Context, path, contentType string, body io.Reader) (*models.GenerateResponse, error) {
	base := strings.TrimRight(c.config.BaseURL, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, body)
	if err != nil {
		return nil, &TransportError{Op: "POST " + path, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "POST " + path, Err: err}
	}
	defer resp.Body.Close()

	var out models.GenerateResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody(resp.StatusCode))).Decode(&out); err != nil {
		if resp.StatusCode >= 300 {
			return nil, &ServiceError{Status: resp.StatusCode}
		}
		return nil, &TransportError{Op: "decode " + path, Err: err}
	}
	if resp.StatusCode >= 300 || !out.Success {
		return nil, &ServiceError{Status: resp.StatusCode, Message: strings.TrimSpace(out.Error)}
	}
	return &out, nil
}

func maxBody(status int) int64 {
	if status >= 300 {
		return maxErrorBody
	}
	// rendered sheets can be large
	return 64 << 20
}
