// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package vectorstore is a thin client for the OpenAI files and vector store
// files endpoints. A Client is bound to one vector store.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/kb-sync/internal/httputil"
	"github.com/pdiddy/kb-sync/pkg/types"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultTimeout = 60 * time.Second
	filePurpose    = "assistants"
)

// Client creates and removes files and their vector store attachments.
type Client struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	vectorStoreID string
	userAgent     string
	maxRetries    int
}

// apiError is the error envelope returned by the API.
type apiError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type fileObject struct {
	ID string `json:"id"`
}

// New returns a Client for cfg.VectorStoreID.
func New(cfg types.VectorStoreConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.VectorStoreID == "" {
		return nil, fmt.Errorf("openai: vector store id is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:        &http.Client{Timeout: cfg.Timeout},
		baseURL:       strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:        cfg.APIKey,
		vectorStoreID: cfg.VectorStoreID,
		userAgent:     cfg.UserAgent,
		maxRetries:    cfg.MaxRetries,
	}, nil
}

// VectorStoreID returns the vector store this client attaches files to.
func (c *Client) VectorStoreID() string { return c.vectorStoreID }

// CreateFile uploads the content of r under name and returns the new file id.
// The body is buffered so a rate-limited upload can be replayed.
func (c *Client) CreateFile(ctx context.Context, name string, r io.Reader) (string, error) {
	const op = "creating file"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("purpose", filePurpose); err != nil {
		return "", &types.TransportError{Op: op, Err: err}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", &types.TransportError{Op: op, Err: err}
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", &types.TransportError{Op: op, Err: fmt.Errorf("reading %s: %w", name, err)}
	}
	if err := mw.Close(); err != nil {
		return "", &types.TransportError{Op: op, Err: err}
	}

	var file fileObject
	if err := c.do(ctx, op, http.MethodPost, "/files", mw.FormDataContentType(), &buf, &file); err != nil {
		return "", err
	}
	if file.ID == "" {
		return "", &types.TransportError{Op: op, Err: errors.New("response has no file id")}
	}
	return file.ID, nil
}

// DeleteFile removes a file from the account.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	return c.do(ctx, "deleting file "+fileID, http.MethodDelete, "/files/"+url.PathEscape(fileID), "", nil, nil)
}

// Attach adds a file to the vector store.
func (c *Client) Attach(ctx context.Context, fileID string) error {
	body, err := json.Marshal(map[string]string{"file_id": fileID})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, "attaching file "+fileID, http.MethodPost, c.storePath(), "application/json", bytes.NewReader(body), nil)
}

// Detach removes a file from the vector store without deleting the file.
func (c *Client) Detach(ctx context.Context, fileID string) error {
	return c.do(ctx, "detaching file "+fileID, http.MethodDelete, c.storePath()+"/"+url.PathEscape(fileID), "", nil, nil)
}

func (c *Client) storePath() string {
	return "/vector_stores/" + url.PathEscape(c.vectorStoreID) + "/files"
}

// do sends one request and decodes a 2xx JSON response into out when out is
// non-nil. Every failure is returned as a TransportError.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &types.TransportError{Op: op, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, c.maxRetries)
	if err != nil {
		return &types.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &types.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &types.TransportError{Op: op, Status: resp.StatusCode, Err: errorMessage(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &types.TransportError{Op: op, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts the API's error message, falling back to the raw body.
func errorMessage(data []byte) error {
	var ae apiError
	if json.Unmarshal(data, &ae) == nil && ae.Error != nil && ae.Error.Message != "" {
		return errors.New(ae.Error.Message)
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return errors.New(s)
	}
	return nil
}
