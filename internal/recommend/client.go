// Package recommend talks to the external recommendation service. It only knows
// how to upload a batch of images; interpreting the response belongs to the
// normalize package.
package recommend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strings"

	"github.com/lookbook-app/lookbook/internal/models"
)

// DefaultBaseURL is used when LOOKBOOK_SERVICE_URL is not set
const DefaultBaseURL = "http://localhost:8000"

// FieldName is the repeated multipart field carrying each image
const FieldName = "images"

// StatusError is returned for any non-2xx response. The body is not read.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("recommendation service returned status %d", e.StatusCode)
}

// TransportError wraps a failure to reach the service or read its reply
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "recommendation request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client uploads images to the generation endpoint
type Client struct {
	BaseURL    string
	httpClient *http.Client
}

// BaseURLFromEnv returns LOOKBOOK_SERVICE_URL or DefaultBaseURL
func BaseURLFromEnv() string {
	if u := os.Getenv("LOOKBOOK_SERVICE_URL"); u != "" {
		return u
	}
	return DefaultBaseURL
}

// NewClient creates a client for baseURL. No timeout is set; callers bound
// requests through the context.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithHTTPClient swaps the underlying transport, mostly for tests
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// Generate posts every file as one multipart request and returns the raw success body
func (c *Client) Generate(ctx context.Context, token string, files []models.ImageFile) ([]byte, error) {
	body, contentType, err := buildForm(files)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/generate", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}
	return data, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildForm writes one part per file in order, keeping filename and content type
func buildForm(files []models.ImageFile) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			FieldName, quoteEscaper.Replace(f.Name)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf, mw.FormDataContentType(), nil
}
