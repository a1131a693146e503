package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Parser extracts structured fields from an uploaded contract document.
type Parser interface {
	Parse(ctx context.Context, filename string, data []byte) (ParseResult, error)
}

// HTTPParser calls an external document parsing service over HTTP.
type HTTPParser struct {
	baseURL string
	client  *http.Client
}

// NewHTTPParser builds a parser client for the given base URL.
func NewHTTPParser(baseURL string) *HTTPParser {
	return &HTTPParser{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Parse posts the document as multipart form data and decodes the extracted
// fields. A non-2xx status is returned as an error so callers can fall back
// to a draft result.
func (p *HTTPParser) Parse(ctx context.Context, filename string, data []byte) (ParseResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return ParseResult{}, fmt.Errorf("contracts: build parse request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return ParseResult{}, fmt.Errorf("contracts: build parse request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return ParseResult{}, fmt.Errorf("contracts: build parse request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/parse", &body)
	if err != nil {
		return ParseResult{}, fmt.Errorf("contracts: build parse request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return ParseResult{}, fmt.Errorf("contracts: call parser: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ParseResult{}, fmt.Errorf("contracts: parser returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var result ParseResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ParseResult{}, fmt.Errorf("contracts: decode parser response: %w", err)
	}
	return result, nil
}

// draftFromFilename builds a fallback result when parsing fails. The vendor
// name is guessed from the file name so the review form is not empty.
func draftFromFilename(filename string) ParseResult {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return ParseResult{VendorName: strings.TrimSpace(name), Draft: true}
}
