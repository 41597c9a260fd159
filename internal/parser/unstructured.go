package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"cpic-rag/internal/config"
	"cpic-rag/internal/models"
)

// UnstructuredClient parses PDFs through the hosted Unstructured partition
// API, returning the typed elements in document order.
type UnstructuredClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewUnstructuredClient(cfg *config.APIConfig) *UnstructuredClient {
	return &UnstructuredClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.Key,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// Parse submits the PDF and decodes the element array. A service error or a
// malformed document surfaces as an error; the ingestion pipeline turns it
// into a failed outcome.
func (c *UnstructuredClient) Parse(ctx context.Context, pdfPath string) ([]models.RawElement, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("unstructured API key is not configured")
	}

	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %v", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filepath.Base(pdfPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("failed to read PDF: %v", err)
	}
	if err := writer.WriteField("strategy", "hi_res"); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := c.baseURL + "/general/v0/general"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("unstructured-api-key", c.apiKey)

	log.Info().Str("pdf", filepath.Base(pdfPath)).Msg("Submitting PDF to Unstructured API")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unstructured API request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unstructured API returned status %d: %s", resp.StatusCode, string(msg))
	}

	var elements []models.RawElement
	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to decode unstructured response: %v", err)
	}
	log.Info().Int("elements", len(elements)).Str("pdf", filepath.Base(pdfPath)).Msg("Parsed PDF")
	return elements, nil
}
