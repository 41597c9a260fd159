package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Downloader saves guideline PDFs into the local PDF directory.
type Downloader struct {
	client *http.Client
	pdfDir string
}

func NewDownloader(client *http.Client, pdfDir string) *Downloader {
	return &Downloader{client: client, pdfDir: pdfDir}
}

// Download fetches the PDF and writes it as {gene}_{drug}_Guideline.pdf,
// returning the local file path.
func (d *Downloader) Download(ctx context.Context, pdfURL, gene, drug string) (string, error) {
	if err := os.MkdirAll(d.pdfDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create pdf dir: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download PDF: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PDF download returned status %d", resp.StatusCode)
	}

	path := filepath.Join(d.pdfDir, fmt.Sprintf("%s_%s_Guideline.pdf", gene, drug))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create PDF file: %v", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return "", fmt.Errorf("failed to write PDF file: %v", err)
	}
	return path, nil
}
