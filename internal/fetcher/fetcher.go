package fetcher

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Fetcher chains the locator, scraper, and downloader into the single
// capability the ingestion pipeline consumes: gene+drug in, local PDF out.
type Fetcher struct {
	locator    *Locator
	scraper    *Scraper
	downloader *Downloader
	pdfDir     string
}

func New(pairsSheet, pdfDir string) *Fetcher {
	client := &http.Client{Timeout: 60 * time.Second}
	return &Fetcher{
		locator:    NewLocator(pairsSheet),
		scraper:    NewScraper(client),
		downloader: NewDownloader(client, pdfDir),
		pdfDir:     pdfDir,
	}
}

func (f *Fetcher) Locator() *Locator {
	return f.locator
}

// FindLocalPDF looks for a previously downloaded PDF whose filename contains
// the drug name, case-insensitively. Returns "" when there is none.
func (f *Fetcher) FindLocalPDF(drug string) string {
	entries, err := os.ReadDir(f.pdfDir)
	if err != nil {
		return ""
	}
	needle := strings.ToLower(drug)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.Contains(strings.ToLower(stem), needle) {
			return filepath.Join(f.pdfDir, name)
		}
	}
	return ""
}

// FetchGuidelinePDF runs the locate → scrape → download pipeline and returns
// the local path of the saved PDF.
func (f *Fetcher) FetchGuidelinePDF(ctx context.Context, gene, drug string) (string, error) {
	log.Info().Str("gene", gene).Str("drug", drug).Msg("Looking up guideline URL")
	pageURL, err := f.locator.Locate(gene, drug)
	if err != nil {
		return "", err
	}
	log.Info().Str("page_url", pageURL).Msg("Found guideline page")

	pdfURL, err := f.scraper.FindPDFLink(ctx, pageURL)
	if err != nil {
		return "", err
	}
	log.Info().Str("pdf_url", pdfURL).Msg("Found PDF link")

	path, err := f.downloader.Download(ctx, pdfURL, gene, drug)
	if err != nil {
		return "", err
	}
	log.Info().Str("path", path).Msg("Downloaded PDF")
	return path, nil
}
