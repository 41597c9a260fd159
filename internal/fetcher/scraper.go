package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const userAgent = "Mozilla/5.0 (CPIC-RAG-Bot)"

// Scraper finds the PDF download link on a guideline page.
type Scraper struct {
	client *http.Client
}

func NewScraper(client *http.Client) *Scraper {
	return &Scraper{client: client}
}

// FindPDFLink fetches the page and returns the first href that looks like a
// PDF, resolved against the page URL.
func (s *Scraper) FindPDFLink(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch guideline page: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("guideline page returned status %d", resp.StatusCode)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}

	tokenizer := html.NewTokenizer(resp.Body)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return "", fmt.Errorf("no PDF link found on %s", pageURL)
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}
			for _, attr := range token.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				if !strings.Contains(strings.ToLower(attr.Val), ".pdf") {
					continue
				}
				ref, err := url.Parse(attr.Val)
				if err != nil {
					continue
				}
				return base.ResolveReference(ref).String(), nil
			}
		}
	}
}
