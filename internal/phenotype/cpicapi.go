package phenotype

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"cpic-rag/internal/config"
	"cpic-rag/internal/db"
)

const (
	maxRetries = 3
	apiTimeout = 30 * time.Second
)

// flexString tolerates the CPIC API serializing a field as either a JSON
// string or a bare number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("failed to decode value %s", string(b))
	}
	*f = flexString(n.String())
	return nil
}

type apiRow struct {
	GeneSymbol         string     `json:"genesymbol"`
	Diplotype          string     `json:"diplotype"`
	GeneResult         string     `json:"generesult"`
	TotalActivityScore flexString `json:"totalactivityscore"`
	ConsultationText   string     `json:"consultationtext"`
	EHRPriority        string     `json:"ehrpriority"`
	Description        string     `json:"description"`
}

// APIClient talks to the CPIC REST API. Server-side errors are retried with
// exponential backoff before the caller falls back to the cache.
type APIClient struct {
	baseURL string
	client  *http.Client
	sleep   func(time.Duration)
}

func NewAPIClient(cfg *config.APIConfig) *APIClient {
	return &APIClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: apiTimeout},
		sleep:   time.Sleep,
	}
}

func (c *APIClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			c.sleep(time.Duration(1<<(attempt-1)) * time.Second)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "CPIC-RAG-Bot/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CPIC API request failed: %v", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read CPIC API response: %v", err)
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("CPIC API returned status %d", resp.StatusCode)
			log.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Msg("CPIC API server error, retrying")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("CPIC API returned status %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, lastErr
}

// FetchDiplotypes returns all diplotype rows for a gene.
func (c *APIClient) FetchDiplotypes(ctx context.Context, gene string) ([]db.DiplotypeRow, error) {
	params := url.Values{}
	params.Set("genesymbol", "eq."+gene)
	body, err := c.get(ctx, "/diplotype", params)
	if err != nil {
		return nil, err
	}

	var apiRows []apiRow
	if err := json.Unmarshal(body, &apiRows); err != nil {
		return nil, fmt.Errorf("failed to decode CPIC diplotype response: %v", err)
	}

	rows := make([]db.DiplotypeRow, 0, len(apiRows))
	for _, r := range apiRows {
		rows = append(rows, db.DiplotypeRow{
			GeneSymbol:         r.GeneSymbol,
			Diplotype:          r.Diplotype,
			GeneResult:         r.GeneResult,
			TotalActivityScore: string(r.TotalActivityScore),
			ConsultationText:   r.ConsultationText,
			EHRPriority:        r.EHRPriority,
			Description:        r.Description,
		})
	}
	log.Info().Int("rows", len(rows)).Str("gene", gene).Msg("Fetched diplotypes from CPIC API")
	return rows, nil
}

// FetchGeneSymbols returns the gene symbols present in the CPIC diplotype
// table.
func (c *APIClient) FetchGeneSymbols(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("select", "genesymbol")
	params.Set("limit", "1000")
	body, err := c.get(ctx, "/diplotype", params)
	if err != nil {
		return nil, err
	}

	var rows []struct {
		GeneSymbol string `json:"genesymbol"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode CPIC gene response: %v", err)
	}

	genes := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.GeneSymbol != "" {
			genes = append(genes, r.GeneSymbol)
		}
	}
	return genes, nil
}
