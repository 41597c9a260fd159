package phenotype

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"cpic-rag/internal/db"
	"cpic-rag/internal/models"
)

// Authority is the external diplotype source.
type Authority interface {
	FetchDiplotypes(ctx context.Context, gene string) ([]db.DiplotypeRow, error)
	FetchGeneSymbols(ctx context.Context) ([]string, error)
}

// Cache is the local per-gene snapshot of the authority's rows.
type Cache interface {
	RowsForGene(ctx context.Context, gene string) ([]db.DiplotypeRow, error)
	ReplaceGene(ctx context.Context, gene string, rows []db.DiplotypeRow) error
	DistinctGenes(ctx context.Context) ([]string, error)
}

// Resolver maps a diplotype to its clinical phenotype, cache first.
type Resolver struct {
	authority Authority
	cache     Cache
}

func NewResolver(authority Authority, cache Cache) *Resolver {
	return &Resolver{authority: authority, cache: cache}
}

// diplotypes returns the rows for a gene from the cache, fetching and
// caching on a miss. A failed fetch falls back to whatever the cache holds.
func (r *Resolver) diplotypes(ctx context.Context, gene string) ([]db.DiplotypeRow, error) {
	cached, err := r.cache.RowsForGene(ctx, gene)
	if err != nil {
		return nil, err
	}
	if len(cached) > 0 {
		return cached, nil
	}

	rows, err := r.authority.FetchDiplotypes(ctx, gene)
	if err != nil {
		log.Warn().Err(err).Str("gene", gene).Msg("CPIC API error, trying cache")
		return r.cache.RowsForGene(ctx, gene)
	}
	if len(rows) > 0 {
		if err := r.cache.ReplaceGene(ctx, gene, rows); err != nil {
			log.Warn().Err(err).Str("gene", gene).Msg("Failed to cache diplotypes")
		}
	}
	return rows, nil
}

// Lookup resolves a gene/diplotype pair. An unknown gene or diplotype
// produces an explanatory result, never an error.
func (r *Resolver) Lookup(ctx context.Context, gene, diplotype string) (*models.PhenotypeResult, error) {
	rows, err := r.diplotypes(ctx, gene)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return &models.PhenotypeResult{
			Gene:           gene,
			Diplotype:      diplotype,
			Phenotype:      "Gene not found in CPIC database",
			Recommendation: fmt.Sprintf("No diplotype data available for %s.", gene),
		}, nil
	}

	needle := strings.ToLower(strings.TrimSpace(diplotype))
	var match *db.DiplotypeRow
	for i := range rows {
		if strings.ToLower(strings.TrimSpace(rows[i].Diplotype)) == needle {
			match = &rows[i]
			break
		}
	}

	if match == nil {
		return &models.PhenotypeResult{
			Gene:           gene,
			Diplotype:      diplotype,
			Phenotype:      "Diplotype not found",
			Recommendation: fmt.Sprintf("No phenotype mapping found for %s %s in CPIC.", gene, diplotype),
		}, nil
	}

	// best-effort: a non-numeric score is absence, not a fault
	var activityScore *float64
	if v, err := strconv.ParseFloat(strings.TrimSpace(match.TotalActivityScore), 64); err == nil {
		activityScore = &v
	}

	phenotype := match.GeneResult
	if phenotype == "" {
		phenotype = "Unknown"
	}

	return &models.PhenotypeResult{
		Gene:           gene,
		Diplotype:      diplotype,
		Phenotype:      phenotype,
		ActivityScore:  activityScore,
		Recommendation: match.ConsultationText,
		EHRPriority:    match.EHRPriority,
		Description:    match.Description,
	}, nil
}

// AvailableGenes lists the genes known to the authority, falling back to the
// cached gene symbols when the API is unreachable.
func (r *Resolver) AvailableGenes(ctx context.Context) ([]string, error) {
	genes, err := r.authority.FetchGeneSymbols(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("CPIC API error fetching genes, using cache")
		return r.cache.DistinctGenes(ctx)
	}
	return sortedUnique(genes), nil
}

// DiplotypesForGene lists the distinct diplotype strings for a gene.
func (r *Resolver) DiplotypesForGene(ctx context.Context, gene string) ([]string, error) {
	rows, err := r.diplotypes(ctx, gene)
	if err != nil {
		return nil, err
	}
	diplotypes := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.Diplotype != "" {
			diplotypes = append(diplotypes, row.Diplotype)
		}
	}
	return sortedUnique(diplotypes), nil
}

func sortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
