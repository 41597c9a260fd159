package db

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// DiplotypeRow is one cached diplotype→phenotype mapping from the CPIC API.
// Column names follow the API's field names.
type DiplotypeRow struct {
	bun.BaseModel `bun:"table:diplotype_cache,alias:dc"`

	ID                 int64     `bun:"id,pk,autoincrement"`
	GeneSymbol         string    `bun:"genesymbol,notnull"`
	Diplotype          string    `bun:"diplotype,notnull"`
	GeneResult         string    `bun:"generesult"`
	TotalActivityScore string    `bun:"totalactivityscore"`
	ConsultationText   string    `bun:"consultationtext"`
	EHRPriority        string    `bun:"ehrpriority"`
	Description        string    `bun:"description"`
	CachedAt           time.Time `bun:"cached_at,notnull"`
}

// DiplotypeCache holds per-gene snapshots of the CPIC diplotype table.
type DiplotypeCache struct {
	db *bun.DB
}

func NewDiplotypeCache(db *bun.DB) *DiplotypeCache {
	return &DiplotypeCache{db: db}
}

// RowsForGene returns the cached rows for a gene, possibly empty.
func (c *DiplotypeCache) RowsForGene(ctx context.Context, gene string) ([]DiplotypeRow, error) {
	var rows []DiplotypeRow
	err := c.db.NewSelect().
		Model(&rows).
		Where("genesymbol = ?", gene).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read diplotype cache: %v", err)
	}
	return rows, nil
}

// ReplaceGene swaps out the cached rows for a gene wholesale. Delete and
// insert run in one transaction so stale rows never linger next to fresh ones.
func (c *DiplotypeCache) ReplaceGene(ctx context.Context, gene string, rows []DiplotypeRow) error {
	return c.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*DiplotypeRow)(nil)).
			Where("genesymbol = ?", gene).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to clear diplotype cache for %s: %v", gene, err)
		}
		if len(rows) == 0 {
			return nil
		}
		now := time.Now().UTC()
		for i := range rows {
			rows[i].ID = 0
			rows[i].CachedAt = now
		}
		if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
			return fmt.Errorf("failed to cache diplotypes for %s: %v", gene, err)
		}
		return nil
	})
}

// DistinctGenes returns all gene symbols present in the cache, sorted.
func (c *DiplotypeCache) DistinctGenes(ctx context.Context) ([]string, error) {
	var genes []string
	err := c.db.NewSelect().
		Model((*DiplotypeRow)(nil)).
		ColumnExpr("DISTINCT genesymbol").
		OrderExpr("genesymbol ASC").
		Scan(ctx, &genes)
	if err != nil {
		return nil, fmt.Errorf("failed to list cached genes: %v", err)
	}
	return genes, nil
}
