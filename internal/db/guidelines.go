package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"cpic-rag/internal/helper"
	"cpic-rag/internal/models"
)

// Guideline is one ingested gene/drug guideline, raw parsed elements included.
// Rows are insert-only: re-ingestion is short-circuited by FindGuideline, not
// by a uniqueness constraint.
type Guideline struct {
	bun.BaseModel `bun:"table:guidelines,alias:g"`

	ID           int64               `bun:"id,pk,autoincrement" json:"id"`
	UID          string              `bun:"uid,notnull" json:"uid"`
	Gene         string              `bun:"gene,notnull" json:"gene"`
	Drug         string              `bun:"drug,notnull" json:"drug"`
	Title        string              `bun:"title,notnull" json:"title"`
	PDFPath      string              `bun:"pdf_path,notnull" json:"pdf_path"`
	ChunksCount  int                 `bun:"chunks_count,notnull" json:"chunks_count"`
	Elements     []models.RawElement `bun:"elements,type:jsonb" json:"elements,omitempty"`
	ElementCount int                 `bun:"element_count,notnull" json:"element_count"`
	CreatedAt    time.Time           `bun:"created_at,notnull" json:"created_at"`
}

// GuidelineID is the identifier handed back to callers.
func (g *Guideline) GuidelineID() string {
	return fmt.Sprintf("%s_%s_%s", g.Gene, g.Drug, g.UID)
}

// GuidelineStore is the durable record of ingested guidelines.
type GuidelineStore struct {
	db *bun.DB
}

func NewGuidelineStore(db *bun.DB) *GuidelineStore {
	return &GuidelineStore{db: db}
}

// Find returns the most recently created guideline matching gene and drug,
// case-insensitively, or nil when none exists.
func (s *GuidelineStore) Find(ctx context.Context, gene, drug string) (*Guideline, error) {
	g := new(Guideline)
	err := s.db.NewSelect().
		Model(g).
		Where("lower(gene) = lower(?)", gene).
		Where("lower(drug) = lower(?)", drug).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find guideline: %v", err)
	}
	return g, nil
}

// Store inserts a new guideline record and returns its guideline id.
func (s *GuidelineStore) Store(ctx context.Context, gene, drug, title, pdfPath string, chunksCount int, elements []models.RawElement) (string, error) {
	uid, err := helper.GenerateUUID()
	if err != nil {
		return "", err
	}
	g := &Guideline{
		UID:          uid,
		Gene:         gene,
		Drug:         drug,
		Title:        title,
		PDFPath:      pdfPath,
		ChunksCount:  chunksCount,
		Elements:     elements,
		ElementCount: len(elements),
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := s.db.NewInsert().Model(g).Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to store guideline: %v", err)
	}
	return g.GuidelineID(), nil
}

// Count returns the total number of ingested guidelines.
func (s *GuidelineStore) Count(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*Guideline)(nil)).Count(ctx)
}

// List returns all guidelines, most recent first, elements omitted.
func (s *GuidelineStore) List(ctx context.Context) ([]Guideline, error) {
	var gs []Guideline
	err := s.db.NewSelect().
		Model(&gs).
		ExcludeColumn("elements").
		OrderExpr("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list guidelines: %v", err)
	}
	return gs, nil
}
