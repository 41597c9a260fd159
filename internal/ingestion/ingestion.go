package ingestion

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"cpic-rag/internal/db"
	"cpic-rag/internal/extractor"
	"cpic-rag/internal/models"
)

// GuidelineStore is the durable record side of ingestion.
type GuidelineStore interface {
	Find(ctx context.Context, gene, drug string) (*db.Guideline, error)
	Store(ctx context.Context, gene, drug, title, pdfPath string, chunksCount int, elements []models.RawElement) (string, error)
}

// VectorIndex receives the extracted chunks.
type VectorIndex interface {
	Insert(ctx context.Context, chunks []models.Chunk) (int, error)
}

// SourceFetcher locates or fetches the guideline PDF.
type SourceFetcher interface {
	FindLocalPDF(drug string) string
	FetchGuidelinePDF(ctx context.Context, gene, drug string) (string, error)
}

// DocumentParser turns a PDF into ordered typed elements.
type DocumentParser interface {
	Parse(ctx context.Context, pdfPath string) ([]models.RawElement, error)
}

// Service runs the ingestion pipeline: idempotency check, locate or fetch
// the PDF, parse, extract chunks, persist, index. Missing data at any of the
// first steps is a failed outcome, not an error; store and index failures
// propagate as errors.
type Service struct {
	store   GuidelineStore
	index   VectorIndex
	fetcher SourceFetcher
	parser  DocumentParser
	locks   *keyedMutex
}

func NewService(store GuidelineStore, index VectorIndex, fetcher SourceFetcher, parser DocumentParser) *Service {
	return &Service{
		store:   store,
		index:   index,
		fetcher: fetcher,
		parser:  parser,
		locks:   newKeyedMutex(),
	}
}

// Ingest processes one gene/drug pair end to end. A per-pair lock keeps two
// concurrent requests for the same pair from racing the existence check and
// double-writing the record.
func (s *Service) Ingest(ctx context.Context, gene, drug string) (*models.IngestResult, error) {
	key := strings.ToLower(gene) + "/" + strings.ToLower(drug)
	unlock := s.locks.lock(key)
	defer unlock()

	// already ingested?
	existing, err := s.store.Find(ctx, gene, drug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		log.Info().Str("gene", gene).Str("drug", drug).Msg("Guideline already ingested")
		return &models.IngestResult{
			Status:      models.StatusCompleted,
			Message:     fmt.Sprintf("Guideline for %s/%s is already ingested (%d chunks).", gene, drug, existing.ChunksCount),
			GuidelineID: existing.GuidelineID(),
		}, nil
	}

	// find or fetch the PDF
	pdfPath := s.fetcher.FindLocalPDF(drug)
	if pdfPath == "" {
		log.Info().Str("drug", drug).Msg("No existing PDF, running fetch pipeline")
		pdfPath, err = s.fetcher.FetchGuidelinePDF(ctx, gene, drug)
		if err != nil {
			log.Warn().Err(err).Str("gene", gene).Str("drug", drug).Msg("Fetch pipeline failed")
			return &models.IngestResult{
				Status: models.StatusFailed,
				Message: fmt.Sprintf("Could not find or fetch a guideline PDF for '%s/%s'. "+
					"The gene-drug pair may not exist in the CPIC database.", gene, drug),
			}, nil
		}
	}
	pdfName := filepath.Base(pdfPath)

	// parse
	elements, err := s.parser.Parse(ctx, pdfPath)
	if err != nil {
		log.Error().Err(err).Str("pdf", pdfName).Msg("Parser failed")
		return &models.IngestResult{
			Status:  models.StatusFailed,
			Message: fmt.Sprintf("Failed to parse '%s': %v", pdfName, err),
		}, nil
	}
	if len(elements) == 0 {
		return &models.IngestResult{
			Status:  models.StatusFailed,
			Message: fmt.Sprintf("Parser returned no elements for '%s'.", pdfName),
		}, nil
	}

	// extract chunks
	chunks := extractor.Extract(elements, gene, drug)
	if len(chunks) == 0 {
		return &models.IngestResult{
			Status:  models.StatusFailed,
			Message: fmt.Sprintf("No meaningful text extracted from '%s'.", pdfName),
		}, nil
	}

	// persist record, then index chunks; failures here are infrastructure
	// faults and surface loudly
	title := strings.TrimSuffix(pdfName, filepath.Ext(pdfName))
	guidelineID, err := s.store.Store(ctx, gene, drug, title, pdfPath, len(chunks), elements)
	if err != nil {
		return nil, err
	}
	log.Info().Str("guideline_id", guidelineID).Msg("Stored guideline record")

	added, err := s.index.Insert(ctx, chunks)
	if err != nil {
		return nil, err
	}
	log.Info().Int("chunks", added).Msg("Embedded chunks in vector index")

	return &models.IngestResult{
		Status: models.StatusCompleted,
		Message: fmt.Sprintf("Fetched, parsed, and ingested '%s': %d elements -> %d chunks embedded.",
			pdfName, len(elements), added),
		GuidelineID: guidelineID,
	}, nil
}
