package api

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"cpic-rag/internal/db"
	"cpic-rag/internal/fetcher"
	"cpic-rag/internal/ingestion"
	"cpic-rag/internal/models"
	"cpic-rag/internal/phenotype"
	"cpic-rag/internal/rag"
)

// RecordCounter is the status view over the structured store.
type RecordCounter interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]db.Guideline, error)
}

// ChunkCounter is the status view over the similarity index.
type ChunkCounter interface {
	TotalVectorCount() int
}

type Handler struct {
	ingest         *ingestion.Service
	rag            *rag.Service
	resolver       *phenotype.Resolver
	locator        *fetcher.Locator
	store          RecordCounter
	index          ChunkCounter
	embeddingModel string
}

func NewHandler(
	ingest *ingestion.Service,
	ragSvc *rag.Service,
	resolver *phenotype.Resolver,
	locator *fetcher.Locator,
	store RecordCounter,
	index ChunkCounter,
	embeddingModel string,
) *Handler {
	return &Handler{
		ingest:         ingest,
		rag:            ragSvc,
		resolver:       resolver,
		locator:        locator,
		store:          store,
		index:          index,
		embeddingModel: embeddingModel,
	}
}

type ingestRequest struct {
	Gene string `json:"gene"`
	Drug string `json:"drug"`
}

func (h *Handler) PostIngest(c *fiber.Ctx) error {
	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Gene == "" || req.Drug == "" {
		return fiber.NewError(fiber.StatusBadRequest, "gene and drug are required")
	}

	result, err := h.ingest.Ingest(c.Context(), req.Gene, req.Drug)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) GetIngestOptions(c *fiber.Ctx) error {
	genes, drugs, pairs, err := h.locator.Options()
	if err != nil {
		return err
	}
	if pairs == nil {
		pairs = []models.GeneDrugPair{}
	}
	return c.JSON(fiber.Map{
		"genes": genes,
		"drugs": drugs,
		"pairs": pairs,
	})
}

type queryRequest struct {
	Question string `json:"question"`
	Gene     string `json:"gene"`
	Drug     string `json:"drug"`
}

func (h *Handler) PostQuery(c *fiber.Ctx) error {
	var req queryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return fiber.NewError(fiber.StatusBadRequest, "question is required")
	}

	answer, err := h.rag.Query(c.Context(), req.Gene, req.Drug, req.Question)
	if err != nil {
		return err
	}
	return c.JSON(answer)
}

type phenotypeRequest struct {
	Gene      string `json:"gene"`
	Diplotype string `json:"diplotype"`
}

func (h *Handler) PostPhenotype(c *fiber.Ctx) error {
	var req phenotypeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Gene == "" || req.Diplotype == "" {
		return fiber.NewError(fiber.StatusBadRequest, "gene and diplotype are required")
	}

	result, err := h.resolver.Lookup(c.Context(), req.Gene, req.Diplotype)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *Handler) GetGenes(c *fiber.Ctx) error {
	genes, err := h.resolver.AvailableGenes(c.Context())
	if err != nil {
		return err
	}
	if genes == nil {
		genes = []string{}
	}
	return c.JSON(fiber.Map{"genes": genes})
}

func (h *Handler) GetDiplotypes(c *fiber.Ctx) error {
	gene := c.Params("gene")
	diplotypes, err := h.resolver.DiplotypesForGene(c.Context(), gene)
	if err != nil {
		return err
	}
	if diplotypes == nil {
		diplotypes = []string{}
	}
	return c.JSON(fiber.Map{"diplotypes": diplotypes})
}

func (h *Handler) GetGuidelines(c *fiber.Ctx) error {
	guidelines, err := h.store.List(c.Context())
	if err != nil {
		return err
	}
	if guidelines == nil {
		guidelines = []db.Guideline{}
	}
	return c.JSON(fiber.Map{"guidelines": guidelines})
}

func (h *Handler) GetStatus(c *fiber.Ctx) error {
	indexed, err := h.store.Count(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"status":             "ok",
		"indexed_guidelines": indexed,
		"total_chunks":       h.index.TotalVectorCount(),
		"embedding_model":    h.embeddingModel,
	})
}
