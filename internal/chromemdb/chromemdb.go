package chromemdb

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"

	"cpic-rag/internal/helper"
	"cpic-rag/internal/models"
)

const compress = false

// VectorIndex wraps a persistent chromem-go collection of embedded guideline
// chunks. One instance is constructed at startup and shared for the process
// lifetime; the underlying database is opened lazily on first use.
type VectorIndex struct {
	dbPath         string
	collectionName string
	embedder       *embeddings.EmbedderImpl

	mu         sync.Mutex
	db         *chromem.DB
	collection *chromem.Collection
}

func NewVectorIndex(dbPath, collectionName string, embedder *embeddings.EmbedderImpl) *VectorIndex {
	return &VectorIndex{
		dbPath:         dbPath,
		collectionName: collectionName,
		embedder:       embedder,
	}
}

func (m *VectorIndex) ensure() (*chromem.Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collection != nil {
		return m.collection, nil
	}
	db, err := chromem.NewPersistentDB(m.dbPath, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %v", err)
	}
	c, err := db.GetOrCreateCollection(m.collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	m.db = db
	m.collection = c
	return c, nil
}

// Insert embeds the chunks and adds them to the collection. The persistent
// database writes each document to disk before AddDocuments returns.
func (m *VectorIndex) Insert(ctx context.Context, chunks []models.Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	col, err := m.ensure()
	if err != nil {
		return 0, err
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for _, chunk := range chunks {
		emb, err := m.embedder.EmbedQuery(ctx, chunk.Content)
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk: %v", err)
		}
		uid, err := helper.GenerateUUID()
		if err != nil {
			return 0, err
		}
		docs = append(docs, chromem.Document{
			ID:        fmt.Sprintf("%s-%s-%s", chunk.Gene, chunk.Drug, uid),
			Content:   chunk.Content,
			Embedding: emb,
			Metadata: map[string]string{
				"title":        chunk.Title,
				"page":         strconv.Itoa(chunk.Page),
				"source":       chunk.Source,
				"gene":         chunk.Gene,
				"drug":         chunk.Drug,
				"element_type": chunk.ElementType,
			},
		})
	}

	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("failed to add documents: %v", err)
	}
	log.Info().Int("count", len(docs)).Msg("Added documents to vector index")
	return len(docs), nil
}

// SearchWithScores returns up to k nearest chunks by vector distance,
// closest first. An index that has never been written to yields an empty
// result, not an error.
//
// chromem reports cosine similarity over normalized vectors; the distance
// returned here is the equivalent squared euclidean distance 2*(1-sim).
func (m *VectorIndex) SearchWithScores(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	col, err := m.ensure()
	if err != nil {
		return nil, err
	}
	count := col.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	queryEmb, err := m.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %v", err)
	}

	results, err := col.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: queryEmb,
		NResults:       k,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %v", err)
	}

	out := make([]models.SearchResult, 0, len(results))
	for _, res := range results {
		page, _ := strconv.Atoi(res.Metadata["page"])
		out = append(out, models.SearchResult{
			Content:     res.Content,
			Title:       res.Metadata["title"],
			Page:        page,
			Gene:        res.Metadata["gene"],
			Drug:        res.Metadata["drug"],
			ElementType: res.Metadata["element_type"],
			Distance:    2 * (1 - float64(res.Similarity)),
		})
	}
	return out, nil
}

// TotalVectorCount reports the number of indexed chunks, 0 when the index
// has never been created.
func (m *VectorIndex) TotalVectorCount() int {
	col, err := m.ensure()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open vector index")
		return 0
	}
	return col.Count()
}
