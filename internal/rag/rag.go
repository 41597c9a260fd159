package rag

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog/log"

	"cpic-rag/internal/models"
)

// Retriever is the similarity-index side of the answer pipeline.
type Retriever interface {
	SearchWithScores(ctx context.Context, query string, k int) ([]models.SearchResult, error)
	TotalVectorCount() int
}

// Completer is the inference LLM.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Source is one citation backing an answer.
type Source struct {
	Title   string  `json:"title"`
	Section string  `json:"section"`
	Page    int     `json:"page"`
	Text    string  `json:"text"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Answer is the packaged result of one query.
type Answer struct {
	Answer     string   `json:"answer"`
	Confidence float64  `json:"confidence"`
	ModelUsed  string   `json:"model_used"`
	Sources    []Source `json:"sources"`
}

// Service answers questions from indexed guideline chunks.
type Service struct {
	retriever Retriever
	llm       Completer
	topK      int
}

func NewService(retriever Retriever, llm Completer, topK int) *Service {
	return &Service{retriever: retriever, llm: llm, topK: topK}
}

// Similarity maps a raw vector distance into (0, 1]. Distance 0 maps to 1;
// the transform is monotonically decreasing, order-preserving, and bounded.
// It is not a probability.
func Similarity(distance float64) float64 {
	return 1.0 / (1.0 + distance)
}

// Confidence is the mean retrieval similarity rescaled into a more intuitive
// band and capped at 1. Similarities typically land around 0.3-0.8, hence
// the 1.2 factor. Not a calibrated probability.
func Confidence(similarities []float64) float64 {
	if len(similarities) == 0 {
		return 0
	}
	var sum float64
	for _, s := range similarities {
		sum += s
	}
	return round(math.Min(1.0, sum/float64(len(similarities))*1.2), 2)
}

func round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= models.SnippetChars {
		return text
	}
	return string(runes[:models.SnippetChars])
}

// Query retrieves the top-k chunks for the question, grounds the LLM on
// them, and returns the answer with citations and a confidence estimate.
func (s *Service) Query(ctx context.Context, gene, drug, question string) (*Answer, error) {
	if s.retriever.TotalVectorCount() == 0 {
		return &Answer{
			Answer:     "No guidelines have been indexed yet. Please ingest a guideline first.",
			Confidence: 0.0,
			ModelUsed:  "none",
			Sources:    []Source{},
		}, nil
	}

	fullQuestion := fmt.Sprintf("Gene: %s, Drug: %s. %s", gene, drug, question)
	results, err := s.retriever.SearchWithScores(ctx, fullQuestion, s.topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return &Answer{
			Answer:     "No relevant guideline sections found for your query.",
			Confidence: 0.0,
			ModelUsed:  s.llm.Model(),
			Sources:    []Source{},
		}, nil
	}

	contextParts := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	similarities := make([]float64, 0, len(results))
	for _, res := range results {
		sim := Similarity(res.Distance)
		similarities = append(similarities, sim)
		contextParts = append(contextParts, res.Content)
		preview := snippet(res.Content)
		sources = append(sources, Source{
			Title:   res.Title,
			Section: res.ElementType,
			Page:    res.Page,
			Text:    preview,
			Snippet: preview,
			Score:   round(sim, 3),
		})
	}

	grounding := strings.Join(contextParts, models.ContextSeparator)
	prompt := fmt.Sprintf(models.AnswerPromptTemplate, grounding, fullQuestion)

	log.Debug().Int("sources", len(sources)).Str("gene", gene).Str("drug", drug).Msg("Asking LLM")
	answer, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	return &Answer{
		Answer:     answer,
		Confidence: Confidence(similarities),
		ModelUsed:  s.llm.Model(),
		Sources:    sources,
	}, nil
}
