package ingestion

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cpic-rag/internal/db"
	"cpic-rag/internal/models"
)

type fakeStore struct {
	existing     *db.Guideline
	storeCalls   int
	storedGene   string
	storedChunks int
	storeErr     error
}

func (f *fakeStore) Find(_ context.Context, _, _ string) (*db.Guideline, error) {
	return f.existing, nil
}

func (f *fakeStore) Store(_ context.Context, gene, _, _, _ string, chunksCount int, _ []models.RawElement) (string, error) {
	f.storeCalls++
	f.storedGene = gene
	f.storedChunks = chunksCount
	if f.storeErr != nil {
		return "", f.storeErr
	}
	return gene + "_drug_uid-1", nil
}

type fakeIndex struct {
	inserted  []models.Chunk
	insertErr error
	calls     int
}

func (f *fakeIndex) Insert(_ context.Context, chunks []models.Chunk) (int, error) {
	f.calls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return len(chunks), nil
}

type fakeFetcher struct {
	localPath   string
	fetchPath   string
	fetchErr    error
	fetchCalled bool
}

func (f *fakeFetcher) FindLocalPDF(_ string) string {
	return f.localPath
}

func (f *fakeFetcher) FetchGuidelinePDF(_ context.Context, _, _ string) (string, error) {
	f.fetchCalled = true
	return f.fetchPath, f.fetchErr
}

type fakeParser struct {
	elements []models.RawElement
	parseErr error
	called   bool
}

func (f *fakeParser) Parse(_ context.Context, _ string) ([]models.RawElement, error) {
	f.called = true
	return f.elements, f.parseErr
}

func validElements(n int) []models.RawElement {
	elements := make([]models.RawElement, n)
	for i := range elements {
		elements[i] = models.RawElement{
			Type: "NarrativeText",
			Text: "guideline text long enough to survive chunk extraction",
			Metadata: models.ElementMetadata{
				PageNumber: i + 1,
				Filename:   "CYP2D6_Codeine_Guideline.pdf",
			},
		}
	}
	return elements
}

func TestIngest_IdempotentSkip(t *testing.T) {
	store := &fakeStore{existing: &db.Guideline{
		UID: "abc123", Gene: "CYP2D6", Drug: "Codeine", ChunksCount: 7,
	}}
	index := &fakeIndex{}
	fetcher := &fakeFetcher{}
	parser := &fakeParser{}
	svc := NewService(store, index, fetcher, parser)

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Contains(t, result.Message, "already ingested (7 chunks)")
	assert.Equal(t, "CYP2D6_Codeine_abc123", result.GuidelineID)

	// no collaborator is invoked on the second pass
	assert.False(t, fetcher.fetchCalled)
	assert.False(t, parser.called)
	assert.Zero(t, store.storeCalls)
	assert.Zero(t, index.calls)
}

func TestIngest_FullPipeline(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}
	fetcher := &fakeFetcher{fetchPath: "/tmp/pdfs/CYP2D6_Codeine_Guideline.pdf"}
	parser := &fakeParser{elements: validElements(3)}
	svc := NewService(store, index, fetcher, parser)

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.NoError(t, err)

	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.Contains(t, result.Message, "3 elements")
	assert.Contains(t, result.Message, "3 chunks embedded")
	assert.NotEmpty(t, result.GuidelineID)

	assert.True(t, fetcher.fetchCalled)
	assert.Equal(t, 1, store.storeCalls)
	assert.Equal(t, 3, store.storedChunks)
	require.Len(t, index.inserted, 3)
	assert.Equal(t, "CYP2D6", index.inserted[0].Gene)
}

func TestIngest_UsesLocalPDFWhenPresent(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}
	fetcher := &fakeFetcher{localPath: "/tmp/pdfs/CYP2D6_Codeine_Guideline.pdf"}
	parser := &fakeParser{elements: validElements(2)}
	svc := NewService(store, index, fetcher, parser)

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, result.Status)
	assert.False(t, fetcher.fetchCalled)
}

func TestIngest_PairNotFound(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}
	fetcher := &fakeFetcher{fetchErr: errors.New("gene-drug pair (XXX/Nonexistent) not found in the CPIC database")}
	parser := &fakeParser{}
	svc := NewService(store, index, fetcher, parser)

	result, err := svc.Ingest(context.Background(), "XXX", "Nonexistent")
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "CPIC database")
	assert.False(t, parser.called)
	assert.Zero(t, store.storeCalls)
	assert.Zero(t, index.calls)
}

func TestIngest_ParserFailure(t *testing.T) {
	store := &fakeStore{}
	index := &fakeIndex{}
	fetcher := &fakeFetcher{fetchPath: "/tmp/pdfs/CYP2D6_Codeine_Guideline.pdf"}
	parser := &fakeParser{parseErr: errors.New("service unavailable")}
	svc := NewService(store, index, fetcher, parser)

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "CYP2D6_Codeine_Guideline.pdf")
	assert.Zero(t, store.storeCalls)
}

func TestIngest_NoElements(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, &fakeIndex{}, &fakeFetcher{fetchPath: "/tmp/x.pdf"}, &fakeParser{})

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "no elements")
	assert.Zero(t, store.storeCalls)
}

func TestIngest_OnlyNoiseElements(t *testing.T) {
	store := &fakeStore{}
	parser := &fakeParser{elements: []models.RawElement{
		{Type: "Header", Text: "  "},
		{Type: "ListItem", Text: "short"},
	}}
	svc := NewService(store, &fakeIndex{}, &fakeFetcher{fetchPath: "/tmp/x.pdf"}, parser)

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, result.Status)
	assert.Contains(t, result.Message, "No meaningful text")
	assert.Zero(t, store.storeCalls)
}

func TestIngest_StoreFailurePropagates(t *testing.T) {
	store := &fakeStore{storeErr: errors.New("connection refused")}
	svc := NewService(store, &fakeIndex{}, &fakeFetcher{fetchPath: "/tmp/x.pdf"}, &fakeParser{elements: validElements(1)})

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestIngest_IndexFailurePropagates(t *testing.T) {
	index := &fakeIndex{insertErr: errors.New("embedding quota exceeded")}
	svc := NewService(&fakeStore{}, index, &fakeFetcher{fetchPath: "/tmp/x.pdf"}, &fakeParser{elements: validElements(1)})

	result, err := svc.Ingest(context.Background(), "CYP2D6", "Codeine")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, strings.Contains(err.Error(), "quota"))
}
