package extractor

import (
	"fmt"
	"strings"

	"cpic-rag/internal/models"
)

// Extract turns raw parsed elements into indexable chunks, in source order.
// Elements whose trimmed text is shorter than models.MinChunkChars are noise
// (page headers, bullet glyphs) and are dropped, not reported.
func Extract(elements []models.RawElement, gene, drug string) []models.Chunk {
	var chunks []models.Chunk
	for _, elem := range elements {
		text := strings.TrimSpace(elem.Text)
		if len(text) < models.MinChunkChars {
			continue
		}

		title := elem.Metadata.Filename
		if title == "" {
			title = fmt.Sprintf("%s_%s", gene, drug)
		}

		chunks = append(chunks, models.Chunk{
			Content:     text,
			Title:       title,
			Page:        elem.Metadata.PageNumber,
			Source:      models.ChunkSource,
			Gene:        gene,
			Drug:        drug,
			ElementType: elem.Type,
		})
	}
	return chunks
}
