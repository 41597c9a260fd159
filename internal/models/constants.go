package models

const (
	// ChunkSource tags every chunk with the parsing pipeline it came from.
	ChunkSource = "unstructured_api"

	// ContextSeparator joins retrieved chunks into the grounding context.
	ContextSeparator = "\n\n---\n\n"

	// MinChunkChars is the cutoff below which parsed text is treated as
	// noise (page headers, bullet glyphs) and dropped.
	MinChunkChars = 20

	// SnippetChars bounds the source preview returned with each citation.
	SnippetChars = 300
)

var (
	AnswerPromptTemplate = `You are a clinical pharmacogenomics expert. Answer the
question using ONLY the provided guideline excerpts. If the information
is not in the context, say so clearly. Always cite the guideline source.

Be precise about dosing recommendations, gene-drug interactions,
phenotype classifications, and activity scores.

When the data supports it, format your answer with:
- A summary table (using markdown table syntax) for phenotype-based recommendations
- Key points as a numbered or bulleted list
- Bold (**text**) for critical values like dose adjustments

Context:
%s

Question: %s

Answer:`
)
