package model

// Purpose selects the retrieval query, threshold and web fallback used when
// assembling context for a chain.
type Purpose string

const (
	PurposeIngredients    Purpose = "ingredients"
	PurposeRecommendation Purpose = "recommendation"
	PurposeSummary        Purpose = "summary"
	PurposeQuiz           Purpose = "quiz"
)

// Metadata keys attached to indexed documents.
const (
	MetaSourceFile = "source_file"
	MetaPage       = "page"
	MetaChunkIndex = "chunk_index"
	MetaKind       = "kind"
)
