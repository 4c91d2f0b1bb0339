package model

// ================ Models ================

// RouterModelConfig drives the short deterministic calls: intent
// classification, dish extraction and the summary yes/no judgment.
type RouterModelConfig struct {
	Model       string  `envconfig:"ROUTER_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ROUTER_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"ROUTER_TEMPERATURE" default:"0.3"`
}

// GenerationModelConfig drives the recommendation, summary and quiz chains.
type GenerationModelConfig struct {
	Model          string  `envconfig:"GENERATION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens      int     `envconfig:"GENERATION_MAX_TOKENS" default:"4096"`
	Temperature    float32 `envconfig:"GENERATION_TEMPERATURE" default:"0.7"`
	ThinkingBudget int32   `envconfig:"MODEL_THINKING_BUDGET" default:"1024"`
}

type EmbeddingConfig struct {
	Model       string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	BatchSize   int    `envconfig:"EMBEDDING_BATCH_SIZE" default:"100"`
	Concurrency int    `envconfig:"EMBEDDING_CONCURRENCY" default:"4"`
}

// ================ Retrieval ================

type RetrievalConfig struct {
	Type      string  `envconfig:"RETRIEVER_TYPE" default:"basic"`
	K         int     `envconfig:"RETRIEVER_K" default:"4"`
	MMRLambda float64 `envconfig:"RETRIEVER_MMR_LAMBDA" default:"0.5"`
	MMRFetchK int     `envconfig:"RETRIEVER_MMR_FETCH_K" default:"0"`
}

type VectorStoreConfig struct {
	Backend    string `envconfig:"VECTOR_BACKEND" default:"file"`
	File       string `envconfig:"VECTOR_FILE" default:"./data/index/chunks.jsonl"`
	RedisKey   string `envconfig:"VECTOR_REDIS_KEY" default:"ckd:chunks"`
	Table      string `envconfig:"VECTOR_TABLE" default:"ckd_chunks"`
	Dimensions int    `envconfig:"VECTOR_DIMENSIONS" default:"768"`
}

type IngestConfig struct {
	PDFDir       string `envconfig:"PDF_DIR" default:"./data/pdf"`
	FoodsCSV     string `envconfig:"FOODS_CSV"`
	RecipesCSV   string `envconfig:"RECIPES_CSV"`
	ChunkSize    int    `envconfig:"CHUNK_SIZE" default:"1000"`
	ChunkOverlap int    `envconfig:"CHUNK_OVERLAP" default:"200"`
}

// ================ Collaborators ================

type WebSearchConfig struct {
	APIKey      string   `envconfig:"TAVILY_API_KEY"`
	BaseURL     string   `envconfig:"TAVILY_BASE_URL" default:"https://api.tavily.com"`
	SearchDepth string   `envconfig:"TAVILY_SEARCH_DEPTH" default:"basic"`
	Timeout     string   `envconfig:"TAVILY_TIMEOUT" default:"15s"`
	QuerySuffix string   `envconfig:"TAVILY_QUERY_SUFFIX" default:"영양 건강 신장질환"`
	Domains     []string `envconfig:"TAVILY_INCLUDE_DOMAINS"`
}

// ================ Runtime ================

type WorkflowConfig struct {
	MaxSteps int `envconfig:"WORKFLOW_MAX_STEPS" default:"8"`
}

type ServerConfig struct {
	Addr            string `envconfig:"HTTP_ADDR" default:":8080"`
	ReadTimeout     string `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    string `envconfig:"HTTP_WRITE_TIMEOUT" default:"180s"`
	ShutdownTimeout string `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"20s"`
}
