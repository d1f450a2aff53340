package config

// QualityTier controls the model selection trade-off between speed/cost and
// quality for both the LLM and embedding provider.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderGoogle    ProviderType = "google"
	ProviderOllama    ProviderType = "ollama"
	ProviderMock      ProviderType = "mock"
)

// VaultConfig describes the source folders ingested into the knowledge
// base, one engine may track several.
type VaultConfig struct {
	SourceFolders []string `yaml:"source_folders" koanf:"source_folders"`
	Include       []string `yaml:"include" koanf:"include"`
	MaxFileSizeMB int64    `yaml:"max_file_size_mb" koanf:"max_file_size_mb"`
}

// ChunkingConfig tunes the chunker (C3).
type ChunkingConfig struct {
	ChunkSize          int    `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap       int    `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	PreserveCodeBlocks bool   `yaml:"preserve_code_blocks" koanf:"preserve_code_blocks"`
	TokenizerVocabPath string `yaml:"tokenizer_vocab_path" koanf:"tokenizer_vocab_path"`
}

// IngestionConfig tunes the ingestion orchestrator (C6).
type IngestionConfig struct {
	MaxWorkers int `yaml:"max_workers" koanf:"max_workers"`
}

// GraphConfig tunes the graph builder and analyzer (C7/C8).
type GraphConfig struct {
	MinEdgeWeight    float64 `yaml:"min_edge_weight" koanf:"min_edge_weight"`
	MaxEdgesPerNode  int     `yaml:"max_edges_per_node" koanf:"max_edges_per_node"`
	KeywordMinLength int     `yaml:"keyword_min_length" koanf:"keyword_min_length"`
	Resolution       float64 `yaml:"community_resolution" koanf:"community_resolution"`
}

// RetrievalConfig tunes the query processor (C10).
type RetrievalConfig struct {
	MaxResults       int     `yaml:"max_results" koanf:"max_results"`
	MinScore         float64 `yaml:"min_score" koanf:"min_score"`
	MaxContextTokens int     `yaml:"max_context_tokens" koanf:"max_context_tokens"`
}

// ConversationConfig tunes the conversation store (C11).
type ConversationConfig struct {
	PersistDir    string `yaml:"persist_dir" koanf:"persist_dir"`
	MaxTokens     int    `yaml:"max_tokens" koanf:"max_tokens"`
	HistoryTokens int    `yaml:"history_snippet_tokens" koanf:"history_snippet_tokens"`
}

// StorageConfig locates the durable artifacts the engine owns.
type StorageConfig struct {
	VectorDBPath string `yaml:"vector_db_path" koanf:"vector_db_path"`
	CachePath    string `yaml:"cache_path" koanf:"cache_path"`
	SnapshotDir  string `yaml:"snapshot_dir" koanf:"snapshot_dir"`
}

// Config is the top-level knowledge-base engine configuration,
// corresponding to .kbengine.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDim      int          `yaml:"embedding_dim" koanf:"embedding_dim"`
	Quality           QualityTier  `yaml:"quality" koanf:"quality"`

	Vault        VaultConfig        `yaml:"vault" koanf:"vault"`
	Chunking     ChunkingConfig     `yaml:"chunking" koanf:"chunking"`
	Ingestion    IngestionConfig    `yaml:"ingestion" koanf:"ingestion"`
	Graph        GraphConfig        `yaml:"graph" koanf:"graph"`
	Retrieval    RetrievalConfig    `yaml:"retrieval" koanf:"retrieval"`
	Conversation ConversationConfig `yaml:"conversation" koanf:"conversation"`
	Storage      StorageConfig      `yaml:"storage" koanf:"storage"`

	LogLevel string `yaml:"log_level" koanf:"log_level"`
}
