package config

// QualityPreset describes the models to use for a given quality tier.
type QualityPreset struct {
	Model          string
	EmbeddingModel string
	EmbeddingDim   int
}

// qualityPresets maps each provider+quality combination to its model choices.
var qualityPresets = map[ProviderType]map[QualityTier]QualityPreset{
	ProviderAnthropic: {
		QualityLite:   {Model: "claude-haiku-4-5-20251001", EmbeddingModel: "text-embedding-3-small", EmbeddingDim: 1536},
		QualityNormal: {Model: "claude-sonnet-4-5-20250929", EmbeddingModel: "text-embedding-3-small", EmbeddingDim: 1536},
		QualityMax:    {Model: "claude-opus-4-5-20251101", EmbeddingModel: "text-embedding-3-large", EmbeddingDim: 3072},
	},
	ProviderOpenAI: {
		QualityLite:   {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small", EmbeddingDim: 1536},
		QualityNormal: {Model: "gpt-4o", EmbeddingModel: "text-embedding-3-small", EmbeddingDim: 1536},
		QualityMax:    {Model: "gpt-4", EmbeddingModel: "text-embedding-3-large", EmbeddingDim: 3072},
	},
	ProviderGoogle: {
		QualityLite:   {Model: "gemini-3-flash-preview", EmbeddingModel: "text-embedding-004", EmbeddingDim: 768},
		QualityNormal: {Model: "gemini-3-pro-preview", EmbeddingModel: "text-embedding-004", EmbeddingDim: 768},
		QualityMax:    {Model: "gemini-3-pro-preview", EmbeddingModel: "text-embedding-004", EmbeddingDim: 768},
	},
	ProviderOllama: {
		QualityLite:   {Model: "llama3", EmbeddingModel: "nomic-embed-text", EmbeddingDim: 768},
		QualityNormal: {Model: "llama3", EmbeddingModel: "nomic-embed-text", EmbeddingDim: 768},
		QualityMax:    {Model: "llama3:70b", EmbeddingModel: "nomic-embed-text", EmbeddingDim: 768},
	},
	ProviderMock: {
		QualityLite:   {Model: "mock", EmbeddingModel: "mock", EmbeddingDim: 384},
		QualityNormal: {Model: "mock", EmbeddingModel: "mock", EmbeddingDim: 384},
		QualityMax:    {Model: "mock", EmbeddingModel: "mock", EmbeddingDim: 384},
	},
}

// DefaultVaultInclude are the glob patterns the scanner looks for by
// default: Markdown notes plus the image formats OCR can act on.
var DefaultVaultInclude = []string{"*.md", "*.jpg", "*.jpeg", "*.png"}

// DefaultConfig returns a Config with sensible defaults for a single local
// vault, matching the distilled spec's component-level defaults (chunk
// size 512/overlap ~20%, 4 ingestion workers, min edge weight 0.1, top-5
// retrieval at a 0.3 score floor, 2000-token context budget).
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderAnthropic,
		Model:             "claude-sonnet-4-5-20250929",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		EmbeddingDim:      1536,
		Quality:           QualityNormal,

		Vault: VaultConfig{
			Include:       DefaultVaultInclude,
			MaxFileSizeMB: 10,
		},
		Chunking: ChunkingConfig{
			ChunkSize:          512,
			ChunkOverlap:       102,
			PreserveCodeBlocks: true,
			TokenizerVocabPath: "",
		},
		Ingestion: IngestionConfig{
			MaxWorkers: 4,
		},
		Graph: GraphConfig{
			MinEdgeWeight:    0.1,
			MaxEdgesPerNode:  20,
			KeywordMinLength: 3,
			Resolution:       1.0,
		},
		Retrieval: RetrievalConfig{
			MaxResults:       5,
			MinScore:         0.3,
			MaxContextTokens: 2000,
		},
		Conversation: ConversationConfig{
			PersistDir:    "",
			MaxTokens:     4000,
			HistoryTokens: 200,
		},
		Storage: StorageConfig{
			VectorDBPath: "./.kbengine/vector_db",
			CachePath:    "./.kbengine/cache.db",
			SnapshotDir:  "./.kbengine/snapshots",
		},
		LogLevel: "info",
	}
}

// GetPreset returns the quality preset for the given provider and tier.
// Returns the Normal Anthropic preset if the combination is not found.
func GetPreset(provider ProviderType, tier QualityTier) QualityPreset {
	if tiers, ok := qualityPresets[provider]; ok {
		if preset, ok := tiers[tier]; ok {
			return preset
		}
	}
	return qualityPresets[ProviderAnthropic][QualityNormal]
}
