package services

import "github.com/Nivk0/ktpilot-rag-bot/internal/config"

// EngineConfig collects the tunable constants of the retrieval pipeline.
// The default weights and floors are the values the scoring was calibrated
// with; the two relevance floors (chunk 8, sentence 15) gate different
// layers on purpose and are not meant to agree.
type EngineConfig struct {
	ChunkSize    int
	ChunkOverlap int

	// Scorer weights
	PhraseWeight    float64
	TitleWeight     float64
	FilenameWeight  float64
	TermWeight      float64
	CoverageWeight  float64
	ProximityWeight float64
	ProximityWindow int

	// Floors and caps
	MinChunkScore        float64
	MinSentenceScore     float64
	AskTopK              int
	SearchTopK           int
	MaxContextChunks     int
	MaxSentencesPerChunk int
	MaxAnswerSentences   int
	MaxAnswerLength      int
	SnippetLength        int
	NeighborCap          int
}

// DefaultEngineConfig returns the calibrated defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		ChunkSize:    500,
		ChunkOverlap: 100,

		PhraseWeight:    100,
		TitleWeight:     50,
		FilenameWeight:  30,
		TermWeight:      5,
		CoverageWeight:  40,
		ProximityWeight: 20,
		ProximityWindow: 200,

		MinChunkScore:        8,
		MinSentenceScore:     15,
		AskTopK:              12,
		SearchTopK:           20,
		MaxContextChunks:     6,
		MaxSentencesPerChunk: 5,
		MaxAnswerSentences:   12,
		MaxAnswerLength:      800,
		SnippetLength:        200,
		NeighborCap:          200,
	}
}

// EngineConfigFromApp overlays the env-tunable fields onto the defaults.
func EngineConfigFromApp(cfg *config.Config) EngineConfig {
	ec := DefaultEngineConfig()
	if cfg == nil {
		return ec
	}
	if cfg.ChunkSize > 0 {
		ec.ChunkSize = cfg.ChunkSize
	}
	if cfg.ChunkOverlap >= 0 {
		ec.ChunkOverlap = cfg.ChunkOverlap
	}
	if cfg.MinChunkScore > 0 {
		ec.MinChunkScore = cfg.MinChunkScore
	}
	if cfg.MinSentenceScore > 0 {
		ec.MinSentenceScore = cfg.MinSentenceScore
	}
	if cfg.AskTopK > 0 {
		ec.AskTopK = cfg.AskTopK
	}
	if cfg.SearchTopK > 0 {
		ec.SearchTopK = cfg.SearchTopK
	}
	if cfg.MaxContextChunks > 0 {
		ec.MaxContextChunks = cfg.MaxContextChunks
	}
	return ec
}
