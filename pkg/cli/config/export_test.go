package config

import "time"

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(project, location string) *Gemini {
	return &Gemini{
		project:  project,
		location: location,
	}
}

// NewLLMForTest creates an LLM config with the Mistral provider settings
func NewLLMForTest(provider, apiKey string) *LLM {
	return &LLM{
		provider:      provider,
		mistralAPIKey: apiKey,
		mistralURL:    "http://localhost:0",
		mistralModel:  "mistral-tiny",
	}
}

// NewEmbeddingForTest creates an Embedding config for testing purposes
func NewEmbeddingForTest(provider string, dimension int, openaiKey string) *Embedding {
	return &Embedding{
		provider:  provider,
		dimension: dimension,
		hfURL:     "http://localhost:0",
		oaiKey:    openaiKey,
		oaiModel:  "text-embedding-3-small",
	}
}

// NewVectorStoreForTest creates a VectorStore config for testing purposes
func NewVectorStoreForTest(backend, dsn, projectID string) *VectorStore {
	return &VectorStore{
		backend:   backend,
		dsn:       dsn,
		projectID: projectID,
	}
}

// NewChatForTest creates a Chat config for testing purposes
func NewChatForTest(persona, streamMode string, matchCount int, matchThreshold float64, chunkDelay time.Duration) *Chat {
	return &Chat{
		persona:        persona,
		maxMessages:    10,
		matchCount:     matchCount,
		matchThreshold: matchThreshold,
		streamMode:     streamMode,
		chunkDelay:     chunkDelay,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}
