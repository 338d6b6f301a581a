package services

import (
	"fmt"

	"voya/config"
)

// Hugging Face text-generation inference takes a single prompt string rather
// than a message list, so the system prompt is folded into an [INST] block.

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

// hfMaxNewTokens is the ceiling the hosted inference API accepts for most chat models.
const hfMaxNewTokens = 1024

func inferenceBody(cfg config.ProviderConfig, prompt string) any {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 || maxTokens > hfMaxNewTokens {
		maxTokens = hfMaxNewTokens
	}

	return hfRequest{
		Inputs: fmt.Sprintf("[INST] %s\n\n%s [/INST]", systemPrompt, prompt),
		Parameters: hfParameters{
			MaxNewTokens:   maxTokens,
			Temperature:    cfg.Temperature,
			ReturnFullText: false,
		},
	}
}
