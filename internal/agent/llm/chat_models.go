package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// ClientConfig holds the Gemini API credentials shared by chat and embedding models.
type ClientConfig struct {
	APIKey  string
	BaseURL string
}

// NewClient creates the shared genai client.
func NewClient(ctx context.Context, config ClientConfig) (*genai.Client, error) {
	if config.APIKey == "" {
		return nil, errx.Config("GEMINI_API_KEY is not set")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// ChatModels holds the router model (classification, extraction, yes/no)
// and the generation model used by the answer chains.
type ChatModels struct {
	Router              *gemini.ChatModel
	Generation          *gemini.ChatModel
	RouterModelName     string
	GenerationModelName string
}

// NewChatModels creates both chat models on top of one client.
func NewChatModels(ctx context.Context, client *genai.Client, routerCfg model.RouterModelConfig, genCfg model.GenerationModelConfig) (*ChatModels, error) {
	router, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       routerCfg.Model,
		Temperature: &routerCfg.Temperature,
		MaxTokens:   &routerCfg.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating router model")
		return nil, fmt.Errorf("error creating router model: %w", err)
	}

	generation, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       genCfg.Model,
		Temperature: &genCfg.Temperature,
		MaxTokens:   &genCfg.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			IncludeThoughts: false,
			ThinkingBudget:  genai.Ptr(genCfg.ThinkingBudget),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generation model")
		return nil, fmt.Errorf("error creating generation model: %w", err)
	}

	logx.Debug().
		Str("router_model", routerCfg.Model).
		Str("generation_model", genCfg.Model).
		Msg("chat models ready")

	return &ChatModels{
		Router:              router,
		Generation:          generation,
		RouterModelName:     routerCfg.Model,
		GenerationModelName: genCfg.Model,
	}, nil
}
