package observers

import (
	"context"
	"strings"

	einocb "github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	"github.com/renal-diet-poc/server/internal/agent/model"
	"github.com/renal-diet-poc/server/internal/metrics"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

const maxLoggedContent = 200

// newModelHandler logs model calls and feeds token usage into the run tracker.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *einomodel.CallbackInput) context.Context {
			ev := logx.Debug().Str("component", info.Name).Str("type", info.Type)
			if input != nil {
				ev = ev.Int("messages", len(input.Messages))
				if um := lastUserContent(input.Messages); um != "" {
					ev = ev.Str("user", clip(um))
				}
			}
			ev.Msg("model call start")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *einomodel.CallbackOutput) context.Context {
			if output == nil {
				return ctx
			}
			name := modelName(info, output)
			usage := tokenUsage(output)

			if t := UsageFrom(ctx); t != nil {
				t.Record(name, usage)
			}

			ev := logx.Debug().Str("component", info.Name).Str("model", name)
			if usage != nil {
				metrics.LLMTokens.WithLabelValues(name, "prompt").Add(float64(usage.PromptTokens))
				metrics.LLMTokens.WithLabelValues(name, "completion").Add(float64(usage.CompletionTokens))

				_, _, cost := model.ComputeCost(usage, model.ResolvePricing(name))
				ev = ev.Int("prompt_tokens", usage.PromptTokens).
					Int("completion_tokens", usage.CompletionTokens).
					Float64("cost_usd", cost)
			}
			if output.Message != nil {
				ev = ev.Int("output_chars", len([]rune(output.Message.Content)))
			}
			ev.Msg("model call end")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("component", info.Name).Str("type", info.Type).Msg("model call failed")
			return ctx
		},
	}
}

func modelName(info *einocb.RunInfo, output *einomodel.CallbackOutput) string {
	if output.Config != nil && output.Config.Model != "" {
		return output.Config.Model
	}
	return info.Name
}

// tokenUsage prefers the callback usage and falls back to the message meta,
// which is all a model without its own callbacks reports.
func tokenUsage(output *einomodel.CallbackOutput) *schema.TokenUsage {
	if output.TokenUsage != nil {
		return &schema.TokenUsage{
			PromptTokens:     output.TokenUsage.PromptTokens,
			CompletionTokens: output.TokenUsage.CompletionTokens,
			TotalTokens:      output.TokenUsage.TotalTokens,
		}
	}
	if output.Message != nil && output.Message.ResponseMeta != nil {
		return output.Message.ResponseMeta.Usage
	}
	return nil
}

func lastUserContent(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil {
			continue
		}
		if m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= maxLoggedContent {
		return s
	}
	return string(r[:maxLoggedContent]) + "…"
}
