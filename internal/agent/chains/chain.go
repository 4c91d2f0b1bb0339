package chains

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
	errx "github.com/renal-diet-poc/server/internal/core/error"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// ContextAssembler builds the reference context for one purpose.
type ContextAssembler interface {
	Assemble(ctx context.Context, subject string, purpose model.Purpose) (string, error)
}

// textChain is prompt template -> chat model -> message text.
type textChain struct {
	name     string
	runnable compose.Runnable[map[string]any, string]
	handlers []callbacks.Handler
}

func newTextChain(ctx context.Context, name string, tpl prompt.ChatTemplate, cm einomodel.BaseChatModel, handlers []callbacks.Handler) (*textChain, error) {
	if cm == nil {
		return nil, errx.Config("%s chain has no chat model", name)
	}

	runnable, err := compose.NewChain[map[string]any, string]().
		AppendChatTemplate(tpl, compose.WithNodeName(name+"_prompt")).
		AppendChatModel(cm, compose.WithNodeName(name+"_model")).
		AppendLambda(compose.InvokableLambda(messageText), compose.WithNodeName(name+"_text")).
		Compile(ctx, compose.WithGraphName(name))
	if err != nil {
		logx.Error().Err(err).Str("chain", name).Msg("Error compiling chain")
		return nil, fmt.Errorf("error compiling %s chain: %w", name, err)
	}
	return &textChain{name: name, runnable: runnable, handlers: handlers}, nil
}

func (c *textChain) invoke(ctx context.Context, vars map[string]any) (string, error) {
	out, err := c.runnable.Invoke(ctx, vars, compose.WithCallbacks(c.handlers...))
	if err != nil {
		logx.Error().Err(err).Str("chain", c.name).Msg("chain failed")
		return "", errx.WrapModel(fmt.Errorf("%s: %w", c.name, err))
	}
	return out, nil
}

func messageText(_ context.Context, msg *schema.Message) (string, error) {
	if msg == nil {
		return "", nil
	}
	return msg.Content, nil
}
