package loader

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

const (
	colRecipeName        = "CKG_NM"
	colRecipeIngredients = "CKG_MTRL_CN"
)

var (
	bracketGroup = regexp.MustCompile(`\[[^\]]*\]`)
	controlChars = regexp.MustCompile(`[\x00-\x1F\x{200B}\x{00A0}]+`)
)

// RecipesLoader reads the public recipe dataset: one passage per dish listing
// its ingredients.
type RecipesLoader struct{}

func NewRecipesLoader() *RecipesLoader {
	return &RecipesLoader{}
}

func (l *RecipesLoader) Load(ctx context.Context, src document.Source, _ ...document.LoaderOption) ([]*schema.Document, error) {
	rows, err := readTable(src.URI, colRecipeName, colRecipeIngredients)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(src.URI)

	docs := make([]*schema.Document, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dish := row[colRecipeName]
		ingredients := SplitIngredients(row[colRecipeIngredients])
		if dish == "" || len(ingredients) == 0 {
			continue
		}
		docs = append(docs, &schema.Document{
			Content: "요리명: " + dish + "\n재료: " + strings.Join(ingredients, ", "),
			MetaData: map[string]any{
				model.MetaSourceFile: name,
				model.MetaKind:       "recipe",
			},
		})
	}
	return docs, nil
}

// SplitIngredients drops bracketed section labels such as "[재료]", strips
// control and zero-width characters and splits on '|'.
func SplitIngredients(text string) []string {
	text = bracketGroup.ReplaceAllString(text, "")
	text = controlChars.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	var out []string
	for _, part := range strings.Split(text, "|") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var _ document.Loader = (*RecipesLoader)(nil)
