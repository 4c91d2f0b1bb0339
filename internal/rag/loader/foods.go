package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

// Columns of the cleaned national food composition table.
const (
	colFoodGroup  = "식품군"
	colFoodName   = "식품명"
	colFoodOrigin = "출처"
	colEnergy     = "에너지(kcal)"
	colProtein    = "단백질(mg)"
	colPhosphorus = "인(mg)"
	colPotassium  = "칼륨(mg)"
	colSodium     = "나트륨(mg)"
	colBasis      = "영양성분함량기준량"
)

// FoodsLoader turns each food composition row into a short passage.
type FoodsLoader struct{}

func NewFoodsLoader() *FoodsLoader {
	return &FoodsLoader{}
}

func (l *FoodsLoader) Load(ctx context.Context, src document.Source, _ ...document.LoaderOption) ([]*schema.Document, error) {
	rows, err := readTable(src.URI, colFoodName, colEnergy, colProtein, colPhosphorus, colPotassium, colSodium)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(src.URI)

	docs := make([]*schema.Document, 0, len(rows))
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		food := strings.ReplaceAll(row[colFoodName], "_", ", ")
		if food == "" {
			continue
		}
		docs = append(docs, &schema.Document{
			Content: foodPassage(food, row),
			MetaData: map[string]any{
				model.MetaSourceFile: name,
				model.MetaKind:       "food",
			},
		})
	}
	return docs, nil
}

func foodPassage(food string, row map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "식품명: %s\n", food)
	if g := row[colFoodGroup]; g != "" {
		fmt.Fprintf(&b, "식품군: %s\n", g)
	}
	basis := row[colBasis]
	if basis == "" {
		basis = "100g"
	}
	fmt.Fprintf(&b, "기준량: %s\n", basis)
	fmt.Fprintf(&b, "에너지: %s kcal\n", orDash(row[colEnergy]))
	fmt.Fprintf(&b, "단백질: %s mg\n", orDash(row[colProtein]))
	fmt.Fprintf(&b, "인: %s mg\n", orDash(row[colPhosphorus]))
	fmt.Fprintf(&b, "칼륨: %s mg\n", orDash(row[colPotassium]))
	fmt.Fprintf(&b, "나트륨: %s mg", orDash(row[colSodium]))
	if o := row[colFoodOrigin]; o != "" {
		fmt.Fprintf(&b, "\n출처: %s", o)
	}
	return b.String()
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}

var _ document.Loader = (*FoodsLoader)(nil)
