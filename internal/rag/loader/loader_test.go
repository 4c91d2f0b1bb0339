package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseTable_StripsBOMAndChecksColumns(t *testing.T) {
	rows, err := parseTable(strings.NewReader("\ufeffa,b\n1,2\n3\n"), "t.csv", "a", "b")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0]["a"])
	assert.Equal(t, "2", rows[0]["b"])
	assert.Equal(t, "", rows[1]["b"])

	_, err = parseTable(strings.NewReader("a\n1\n"), "t.csv", "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `missing column "b"`)
}

func TestSplitIngredients(t *testing.T) {
	got := SplitIngredients("[재료] 돼지고기 200g| 김치 1/4포기 |\u200b두부 1모 | |[양념] 고춧가루 1큰술")
	assert.Equal(t, []string{"돼지고기 200g", "김치 1/4포기", "두부 1모", "고춧가루 1큰술"}, got)
	assert.Empty(t, SplitIngredients("[재료]"))
}

func TestRecipesLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "recipes.csv",
		"\ufeffRCP_SNO,CKG_NM,CKG_MTRL_CN\n"+
			"1,김치찌개,[재료] 김치|돼지고기|두부\n"+
			"2,,[재료] 물\n"+
			"3,빈요리,[재료]\n")

	docs, err := NewRecipesLoader().Load(context.Background(), document.Source{URI: path})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "요리명: 김치찌개\n재료: 김치, 돼지고기, 두부", docs[0].Content)
	assert.Equal(t, "recipes.csv", docs[0].MetaData[model.MetaSourceFile])
	assert.Equal(t, "recipe", docs[0].MetaData[model.MetaKind])
}

func TestRecipesLoader_LoadEUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String("CKG_NM,CKG_MTRL_CN\n김치찌개,[재료] 김치|두부|돼지고기\n")
	require.NoError(t, err)
	path := writeFile(t, t.TempDir(), "recipes.csv", encoded)

	docs, err := NewRecipesLoader().Load(context.Background(), document.Source{URI: path})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "요리명: 김치찌개\n재료: 김치, 두부, 돼지고기", docs[0].Content)
}

func TestDecodeKorean_KeepsUTF8(t *testing.T) {
	raw := []byte("식품명,칼륨(mg)\n감자,396\n")
	out, err := decodeKorean(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestFoodsLoader_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "foods.csv",
		"식품군,식품명,출처,에너지(kcal),단백질(mg),인(mg),칼륨(mg),나트륨(mg),영양성분함량기준량\n"+
			"채소류,시금치_생것,농촌진흥청,30,3100,40,502,54,100g\n"+
			"곡류,,x,1,1,1,1,1,100g\n")

	docs, err := NewFoodsLoader().Load(context.Background(), document.Source{URI: path})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t,
		"식품명: 시금치, 생것\n식품군: 채소류\n기준량: 100g\n에너지: 30 kcal\n단백질: 3100 mg\n인: 40 mg\n칼륨: 502 mg\n나트륨: 54 mg\n출처: 농촌진흥청",
		docs[0].Content)
	assert.Equal(t, "food", docs[0].MetaData[model.MetaKind])
}

func TestFoodsLoader_MissingFile(t *testing.T) {
	_, err := NewFoodsLoader().Load(context.Background(), document.Source{URI: filepath.Join(t.TempDir(), "nope.csv")})
	require.Error(t, err)
}

func TestLoadPDFDir_Empty(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadPDFDir(context.Background(), NewPDFLoader(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no PDF files found")
}

func TestPDFLoader_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.pdf", "not a pdf")
	_, err := NewPDFLoader().Load(context.Background(), document.Source{URI: path})
	require.Error(t, err)
}
