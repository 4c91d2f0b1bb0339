package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/schema"
	pdf "github.com/ledongthuc/pdf"

	"github.com/renal-diet-poc/server/internal/agent/model"
	logx "github.com/renal-diet-poc/server/pkg/logger"
)

// PDFLoader yields one document per non-empty page.
type PDFLoader struct{}

func NewPDFLoader() *PDFLoader {
	return &PDFLoader{}
}

func (l *PDFLoader) Load(ctx context.Context, src document.Source, _ ...document.LoaderOption) ([]*schema.Document, error) {
	path := src.URI
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var docs []*schema.Document
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read %s page %d: %w", name, i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, &schema.Document{
			Content: text,
			MetaData: map[string]any{
				model.MetaSourceFile: name,
				model.MetaPage:       i,
				model.MetaKind:       "pdf",
			},
		})
	}
	return docs, nil
}

// LoadPDFDir loads every *.pdf in dir in name order. An empty directory is an error.
func LoadPDFDir(ctx context.Context, l document.Loader, dir string) ([]*schema.Document, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", dir)
	}
	sort.Strings(files)

	logx.Info().Int("files", len(files)).Str("dir", dir).Msg("loading PDF files")
	var docs []*schema.Document
	for _, f := range files {
		pages, err := l.Load(ctx, document.Source{URI: f})
		if err != nil {
			return nil, err
		}
		logx.Debug().Str("file", filepath.Base(f)).Int("pages", len(pages)).Msg("loaded PDF")
		docs = append(docs, pages...)
	}
	logx.Info().Int("pages", len(docs)).Msg("loaded pages total")
	return docs, nil
}

var _ document.Loader = (*PDFLoader)(nil)
