package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/wahid18-maqs/blood-test-analyser/internal/agent/document"
	"github.com/wahid18-maqs/blood-test-analyser/internal/models"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
)

const maxWorkers = 4

type Processor struct {
	logger logger.Logger
}

func NewProcessor(logger logger.Logger) *Processor {
	return &Processor{
		logger: logger,
	}
}

// Extract reads every page in parallel and joins the cleaned page texts in page order.
func (p *Processor) Extract(ctx context.Context, file io.Reader) (string, error) {
	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return document.EmptyDocumentText, nil
	}

	pages, err := p.Pages(ctx, content)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		p.logger.Warn("PDF could not be parsed", logger.Error(err))
		return document.UnreadableDocumentText, nil
	}

	var sb strings.Builder
	for _, page := range pages {
		if page.Text == "" {
			continue
		}
		sb.WriteString(page.Text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return document.EmptyDocumentText, nil
	}
	return text, nil
}

// Pages returns the cleaned text of each page, ordered by page number.
func (p *Processor) Pages(ctx context.Context, content []byte) (pages []models.DocumentPage, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, reader.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := pdfReader.NumPage()
	pages = make([]models.DocumentPage, numPages)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			text, err := pageText(pdfReader, pageNum)
			if err != nil {
				return fmt.Errorf("failed to get text from page %d: %w", pageNum, err)
			}
			pages[pageNum-1] = models.DocumentPage{
				Number: pageNum,
				Text:   document.CleanText(text),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed page: %v", rec)
		}
	}()
	page := r.Page(num)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (p *Processor) Close() error {
	return nil
}
