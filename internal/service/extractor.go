package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"invoice-crossref/internal/domain"
)

// minTextLayerLength is the shortest page text the embedded text layer is
// trusted for; anything below it flags the page for an OCR fallback.
const minTextLayerLength = 20

// FitzExtractor reads page text through MuPDF. It implements
// domain.PageExtractor.
type FitzExtractor struct {
	logger      domain.Logger
	pageTimeout time.Duration
}

// NewFitzExtractor creates a PDF page extractor.
func NewFitzExtractor(logger domain.Logger, pageTimeout time.Duration) *FitzExtractor {
	return &FitzExtractor{
		logger:      logger,
		pageTimeout: pageTimeout,
	}
}

// PageCount returns the number of pages in the document.
func (e *FitzExtractor) PageCount(pdf []byte) (int, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// ExtractPage returns the text of one page. A page that hangs in the
// rendering layer is abandoned after the configured timeout and reported as
// an extraction error.
func (e *FitzExtractor) ExtractPage(pdf []byte, pageIndex int) (string, bool, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return "", false, &domain.ExtractionError{Page: pageIndex, Cause: fmt.Errorf("failed to open PDF: %w", err)}
	}

	type pageResult struct {
		text string
		err  error
	}
	resultCh := make(chan pageResult, 1)
	go func() {
		t, terr := doc.Text(pageIndex)
		resultCh <- pageResult{text: t, err: terr}
	}()

	var text string
	select {
	case res := <-resultCh:
		doc.Close()
		if res.err != nil {
			return "", false, &domain.ExtractionError{Page: pageIndex, Cause: res.err}
		}
		text = res.text
	case <-time.After(e.pageTimeout):
		e.logger.Warn("PDF page extraction timeout", "page", pageIndex+1, "timeout_sec", int(e.pageTimeout.Seconds()))
		go func() {
			// Drain the abandoned extraction, then release the document.
			<-resultCh
			doc.Close()
		}()
		return "", false, &domain.ExtractionError{Page: pageIndex, Cause: fmt.Errorf("timeout after %v", e.pageTimeout)}
	}

	text = strings.TrimSpace(text)
	usedFallback := len(text) < minTextLayerLength
	return text, usedFallback, nil
}
