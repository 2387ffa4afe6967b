// Package registrar reads the registrar's published exam schedules.
package registrar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/joseph-ayodele/syllabus-sync/internal/common"
)

// Scraper fetches a schedule page and returns the text of its <pre> block.
type Scraper struct {
	client *http.Client
	logger *slog.Logger
}

func NewScraper(client *http.Client, logger *slog.Logger) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scraper{client: client, logger: logger}
}

// FetchLines returns the lines of the page's preformatted block. A page without
// one yields no lines and a warning; the layout is fixed so drift shows up here.
func (s *Scraper) FetchLines(ctx context.Context, pageURL string) ([]string, error) {
	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	text, ok := PreText(doc)
	if !ok {
		s.logger.Warn("registrar.pre_block_missing", "url", pageURL)
		return nil, nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	s.logger.Info("registrar.page_fetched", "url", pageURL, "lines", len(lines))
	return lines, nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "syllabus-sync/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w: %w", pageURL, common.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registrar returned %s: %w", resp.Status, common.ErrUpstream)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// PreText returns the text of the first <pre> element.
func PreText(doc *goquery.Document) (string, bool) {
	pre := doc.Find("pre").First()
	if pre.Length() == 0 {
		return "", false
	}
	return pre.Text(), true
}
