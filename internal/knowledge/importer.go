package knowledge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SmartGrade/internal/homework"
)

const (
	defaultImportLimit = 20
	minPageTextLength  = 100
	userAgent          = "SmartGrade/1.0 (knowledge import)"
)

// ImportResult summarizes a feed import.
type ImportResult struct {
	Added      []Item
	Duplicates int
	Empty      int
}

// Importer turns feeds and readable web pages into knowledge entries.
type Importer struct {
	store  *Store
	client *http.Client
	limit  int
}

// NewImporter creates an importer writing into store. limit caps the number
// of entries taken from one feed.
func NewImporter(store *Store, timeout time.Duration, limit int) *Importer {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if limit <= 0 {
		limit = defaultImportLimit
	}
	return &Importer{
		store: store,
		limit: limit,
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// ImportFeed adds one entry per RSS/Atom item. Items whose title already
// exists in the subject are skipped; feed categories become keywords.
func (im *Importer) ImportFeed(ctx context.Context, feedURL string, subject homework.Subject) (*ImportResult, error) {
	parser := gofeed.NewParser()
	parser.Client = im.client
	parser.UserAgent = userAgent

	feed, err := parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	existing, err := im.store.BySubject(subject)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	for _, it := range existing {
		seen[strings.ToLower(it.Title)] = struct{}{}
	}

	r := &ImportResult{}
	for _, fi := range feed.Items {
		if len(r.Added) >= im.limit {
			break
		}

		n, ok := feedItemToNew(fi, subject)
		if !ok {
			r.Empty++
			continue
		}
		key := strings.ToLower(n.Title)
		if _, dup := seen[key]; dup {
			r.Duplicates++
			continue
		}

		item, err := im.store.Add(n)
		if err != nil {
			return r, err
		}
		seen[key] = struct{}{}
		r.Added = append(r.Added, item)
	}

	zap.S().Infof("Imported %d entries from %s (%d duplicates, %d empty)",
		len(r.Added), feedURL, r.Duplicates, r.Empty)
	return r, nil
}

func feedItemToNew(fi *gofeed.Item, subject homework.Subject) (NewItem, bool) {
	title := strings.TrimSpace(fi.Title)
	if title == "" {
		return NewItem{}, false
	}

	var content string
	if fi.Content != "" {
		content = stripHTML(fi.Content)
	} else if fi.Description != "" {
		content = stripHTML(fi.Description)
	}
	if content == "" {
		return NewItem{}, false
	}

	var keywords []string
	for _, c := range fi.Categories {
		if c = strings.TrimSpace(c); c != "" {
			keywords = append(keywords, c)
		}
	}

	return NewItem{Title: title, Content: content, Subject: subject, Keywords: keywords}, true
}

// ImportPage fetches a web page, extracts its readable text and stores it as
// one entry.
func (im *Importer) ImportPage(ctx context.Context, pageURL string, subject homework.Subject, keywords []string) (Item, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Item{}, fmt.Errorf("invalid url %q: %w", pageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Item{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := im.client.Do(req)
	if err != nil {
		return Item{}, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return Item{}, &httpError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Item{}, fmt.Errorf("reading %s: %w", pageURL, err)
	}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return Item{}, fmt.Errorf("extracting content: %w", err)
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) < minPageTextLength {
		return Item{}, fmt.Errorf("no extractable content at %s", pageURL)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = parsedURL.Hostname()
	}

	item, err := im.store.Add(NewItem{Title: title, Content: text, Subject: subject, Keywords: keywords})
	if err != nil {
		return Item{}, err
	}
	zap.S().Infof("Imported page %q into %s knowledge base", title, subject.Label())
	return item, nil
}

type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("page returned %d %s", e.code, http.StatusText(e.code))
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	return strings.Join(strings.Fields(s), " ")
}
