// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/kb-sync/internal/httputil"
	"github.com/pdiddy/kb-sync/pkg/types"
)

// Defaults applied when the corresponding FreshdeskConfig field is empty.
const (
	DefaultCategory   = "Frequently Asked Questions"
	DefaultFilterDate = "2000-02-01T00:00:00Z"
	DefaultPerPage    = 100
	DefaultDocsDir    = "docs"
	defaultTimeout    = 60 * time.Second
)

// DefaultFolders are the solution folders synced when none are configured.
var DefaultFolders = []string{
	"New Features", "Connection", "Device", "Server", "User", "Card",
	"Wiegand", "Settings", "T&A", "Report", "BioStar 2 API (Current API)",
	"BioStar 2 TA API", "Visitor", "General",
}

// Freshdesk yields solution articles from selected folders of one
// Freshdesk category. Each article is written to the docs directory as
// Markdown and handed on by path.
type Freshdesk struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	category   string
	folders    []string
	perPage    int
	filterDate time.Time
	docsDir    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewFreshdesk validates cfg and returns a Freshdesk source. Domain may be
// a bare host ("example.freshdesk.com") or a full base URL.
func NewFreshdesk(cfg types.FreshdeskConfig, logger *slog.Logger) (*Freshdesk, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("freshdesk domain is not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("freshdesk API key is not configured")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	f := &Freshdesk{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   baseURL(cfg.Domain),
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		category:  cfg.Category,
		folders:   cfg.Folders,
		perPage:   cfg.PerPage,
		docsDir:   cfg.DocsDir,
		limiter:   rate.NewLimiter(rate.Inf, 1),
		logger:    logger,
	}
	if f.client.Timeout <= 0 {
		f.client.Timeout = defaultTimeout
	}
	if f.category == "" {
		f.category = DefaultCategory
	}
	if len(f.folders) == 0 {
		f.folders = DefaultFolders
	}
	if f.perPage <= 0 {
		f.perPage = DefaultPerPage
	}
	if f.docsDir == "" {
		f.docsDir = DefaultDocsDir
	}
	if cfg.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	filter := cfg.FilterDate
	if filter == "" {
		filter = DefaultFilterDate
	}
	t, err := time.Parse(types.TimestampLayout, filter)
	if err != nil {
		return nil, fmt.Errorf("parsing filter date %q: %w", filter, err)
	}
	f.filterDate = t
	return f, nil
}

func baseURL(domain string) string {
	if strings.HasPrefix(domain, "http://") || strings.HasPrefix(domain, "https://") {
		return strings.TrimSuffix(domain, "/")
	}
	return "https://" + strings.TrimSuffix(domain, "/")
}

// Name returns "freshdesk:<category>".
func (f *Freshdesk) Name() string { return "freshdesk:" + f.category }

type fdCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fdFolder struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type fdArticle struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// Items resolves the category and target folders, then returns a sequence
// that pages through each folder's articles in turn.
func (f *Freshdesk) Items(ctx context.Context) (iter.Seq[types.ContentItem], error) {
	folders, err := f.resolveFolders(ctx)
	if err != nil {
		return nil, err
	}

	return func(yield func(types.ContentItem) bool) {
		for _, folder := range folders {
			if !f.folderItems(ctx, folder, yield) {
				return
			}
		}
	}, nil
}

func (f *Freshdesk) resolveFolders(ctx context.Context) ([]fdFolder, error) {
	var categories []fdCategory
	if status, err := f.getJSON(ctx, "/api/v2/solutions/categories", nil, &categories); err != nil {
		return nil, &types.TransportError{Op: "listing categories", Status: status, Err: err}
	}
	idx := slices.IndexFunc(categories, func(c fdCategory) bool { return c.Name == f.category })
	if idx < 0 {
		return nil, &types.NotFoundError{Kind: "category", Name: f.category}
	}
	category := categories[idx]

	var all []fdFolder
	path := fmt.Sprintf("/api/v2/solutions/categories/%d/folders", category.ID)
	if status, err := f.getJSON(ctx, path, nil, &all); err != nil {
		return nil, &types.TransportError{Op: "listing folders", Status: status, Err: err}
	}

	var selected []fdFolder
	for _, folder := range all {
		if slices.Contains(f.folders, folder.Name) {
			selected = append(selected, folder)
		}
	}
	if len(selected) == 0 {
		return nil, &types.NotFoundError{Kind: "folder", Name: strings.Join(f.folders, ", ")}
	}
	f.logger.Info("resolved folders", "category", category.Name, "category_id", category.ID, "folders", len(selected))
	return selected, nil
}

// folderItems pages through one folder. It returns false when the consumer
// stopped the sequence.
func (f *Freshdesk) folderItems(ctx context.Context, folder fdFolder, yield func(types.ContentItem) bool) bool {
	path := fmt.Sprintf("/api/v2/solutions/folders/%d/articles", folder.ID)
	for page := 1; ; page++ {
		query := url.Values{
			"page":     {strconv.Itoa(page)},
			"per_page": {strconv.Itoa(f.perPage)},
		}
		var articles []fdArticle
		status, err := f.getJSON(ctx, path, query, &articles)
		if err != nil {
			terr := &types.TransportError{Op: fmt.Sprintf("listing articles in %q page %d", folder.Name, page), Status: status, Err: err}
			f.logger.Warn("article listing ended early", "folder", folder.Name, "reason", terr.Error())
			return ctx.Err() == nil
		}
		if len(articles) == 0 {
			return true
		}
		f.logger.Debug("fetched page", "folder", folder.Name, "page", page, "articles", len(articles))

		for _, a := range articles {
			item, ok := f.toItem(a)
			if !ok {
				continue
			}
			if !yield(item) {
				return false
			}
		}
	}
}

// toItem filters an article by date and writes its Markdown file.
func (f *Freshdesk) toItem(a fdArticle) (types.ContentItem, bool) {
	key := strconv.FormatInt(a.ID, 10)
	updated, _ := time.Parse(types.TimestampLayout, a.UpdatedAt)
	created, _ := time.Parse(types.TimestampLayout, a.CreatedAt)
	if !updated.IsZero() && updated.Before(f.filterDate) {
		f.logger.Debug("article before filter date", "key", key, "updated_at", a.UpdatedAt)
		return types.ContentItem{}, false
	}

	path, err := WriteMarkdown(f.docsDir, a.Title, a.Description)
	if err != nil {
		f.logger.Error("writing article", "key", key, "reason", err.Error())
		return types.ContentItem{}, false
	}
	return types.ContentItem{
		Key:             key,
		DisplayName:     a.Title,
		Path:            path,
		SourceUpdatedAt: updated,
		SourceCreatedAt: created,
	}, true
}

// getJSON issues an authenticated GET and decodes a 200 response into out.
// The returned status is zero when no response was received.
func (f *Freshdesk) getJSON(ctx context.Context, path string, query url.Values, out any) (int, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	reqURL := f.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth(f.apiKey, "X")
	req.Header.Set("Accept", "application/json")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, f.client, req, 0)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, fmt.Errorf("unexpected status from %s", path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}
