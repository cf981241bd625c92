// Package content provides typed clients for the public site's content
// resources: news, sections, speeches and clue documents.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"manara-client/infrastructure/httpclient"
	apperrors "manara-client/pkg/errors"
)

// News is one news article.
type News struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Image       string `json:"image,omitempty"`
	SectionID   *int64 `json:"section_id"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Section is one site section.
type Section struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
}

// Speech is one published speech.
type Speech struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author string `json:"author,omitempty"`
}

// Clue is one downloadable PDF document.
type Clue struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	File  string `json:"file"`
}

// Page is one page of a listed resource.
type Page[T any] struct {
	Items []T
	Meta  *httpclient.PageMeta
}

// Service exposes the content endpoints through the shared client. Image
// and file references are resolved to fully qualified asset URLs before
// they leave this package.
type Service struct {
	client   httpclient.Doer
	baseURL  string
	resolver *httpclient.AssetResolver
	logger   *zap.Logger
}

// NewService creates a content service on top of the shared client.
func NewService(client httpclient.Doer, baseURL string, resolver *httpclient.AssetResolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		baseURL:  baseURL,
		resolver: resolver,
		logger:   logger.Named("content"),
	}
}

// ListNews returns one page of news articles.
func (s *Service) ListNews(ctx context.Context, page int) (*Page[News], error) {
	items, meta, err := listResource[News](ctx, s, "/api/news", page)
	if err != nil {
		return nil, err
	}
	return &Page[News]{Items: items, Meta: meta}, nil
}

// GetNews returns a single article by id.
func (s *Service) GetNews(ctx context.Context, id int64) (*News, error) {
	resp, err := s.client.Do(ctx, httpclient.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/news/%d", s.baseURL, id)))
	if err != nil {
		return nil, apperrors.Wrap(err, "fetching news article")
	}
	var item News
	if _, err := httpclient.DecodeAnnotated(resp.Body, s.resolver, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// NewsInput carries the writable fields of a news article.
type NewsInput struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	SectionID *int64 `json:"section_id,omitempty"`
}

// CreateNews creates an article.
func (s *Service) CreateNews(ctx context.Context, input NewsInput) error {
	return s.writeJSON(ctx, http.MethodPost, s.baseURL+"/api/news", input)
}

// UpdateNews updates an article by id.
func (s *Service) UpdateNews(ctx context.Context, id int64, input NewsInput) error {
	return s.writeJSON(ctx, http.MethodPut, fmt.Sprintf("%s/api/news/%d", s.baseURL, id), input)
}

// DeleteNews removes an article. Irreversible; callers confirm first.
func (s *Service) DeleteNews(ctx context.Context, id int64) error {
	req := httpclient.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/news/%d", s.baseURL, id))
	if _, err := s.client.Do(ctx, req); err != nil {
		return apperrors.Wrap(err, "deleting news article")
	}
	return nil
}

// ListSections returns one page of sections.
func (s *Service) ListSections(ctx context.Context, page int) (*Page[Section], error) {
	items, meta, err := listResource[Section](ctx, s, "/api/sections", page)
	if err != nil {
		return nil, err
	}
	return &Page[Section]{Items: items, Meta: meta}, nil
}

// ListSpeeches returns one page of speeches.
func (s *Service) ListSpeeches(ctx context.Context, page int) (*Page[Speech], error) {
	items, meta, err := listResource[Speech](ctx, s, "/api/speeches", page)
	if err != nil {
		return nil, err
	}
	return &Page[Speech]{Items: items, Meta: meta}, nil
}

// ListClues returns one page of clue documents with resolved file URLs.
// The "file" key is not image-ish, so the annotator skips it and the
// resolution stays explicit here.
func (s *Service) ListClues(ctx context.Context, page int) (*Page[Clue], error) {
	items, meta, err := listResource[Clue](ctx, s, "/api/clues", page)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].File = s.resolver.ResolveURL(items[i].File)
	}
	return &Page[Clue]{Items: items, Meta: meta}, nil
}

func (s *Service) writeJSON(ctx context.Context, method, target string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewInternal("encoding payload", err)
	}
	req := httpclient.NewRequest(method, target)
	req.Body = body
	req.ContentType = "application/json"
	if _, err := s.client.Do(ctx, req); err != nil {
		return apperrors.Wrap(err, "writing "+target)
	}
	return nil
}

func listResource[T any](ctx context.Context, s *Service, path string, page int) ([]T, *httpclient.PageMeta, error) {
	target := s.baseURL + path
	if page > 1 {
		target += "?" + url.Values{"page": {fmt.Sprint(page)}}.Encode()
	}
	resp, err := s.client.Do(ctx, httpclient.NewRequest(http.MethodGet, target))
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "listing "+path)
	}
	var items []T
	meta, err := httpclient.DecodeAnnotated(resp.Body, s.resolver, &items)
	if err != nil {
		return nil, nil, err
	}
	return items, meta, nil
}
