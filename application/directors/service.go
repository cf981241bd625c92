// Package directors implements the CRUD lifecycle and presentation state
// for the directors org chart, using the shared API client exclusively
// for persistence.
package directors

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"manara-client/domain/directors"
	"manara-client/infrastructure/httpclient"
	apperrors "manara-client/pkg/errors"
)

// Upload is a file attached to a create or update.
type Upload struct {
	Filename string
	Content  []byte
}

// CreateInput carries the fields for a new director. Name and position
// are checked client-side before any network call; everything else is
// the server's to validate.
type CreateInput struct {
	Name     string `validate:"required"`
	Position string `validate:"required"`
	ParentID *int64
	Image    *Upload
}

// UpdateInput is a partial update. Nil fields are left untouched.
// MakeRoot moves the node to the top level; it wins over ParentID.
type UpdateInput struct {
	Name     *string
	Position *string
	ParentID *int64
	MakeRoot bool
	Image    *Upload
}

// Service manages the directors resource. The in-memory tree, flat list
// and expanded-node set survive failed operations untouched; only a
// successful fetch replaces them.
type Service struct {
	client   httpclient.Doer
	baseURL  string
	validate *validator.Validate
	logger   *zap.Logger

	mu       sync.RWMutex
	index    *directors.Index
	expanded *directors.ExpandedSet
	flat     []directors.Node
}

// NewService creates a directors service on top of the shared client.
func NewService(client httpclient.Doer, baseURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		client:   client,
		baseURL:  baseURL,
		validate: validator.New(),
		logger:   logger.Named("directors"),
		expanded: directors.NewExpandedSet(),
	}
}

// FetchTree loads the nested representation, replaces the in-memory tree
// and resets the expanded set to every node. On failure the previous tree
// stays in place and the error is returned.
func (s *Service) FetchTree(ctx context.Context) (*directors.Index, error) {
	resp, err := s.client.Do(ctx, httpclient.NewRequest(http.MethodGet, s.baseURL+"/api/directors/tree"))
	if err != nil {
		return nil, apperrors.Wrap(err, "fetching director tree")
	}

	var roots []*directors.Node
	if _, err := httpclient.Decode(resp.Body, &roots); err != nil {
		return nil, apperrors.Wrap(err, "decoding director tree")
	}

	index, err := directors.BuildIndex(roots)
	if err != nil {
		return nil, apperrors.NewInternal("director tree violates hierarchy invariants", err)
	}

	s.mu.Lock()
	s.index = index
	s.expanded.ExpandAll(index)
	s.mu.Unlock()

	s.logger.Debug("director tree loaded", zap.Int("nodes", index.Len()))
	return index, nil
}

// FetchFlatList loads the flat representation used to populate parent
// choices in forms. Independent of the tree state.
func (s *Service) FetchFlatList(ctx context.Context) ([]directors.Node, error) {
	resp, err := s.client.Do(ctx, httpclient.NewRequest(http.MethodGet, s.baseURL+"/api/directors"))
	if err != nil {
		return nil, apperrors.Wrap(err, "fetching director list")
	}

	var flat []directors.Node
	if _, err := httpclient.Decode(resp.Body, &flat); err != nil {
		return nil, apperrors.Wrap(err, "decoding director list")
	}

	s.mu.Lock()
	s.flat = flat
	s.mu.Unlock()
	return flat, nil
}

// Tree returns the current index and expanded set. ok is false before the
// first successful fetch.
func (s *Service) Tree() (index *directors.Index, expanded *directors.ExpandedSet, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index, s.expanded, s.index != nil
}

// FlatList returns the last fetched flat representation.
func (s *Service) FlatList() []directors.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]directors.Node, len(s.flat))
	copy(out, s.flat)
	return out
}

// ParentChoices returns the flat list minus the node being edited, so a
// node can never be offered as its own parent. The server remains the
// final authority on cycle prevention.
func (s *Service) ParentChoices(excludeID int64) []directors.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]directors.Node, 0, len(s.flat))
	for _, node := range s.flat {
		if node.ID == excludeID {
			continue
		}
		out = append(out, node)
	}
	return out
}

// Create submits a new director as a multipart request. The precondition
// check rejects empty name/position before any network call. On success
// both representations are refreshed; the server assigns the id.
func (s *Service) Create(ctx context.Context, input CreateInput) error {
	if err := s.checkRequired(input); err != nil {
		return err
	}

	form := newMultipartForm()
	form.field("name", input.Name)
	form.field("position", input.Position)
	if input.ParentID != nil {
		form.field("parent_id", strconv.FormatInt(*input.ParentID, 10))
	}
	if input.Image != nil {
		form.file("image", input.Image)
	}
	body, contentType, err := form.encode()
	if err != nil {
		return apperrors.NewInternal("encoding create form", err)
	}

	req := httpclient.NewRequest(http.MethodPost, s.baseURL+"/api/directors")
	req.Body = body
	req.ContentType = contentType

	if _, err := s.client.Do(ctx, req); err != nil {
		return apperrors.Wrap(err, "creating director")
	}
	return s.refresh(ctx)
}

// Update submits a partial update keyed by id. The id itself is never an
// editable field. Sent as multipart with Laravel's _method=PUT spoofing
// so the image upload survives.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) error {
	form := newMultipartForm()
	form.field("_method", "PUT")
	if input.Name != nil {
		form.field("name", *input.Name)
	}
	if input.Position != nil {
		form.field("position", *input.Position)
	}
	switch {
	case input.MakeRoot:
		form.field("parent_id", "")
	case input.ParentID != nil:
		if *input.ParentID == id {
			return apperrors.NewValidation("a director cannot be its own parent", map[string][]string{
				"parent_id": {"a director cannot be its own parent"},
			})
		}
		form.field("parent_id", strconv.FormatInt(*input.ParentID, 10))
	}
	if input.Image != nil {
		form.file("image", input.Image)
	}
	body, contentType, err := form.encode()
	if err != nil {
		return apperrors.NewInternal("encoding update form", err)
	}

	req := httpclient.NewRequest(http.MethodPost, fmt.Sprintf("%s/api/directors/%d", s.baseURL, id))
	req.Body = body
	req.ContentType = contentType

	if _, err := s.client.Do(ctx, req); err != nil {
		return apperrors.Wrap(err, "updating director")
	}
	return s.refresh(ctx)
}

// Delete removes a director. Irreversible; callers obtain explicit
// confirmation before invoking this. On failure the previously rendered
// tree and list are left unchanged.
func (s *Service) Delete(ctx context.Context, id int64) error {
	req := httpclient.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/directors/%d", s.baseURL, id))
	if _, err := s.client.Do(ctx, req); err != nil {
		return apperrors.Wrap(err, "deleting director")
	}
	return s.refresh(ctx)
}

// refresh re-fetches both representations after a successful write.
// There is no shared invalidation mechanism between them; re-fetching is
// the contract.
func (s *Service) refresh(ctx context.Context) error {
	if _, err := s.FetchTree(ctx); err != nil {
		return err
	}
	if _, err := s.FetchFlatList(ctx); err != nil {
		return err
	}
	return nil
}

// checkRequired enforces the client-side precondition: name and position
// must be non-empty before a create is attempted.
func (s *Service) checkRequired(input CreateInput) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	fields := make(map[string][]string)
	if invalid, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range invalid {
			switch fieldErr.Field() {
			case "Name":
				fields["name"] = []string{"name is required"}
			case "Position":
				fields["position"] = []string{"position is required"}
			}
		}
	}
	return apperrors.NewValidation("missing required fields", fields)
}

// multipartForm is a small builder over mime/multipart.
type multipartForm struct {
	buf    bytes.Buffer
	writer *multipart.Writer
	err    error
}

func newMultipartForm() *multipartForm {
	f := &multipartForm{}
	f.writer = multipart.NewWriter(&f.buf)
	return f
}

func (f *multipartForm) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.writer.WriteField(name, value)
}

func (f *multipartForm) file(name string, upload *Upload) {
	if f.err != nil {
		return
	}
	part, err := f.writer.CreateFormFile(name, upload.Filename)
	if err != nil {
		f.err = err
		return
	}
	_, f.err = part.Write(upload.Content)
}

func (f *multipartForm) encode() (body []byte, contentType string, err error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.writer.Close(); err != nil {
		return nil, "", err
	}
	return f.buf.Bytes(), f.writer.FormDataContentType(), nil
}
