package content

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"manara-client/infrastructure/httpclient"
	apperrors "manara-client/pkg/errors"
)

func newContentFixture(t *testing.T, handler http.Handler) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	resolver := httpclient.NewAssetResolver(server.URL)
	return NewService(httpclient.NewTransport(5*time.Second), server.URL, resolver, zap.NewNop())
}

func TestService_ListNewsUnwrapsSuccessEnvelope(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/news", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":1,"title":"افتتاح المركز","body":"...","image":"news/1.jpg"}]}`))
	})
	svc := newContentFixture(t, router)

	page, err := svc.ListNews(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "افتتاح المركز", page.Items[0].Title)
	assert.Contains(t, page.Items[0].Image, "/storage/news/1.jpg")
	assert.Nil(t, page.Meta)
}

func TestService_ListNewsHandlesBareArray(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/news", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"title":"خبر"},{"id":2,"title":"خبر آخر"}]`))
	})
	svc := newContentFixture(t, router)

	page, err := svc.ListNews(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}

func TestService_ListNewsCarriesPaginationMeta(t *testing.T) {
	var gotPage string
	router := chi.NewRouter()
	router.Get("/api/news", func(w http.ResponseWriter, r *http.Request) {
		gotPage = r.URL.Query().Get("page")
		_, _ = w.Write([]byte(`{"data":[{"id":11,"title":"خبر"}],"meta":{"current_page":2,"last_page":5,"per_page":10,"total":42}}`))
	})
	svc := newContentFixture(t, router)

	page, err := svc.ListNews(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, "2", gotPage)
	require.NotNil(t, page.Meta)
	assert.Equal(t, 2, page.Meta.CurrentPage)
	assert.Equal(t, 5, page.Meta.LastPage)
	assert.Equal(t, 42, page.Meta.Total)
}

func TestService_FirstPageOmitsThePageParameter(t *testing.T) {
	var rawQuery string
	router := chi.NewRouter()
	router.Get("/api/news", func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`[]`))
	})
	svc := newContentFixture(t, router)

	_, err := svc.ListNews(context.Background(), 1)

	require.NoError(t, err)
	assert.Empty(t, rawQuery)
}

func TestService_GetNewsResolvesImageURL(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/news/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":5,"title":"خبر","body":"نص","image":"news/5.jpg"}}`))
	})
	svc := newContentFixture(t, router)

	item, err := svc.GetNews(context.Background(), 5)

	require.NoError(t, err)
	assert.Contains(t, item.Image, "/storage/news/5.jpg")
}

func TestService_GetNewsKeepsInlineImagesVerbatim(t *testing.T) {
	const inline = "data:image/png;base64,iVBORw0KGgo="
	router := chi.NewRouter()
	router.Get("/api/news/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":6,"title":"خبر","image":"` + inline + `"}}`))
	})
	svc := newContentFixture(t, router)

	item, err := svc.GetNews(context.Background(), 6)

	require.NoError(t, err)
	assert.Equal(t, inline, item.Image)
}

func TestService_GetNewsSurfacesDomainErrors(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/news/{id}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"الخبر غير موجود"}`))
	})
	svc := newContentFixture(t, router)

	_, err := svc.GetNews(context.Background(), 7)

	require.Error(t, err)
	assert.True(t, apperrors.IsDomain(err))
}

func TestService_CreateNewsPostsJSON(t *testing.T) {
	var (
		gotContentType string
		gotBody        []byte
	)
	router := chi.NewRouter()
	router.Post("/api/news", func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":9}}`))
	})
	svc := newContentFixture(t, router)
	section := int64(3)

	err := svc.CreateNews(context.Background(), NewsInput{Title: "خبر جديد", Body: "نص", SectionID: &section})

	require.NoError(t, err)
	assert.Equal(t, "application/json", gotContentType)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(gotBody, &sent))
	assert.Equal(t, "خبر جديد", sent["title"])
	assert.Equal(t, float64(3), sent["section_id"])
}

func TestService_ListCluesResolvesFileURLs(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/clues", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"title":"دليل","file":"clues/guide.pdf"}]`))
	})
	svc := newContentFixture(t, router)

	page, err := svc.ListClues(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Contains(t, page.Items[0].File, "/storage/clues/guide.pdf")
}

func TestService_ListSectionsLeavesEmptyImagesAlone(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/sections", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"الأقسام"},{"id":2,"name":"عن المركز","image":"sections/about.png"}]`))
	})
	svc := newContentFixture(t, router)

	page, err := svc.ListSections(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Empty(t, page.Items[0].Image)
	assert.Contains(t, page.Items[1].Image, "/storage/sections/about.png")
}

func TestService_ServerErrorsPropagateClassified(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/speeches", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})
	svc := newContentFixture(t, router)

	_, err := svc.ListSpeeches(context.Background(), 1)

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
