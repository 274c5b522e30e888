package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xxxsen/brandbot/internal/model"
	"github.com/xxxsen/brandbot/internal/pkg/errcode"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
	"github.com/xxxsen/brandbot/internal/retriever"
	"github.com/xxxsen/brandbot/internal/service"
)

type fakeChatAPI struct {
	lastChat   service.ChatRequest
	lastSearch string
	resetErr   error
}

func (f *fakeChatAPI) Chat(ctx context.Context, req service.ChatRequest) (*service.ChatResponse, error) {
	f.lastChat = req
	return &service.ChatResponse{Answer: "respuesta", Profile: "default"}, nil
}

func (f *fakeChatAPI) Search(ctx context.Context, query, rawBrand string, k int) ([]model.ScoredDocument, error) {
	f.lastSearch = query + "|" + rawBrand
	return []model.ScoredDocument{{ID: "doc-1", Document: model.Document{Content: "contenido"}}}, nil
}

func (f *fakeChatAPI) Stats() service.Stats {
	return service.Stats{Index: retriever.Stats{Documents: 7, Model: "hash-v1"}}
}

func (f *fakeChatAPI) ResetHistory(ctx context.Context, userID string) error {
	return f.resetErr
}

func newTestRouter(api ChatAPI) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	RegisterRoutes(engine.Group("/api/v1"), RouterDeps{Chat: NewChatHandler(api)})
	return engine
}

func serve(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(w, req)
	return w
}

func TestChat_BindsRequest(t *testing.T) {
	api := &fakeChatAPI{}
	w := serve(newTestRouter(api), http.MethodPost, "/api/v1/chat",
		`{"user_id":"521555","brand":"Acme","name":"Ana","query":"¿Horario?","k":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "respuesta")
	require.Equal(t, service.ChatRequest{UserID: "521555", Brand: "Acme", UserName: "Ana", Query: "¿Horario?", K: 2}, api.lastChat)
}

func TestChat_InvalidBody(t *testing.T) {
	api := &fakeChatAPI{}
	w := serve(newTestRouter(api), http.MethodPost, "/api/v1/chat", `{"brand":"Acme"}`)
	require.Contains(t, w.Body.String(), fmt.Sprint(errcode.ErrInvalid))
	require.Empty(t, api.lastChat.UserID)
}

func TestSearch_ReturnsDocuments(t *testing.T) {
	api := &fakeChatAPI{}
	engine := newTestRouter(api)
	w := serve(engine, http.MethodPost, "/api/v1/search", `{"query":"envio","brand":"beta"}`)
	require.Contains(t, w.Body.String(), "doc-1")
	require.Equal(t, "envio|beta", api.lastSearch)

	w = serve(engine, http.MethodPost, "/api/v1/search", `{"query":"envio","k":500}`)
	require.Contains(t, w.Body.String(), fmt.Sprint(errcode.ErrInvalid))
}

func TestStats(t *testing.T) {
	w := serve(newTestRouter(&fakeChatAPI{}), http.MethodGet, "/api/v1/index/stats", "")
	require.Contains(t, w.Body.String(), "hash-v1")
}

func TestResetHistory_NotFound(t *testing.T) {
	api := &fakeChatAPI{resetErr: fmt.Errorf("history: %w", appErr.ErrNotFound)}
	w := serve(newTestRouter(api), http.MethodDelete, "/api/v1/history/u1", "")
	require.Contains(t, w.Body.String(), fmt.Sprint(errcode.ErrNotFound))
}
