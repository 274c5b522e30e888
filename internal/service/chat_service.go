package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/brandbot/internal/brand"
	"github.com/xxxsen/brandbot/internal/embedcache"
	"github.com/xxxsen/brandbot/internal/model"
	appErr "github.com/xxxsen/brandbot/internal/pkg/errors"
	"github.com/xxxsen/brandbot/internal/prompt"
	"github.com/xxxsen/brandbot/internal/retriever"
)

type Searcher interface {
	Search(ctx context.Context, query, rawBrand string, k int) []model.ScoredDocument
	Stats() retriever.Stats
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type HistoryStore interface {
	Get(userID string) []model.ConversationTurn
	Append(userID string, turns ...model.ConversationTurn)
	IsFirstTurn(userID string) bool
	Reset(userID string) bool
	Users() int
}

type ChatRequest struct {
	UserID   string
	Brand    string
	UserName string
	Query    string
	K        int
}

type ChatResponse struct {
	Answer    string                 `json:"answer"`
	Profile   string                 `json:"profile"`
	MatchTier string                 `json:"match_tier"`
	FirstTurn bool                   `json:"first_turn"`
	Fallback  bool                   `json:"fallback"`
	Sources   []model.ScoredDocument `json:"sources"`
}

type ChatService struct {
	searcher  Searcher
	resolver  *brand.Resolver
	builder   *prompt.Builder
	generator Generator
	history   HistoryStore
	cache     embedcache.Embedder
}

type Option func(*ChatService)

// WithEmbedCache exposes the query embedding cache counters through Stats.
func WithEmbedCache(e embedcache.Embedder) Option {
	return func(s *ChatService) {
		s.cache = e
	}
}

func NewChatService(searcher Searcher, resolver *brand.Resolver, generator Generator, history HistoryStore, opts ...Option) *ChatService {
	s := &ChatService{
		searcher:  searcher,
		resolver:  resolver,
		builder:   prompt.NewBuilder(resolver),
		generator: generator,
		history:   history,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// filterBrand picks the brand key documents are filtered by: the profile's
// own key when the input was recognized, the raw input otherwise.
func filterBrand(res brand.Resolution, raw string) string {
	if !res.Profile.IsDefault() {
		return res.Profile.Key()
	}
	return raw
}

// Chat answers one user message. Generation failures are answered with the
// profile's error fallback and never returned as errors.
func (s *ChatService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", appErr.ErrInvalid)
	}
	logger := logutil.GetLogger(ctx).With(zap.String("user_id", req.UserID), zap.String("brand", req.Brand))
	res := s.resolver.Resolve(ctx, req.Brand)
	docs := s.searcher.Search(ctx, query, filterBrand(res, req.Brand), req.K)
	firstTurn := s.history.IsFirstTurn(req.UserID)
	built := s.builder.Build(ctx, prompt.Input{
		Brand:     res.Profile.Name,
		Query:     query,
		Context:   docs,
		History:   s.history.Get(req.UserID),
		FirstTurn: firstTurn,
		UserName:  req.UserName,
	})

	resp := &ChatResponse{
		Profile:   res.Profile.Name,
		MatchTier: string(res.Tier),
		FirstTurn: firstTurn,
		Sources:   docs,
	}
	answer, err := s.generator.Generate(ctx, built.Prompt)
	if err != nil {
		logger.Warn("generation failed, answering with fallback", zap.String("profile", res.Profile.Name), zap.Error(err))
		answer = s.llmFallback(res.Profile)
		resp.Fallback = true
	}
	resp.Answer = answer
	s.history.Append(req.UserID,
		model.ConversationTurn{Role: model.RoleUser, Content: query},
		model.ConversationTurn{Role: model.RoleAssistant, Content: answer},
	)
	logger.Info("chat answered",
		zap.String("profile", res.Profile.Name),
		zap.String("tier", string(res.Tier)),
		zap.Int("context_docs", len(docs)),
		zap.Bool("fallback", resp.Fallback),
	)
	return resp, nil
}

func (s *ChatService) llmFallback(p *brand.Profile) string {
	if v := strings.TrimSpace(p.FallbackLLMError); v != "" {
		return v
	}
	return strings.TrimSpace(s.resolver.Resolve(context.Background(), "").Profile.FallbackLLMError)
}

func (s *ChatService) Search(ctx context.Context, query, rawBrand string, k int) ([]model.ScoredDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query is required: %w", appErr.ErrInvalid)
	}
	return s.searcher.Search(ctx, query, rawBrand, k), nil
}

type Stats struct {
	Index        retriever.Stats   `json:"index"`
	HistoryUsers int               `json:"history_users"`
	EmbedCache   *embedcache.Stats `json:"embed_cache,omitempty"`
}

func (s *ChatService) Stats() Stats {
	st := Stats{
		Index:        s.searcher.Stats(),
		HistoryUsers: s.history.Users(),
	}
	if s.cache != nil {
		cs := s.cache.CacheStats()
		st.EmbedCache = &cs
	}
	return st
}

func (s *ChatService) ResetHistory(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user_id is required: %w", appErr.ErrInvalid)
	}
	if !s.history.Reset(userID) {
		return fmt.Errorf("history for %s: %w", userID, appErr.ErrNotFound)
	}
	logutil.GetLogger(ctx).Info("history reset", zap.String("user_id", userID))
	return nil
}
