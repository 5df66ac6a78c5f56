package search

import (
	"context"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/cache"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// indexTimeout bounds each best-effort index call made on the request path.
const indexTimeout = 5 * time.Second

// Service is what the HTTP layer talks to. Index updates are best-effort:
// failures are logged and never surface to the caller.
type Service struct {
	indexer  Indexer
	searcher Searcher
	cached   *CachedSearcher
}

// NewService wires a searcher over es when it is non-nil, otherwise over
// SQL. redis may be nil.
func NewService(es *Client, db *gorm.DB, redis *cache.RedisClient) *Service {
	var (
		indexer  Indexer
		searcher Searcher
	)
	if es != nil {
		indexer = es
		searcher = es
	} else {
		searcher = NewSQLSearcher(db)
	}
	cached := NewCachedSearcher(searcher, redis, defaultTTL)
	return &Service{indexer: indexer, searcher: cached, cached: cached}
}

// Enabled reports whether an external index is configured.
func (s *Service) Enabled() bool {
	return s.indexer != nil
}

func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	return s.searcher.Search(ctx, q)
}

// IndexPost indexes a post.
func (s *Service) IndexPost(ctx context.Context, post *models.Post, authorName string) {
	s.index(ctx, PostDocument(post, authorName))
}

// SyncWriting indexes a published writing and removes a draft.
func (s *Service) SyncWriting(ctx context.Context, w *models.Writing, authorName string) {
	if !w.IsPublished() {
		s.Remove(ctx, TypeWritings, w.ID)
		return
	}
	s.index(ctx, WritingDocument(w, authorName))
}

// Remove drops a document.
func (s *Service) Remove(ctx context.Context, docType, id string) {
	defer s.invalidate(ctx)
	if s.indexer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := s.indexer.Delete(ctx, docType, id); err != nil {
		logger.WarnWithFields("Failed to remove search document", err,
			zap.String("type", docType), zap.String("id", id))
	}
}

func (s *Service) index(ctx context.Context, doc Document) {
	defer s.invalidate(ctx)
	if s.indexer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
	defer cancel()
	if err := s.indexer.Index(ctx, doc); err != nil {
		logger.WarnWithFields("Failed to index search document", err,
			zap.String("type", doc.Type), zap.String("id", doc.ID))
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cached.Invalidate(context.WithoutCancel(ctx)); err != nil {
		logger.WarnWithFields("Failed to invalidate search cache", err)
	}
}
