package search

import (
	"context"
	"sync"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const reindexBatchSize = 200

// ReindexStats counts documents written by a backfill.
type ReindexStats struct {
	Posts    int `json:"posts"`
	Writings int `json:"writings"`
	Failed   int `json:"failed"`
}

// Reindex writes every post and published writing to the index.
func Reindex(ctx context.Context, db *gorm.DB, indexer Indexer) (ReindexStats, error) {
	var stats ReindexStats
	db = db.WithContext(ctx)

	var posts []models.Post
	err := db.Preload("User").FindInBatches(&posts, reindexBatchSize, func(tx *gorm.DB, batch int) error {
		for i := range posts {
			if err := indexer.Index(ctx, PostDocument(&posts[i], "")); err != nil {
				stats.Failed++
				logger.WarnWithFields("Failed to reindex post", err, logger.WithPostID(posts[i].ID))
				continue
			}
			stats.Posts++
		}
		return ctx.Err()
	}).Error
	if err != nil {
		return stats, err
	}

	var writings []models.Writing
	err = db.Preload("User").Where("status = ?", models.WritingPublished).
		FindInBatches(&writings, reindexBatchSize, func(tx *gorm.DB, batch int) error {
			for i := range writings {
				if err := indexer.Index(ctx, WritingDocument(&writings[i], "")); err != nil {
					stats.Failed++
					logger.WarnWithFields("Failed to reindex writing", err, logger.WithWritingID(writings[i].ID))
					continue
				}
				stats.Writings++
			}
			return ctx.Err()
		}).Error
	return stats, err
}

// ReconciliationService periodically re-indexes a sample of recently
// updated content so counters and edits that missed a sync catch up.
type ReconciliationService struct {
	db        *gorm.DB
	indexer   Indexer
	interval  time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

func NewReconciliationService(db *gorm.DB, indexer Indexer, interval time.Duration) *ReconciliationService {
	return &ReconciliationService{
		db:       db,
		indexer:  indexer,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic reconciliation loop
func (rs *ReconciliationService) Start() {
	rs.mu.Lock()
	if rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = true
	rs.mu.Unlock()

	logger.Log.Info("Starting search reconciliation service", zap.Duration("interval", rs.interval))

	rs.wg.Add(1)
	go rs.loop()
}

// Stop gracefully stops the reconciliation service
func (rs *ReconciliationService) Stop() {
	rs.mu.Lock()
	if !rs.isRunning {
		rs.mu.Unlock()
		return
	}
	rs.isRunning = false
	rs.mu.Unlock()

	close(rs.stopChan)
	rs.wg.Wait()
	logger.Log.Info("Search reconciliation service stopped")
}

func (rs *ReconciliationService) loop() {
	defer rs.wg.Done()

	ticker := time.NewTicker(rs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-rs.stopChan:
			return
		case <-ticker.C:
			rs.Reconcile(context.Background(), time.Now().UTC().Add(-2*rs.interval))
		}
	}
}

// Reconcile re-indexes content updated since the given time. Published
// writings are indexed and the rest removed.
func (rs *ReconciliationService) Reconcile(ctx context.Context, since time.Time) (posts, writings int) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()
	start := time.Now()

	var recentPosts []models.Post
	if err := rs.db.WithContext(ctx).Preload("User").
		Where("updated_at >= ?", since).Limit(500).Find(&recentPosts).Error; err != nil {
		logger.WarnWithFields("Failed to query posts for reconciliation", err)
	}
	for i := range recentPosts {
		if err := rs.indexer.Index(ctx, PostDocument(&recentPosts[i], "")); err == nil {
			posts++
		}
	}

	var recentWritings []models.Writing
	if err := rs.db.WithContext(ctx).Preload("User").
		Where("updated_at >= ?", since).Limit(500).Find(&recentWritings).Error; err != nil {
		logger.WarnWithFields("Failed to query writings for reconciliation", err)
	}
	for i := range recentWritings {
		w := &recentWritings[i]
		var err error
		if w.IsPublished() {
			err = rs.indexer.Index(ctx, WritingDocument(w, ""))
		} else {
			err = rs.indexer.Delete(ctx, TypeWritings, w.ID)
		}
		if err == nil {
			writings++
		}
	}

	logger.Log.Info("Search reconciliation completed",
		zap.Int("posts_resync", posts),
		zap.Int("writings_resync", writings),
		zap.Duration("duration", time.Since(start)),
	)
	return posts, writings
}
