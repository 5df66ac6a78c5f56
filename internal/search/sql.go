package search

import (
	"context"
	"strings"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"gorm.io/gorm"
)

// SQLSearcher answers queries with case-insensitive substring matching. It
// is the fallback when Elasticsearch is not configured, and backs the
// published-writings search.
type SQLSearcher struct {
	db *gorm.DB
}

func NewSQLSearcher(db *gorm.DB) *SQLSearcher {
	return &SQLSearcher{db: db}
}

// likePattern builds a LOWER(...) LIKE pattern for term with wildcards escaped.
func likePattern(term string) string {
	return "%" + util.EscapeLike(strings.ToLower(term)) + "%"
}

// PublishedWritings scopes db to published writings whose title, content or
// author name contains term, newest first. An empty term matches all.
func PublishedWritings(db *gorm.DB, term string) *gorm.DB {
	q := db.Model(&models.Writing{}).
		Where("writings.status = ?", models.WritingPublished)

	if term = strings.TrimSpace(term); term != "" {
		pattern := likePattern(term)
		q = q.Joins("LEFT JOIN users ON users.id = writings.user_id").
			Where(`LOWER(writings.title) LIKE ? ESCAPE '\' OR LOWER(writings.content) LIKE ? ESCAPE '\' OR LOWER(users.name) LIKE ? ESCAPE '\'`,
				pattern, pattern, pattern)
	}
	return q.Order("writings.published_at DESC").Order("writings.created_at DESC")
}

// MatchingPosts scopes db to posts whose title, description or category
// contains term, newest first.
func MatchingPosts(db *gorm.DB, term string) *gorm.DB {
	q := db.Model(&models.Post{})
	if term = strings.TrimSpace(term); term != "" {
		pattern := likePattern(term)
		q = q.Where(`LOWER(posts.title) LIKE ? ESCAPE '\' OR LOWER(posts.description) LIKE ? ESCAPE '\' OR LOWER(posts.category) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern)
	}
	return q.Order("posts.created_at DESC")
}

func (s *SQLSearcher) Search(ctx context.Context, q Query) (*Result, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	result := &Result{Hits: []Hit{}, Source: "database"}

	for _, t := range q.types() {
		switch t {
		case TypePosts:
			var total int64
			if err := MatchingPosts(db, q.Text).Count(&total).Error; err != nil {
				return nil, err
			}
			var posts []models.Post
			if err := MatchingPosts(db, q.Text).Preload("User").
				Limit(q.Limit).Offset(q.Offset).Find(&posts).Error; err != nil {
				return nil, err
			}
			for i := range posts {
				result.Hits = append(result.Hits, hitFromDocument(PostDocument(&posts[i], ""), 0))
			}
			result.Total += int(total)

		case TypeWritings:
			var total int64
			if err := PublishedWritings(db, q.Text).Count(&total).Error; err != nil {
				return nil, err
			}
			var writings []models.Writing
			if err := PublishedWritings(db, q.Text).Preload("User").
				Limit(q.Limit).Offset(q.Offset).Find(&writings).Error; err != nil {
				return nil, err
			}
			for i := range writings {
				result.Hits = append(result.Hits, hitFromDocument(WritingDocument(&writings[i], ""), 0))
			}
			result.Total += int(total)
		}
	}
	return result, nil
}
