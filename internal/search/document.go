package search

import (
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
)

// Document types, also used as the `type` query parameter.
const (
	TypePosts    = "posts"
	TypeWritings = "writings"
)

// bodyLimit caps the plain-text body stored per document.
const bodyLimit = 5000

// Document is what gets indexed for both posts and writings.
type Document struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Tags       []string  `json:"tags"`
	Category   string    `json:"category,omitempty"`
	MediaType  string    `json:"media_type,omitempty"`
	LikeCount  int       `json:"like_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// PostDocument converts a post. authorName may be empty when the author
// was not preloaded.
func PostDocument(p *models.Post, authorName string) Document {
	if authorName == "" && p.User != nil {
		authorName = p.User.Name
	}
	return Document{
		ID:         p.ID,
		Type:       TypePosts,
		UserID:     p.UserID,
		AuthorName: authorName,
		Title:      p.Title,
		Body:       util.Truncate(p.Description, bodyLimit),
		Tags:       nonNil(p.Tags),
		Category:   p.Category,
		MediaType:  string(p.MediaType),
		LikeCount:  p.LikeCount,
		CreatedAt:  p.CreatedAt,
	}
}

// WritingDocument converts a writing; HTML is stripped from the content.
func WritingDocument(w *models.Writing, authorName string) Document {
	if authorName == "" && w.User != nil {
		authorName = w.User.Name
	}
	created := w.CreatedAt
	if w.PublishedAt != nil {
		created = *w.PublishedAt
	}
	return Document{
		ID:         w.ID,
		Type:       TypeWritings,
		UserID:     w.UserID,
		AuthorName: authorName,
		Title:      w.Title,
		Body:       util.Truncate(util.StripHTML(w.Content), bodyLimit),
		Tags:       nonNil(w.Tags),
		LikeCount:  w.LikeCount,
		CreatedAt:  created,
	}
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// Query is a search request.
type Query struct {
	Text   string `json:"q"`
	Type   string `json:"type"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

// Hit is one search result.
type Hit struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	AuthorName string    `json:"author_name"`
	Title      string    `json:"title"`
	Snippet    string    `json:"snippet"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"created_at"`
	Score      float64   `json:"score"`
}

// Result is a page of hits. Source names the backend that answered.
type Result struct {
	Hits   []Hit  `json:"hits"`
	Total  int    `json:"total"`
	Source string `json:"source"`
}

const snippetLength = 200

func hitFromDocument(doc Document, score float64) Hit {
	return Hit{
		ID:         doc.ID,
		Type:       doc.Type,
		UserID:     doc.UserID,
		AuthorName: doc.AuthorName,
		Title:      doc.Title,
		Snippet:    util.Truncate(doc.Body, snippetLength),
		Tags:       nonNil(doc.Tags),
		CreatedAt:  doc.CreatedAt,
		Score:      score,
	}
}
