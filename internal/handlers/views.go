package handlers

import (
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
)

// Content responses carry the author as a PublicUser so account fields such
// as email never leave the server.

type postView struct {
	*models.Post
	Author *models.PublicUser `json:"author,omitempty"`
}

func newPostView(p *models.Post) postView {
	v := postView{Post: p}
	if p.User != nil {
		author := p.User.Public()
		v.Author = &author
		p.User = nil
	}
	return v
}

func newPostViews(posts []models.Post) []postView {
	views := make([]postView, 0, len(posts))
	for i := range posts {
		views = append(views, newPostView(&posts[i]))
	}
	return views
}

type writingView struct {
	*models.Writing
	Author *models.PublicUser `json:"author,omitempty"`
}

func newWritingView(w *models.Writing) writingView {
	v := writingView{Writing: w}
	if w.User != nil {
		author := w.User.Public()
		v.Author = &author
		w.User = nil
	}
	return v
}

func newWritingViews(writings []models.Writing) []writingView {
	views := make([]writingView, 0, len(writings))
	for i := range writings {
		views = append(views, newWritingView(&writings[i]))
	}
	return views
}

type writingCommentView struct {
	*models.WritingComment
	ReactionSummary []models.ReactionCount `json:"reaction_summary"`
}

func newWritingCommentView(c *models.WritingComment) writingCommentView {
	return writingCommentView{WritingComment: c, ReactionSummary: c.ReactionSummary()}
}
