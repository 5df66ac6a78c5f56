package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"gorm.io/gorm"
)

type RepositoryTestSuite struct {
	suite.Suite
	db         *gorm.DB
	users      UserRepository
	engagement EngagementRepository
	comments   CommentRepository
	alice      *models.User
	bob        *models.User
	post       *models.Post
	writing    *models.Writing
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositoryTestSuite))
}

func (s *RepositoryTestSuite) SetupTest() {
	db, err := database.OpenInMemory("repo_" + uuid.NewString())
	s.Require().NoError(err)
	s.Require().NoError(database.MigrateDB(db))
	s.db = db
	s.users = NewUserRepository(db)
	s.engagement = NewEngagementRepository(db)
	s.comments = NewCommentRepository(db)

	s.alice = &models.User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x", IsVerified: true}
	s.bob = &models.User{Name: "Bob", Email: "bob@example.com", PasswordHash: "x", IsVerified: true}
	s.Require().NoError(db.Create(s.alice).Error)
	s.Require().NoError(db.Create(s.bob).Error)

	s.post = &models.Post{UserID: s.alice.ID, Title: "Dusk", MediaURL: "https://cdn/x.png", MediaType: models.MediaImage}
	s.Require().NoError(db.Create(s.post).Error)
	s.writing = &models.Writing{UserID: s.alice.ID, Title: "Ode", Content: "<p>hi</p>", Status: models.WritingPublished}
	s.Require().NoError(db.Create(s.writing).Error)
}

func (s *RepositoryTestSuite) TearDownTest() {
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}

func (s *RepositoryTestSuite) TestGetUserByEmailIgnoresCase() {
	u, err := s.users.GetUserByEmail(context.Background(), "ALICE@example.com")
	s.Require().NoError(err)
	s.Equal(s.alice.ID, u.ID)

	_, err = s.users.GetUserByEmail(context.Background(), "nobody@example.com")
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *RepositoryTestSuite) TestTogglePostLikeTwiceRestoresState() {
	ctx := context.Background()

	first, err := s.engagement.TogglePostLike(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)
	s.True(first.Active)
	s.Equal(1, first.Count)

	liked, err := s.engagement.IsPostLiked(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)
	s.True(liked)

	second, err := s.engagement.TogglePostLike(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)
	s.False(second.Active)
	s.Equal(0, second.Count)
}

func (s *RepositoryTestSuite) TestToggleUnknownTarget() {
	_, err := s.engagement.ToggleWritingLike(context.Background(), s.bob.ID, uuid.NewString())
	s.ErrorIs(err, ErrTargetNotFound)
}

func (s *RepositoryTestSuite) TestConcurrentWritingLikesFromOneUserCountOnce() {
	ctx := context.Background()

	// Simulate two requests racing: both observe "not liked" and insert.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var n int64
			if err := s.db.Model(&models.WritingLike{}).Where("writing_id = ? AND user_id = ?", s.writing.ID, s.bob.ID).Count(&n).Error; err != nil {
				errs <- err
				return
			}
			_, err := s.engagement.(*engagementRepository).toggle(ctx,
				counterRef{model: &models.Writing{}, id: s.writing.ID},
				&models.WritingLike{WritingID: s.writing.ID, UserID: s.bob.ID},
				map[string]interface{}{"writing_id": "none", "user_id": "none"},
				counterRef{model: &models.Writing{}, id: s.writing.ID, column: "like_count"},
			)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.Require().NoError(err)
	}

	var rows int64
	s.Require().NoError(s.db.Model(&models.WritingLike{}).Where("writing_id = ?", s.writing.ID).Count(&rows).Error)
	s.Equal(int64(1), rows)

	var w models.Writing
	s.Require().NoError(s.db.First(&w, "id = ?", s.writing.ID).Error)
	s.Equal(1, w.LikeCount)
}

func (s *RepositoryTestSuite) TestBookmarksAreIndependentOfLikes() {
	ctx := context.Background()
	_, err := s.engagement.ToggleWritingLike(ctx, s.bob.ID, s.writing.ID)
	s.Require().NoError(err)
	res, err := s.engagement.ToggleWritingBookmark(ctx, s.bob.ID, s.writing.ID)
	s.Require().NoError(err)
	s.True(res.Active)
	s.Equal(1, res.Count)

	res, err = s.engagement.ToggleWritingBookmark(ctx, s.alice.ID, s.writing.ID)
	s.Require().NoError(err)
	s.Equal(2, res.Count)

	bookmarked, err := s.engagement.IsWritingBookmarked(ctx, s.alice.ID, s.writing.ID)
	s.Require().NoError(err)
	s.True(bookmarked)
}

func (s *RepositoryTestSuite) TestSavedPostToggleAndRemove() {
	ctx := context.Background()
	res, err := s.engagement.ToggleSavedPost(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)
	s.True(res.Active)
	s.Equal(1, res.Count)

	s.Require().NoError(s.engagement.RemoveSavedPost(ctx, s.bob.ID, s.post.ID))
	s.Require().NoError(s.engagement.RemoveSavedPost(ctx, s.bob.ID, s.post.ID))
	saved, err := s.engagement.IsPostSaved(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)
	s.False(saved)
}

func (s *RepositoryTestSuite) TestFollowMaintainsBothCounters() {
	ctx := context.Background()

	_, err := s.engagement.ToggleFollow(ctx, s.bob.ID, s.bob.ID)
	s.ErrorIs(err, ErrSelfFollow)

	res, err := s.engagement.ToggleFollow(ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.True(res.Active)
	s.Equal(1, res.Count)

	bob, err := s.users.GetUser(ctx, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(1, bob.FollowingCount)

	followers, err := s.users.GetFollowers(ctx, s.alice.ID, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(followers, 1)
	s.Equal(s.bob.ID, followers[0].ID)

	following, err := s.users.IsFollowing(ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.True(following)

	res, err = s.engagement.ToggleFollow(ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.False(res.Active)
	s.Equal(0, res.Count)
}

func (s *RepositoryTestSuite) TestIncrementPostViewsConcurrently() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.engagement.IncrementPostViews(ctx, s.post.ID))
		}()
	}
	wg.Wait()

	var p models.Post
	s.Require().NoError(s.db.First(&p, "id = ?", s.post.ID).Error)
	s.Equal(int64(10), p.Views)

	s.ErrorIs(s.engagement.IncrementPostViews(ctx, uuid.NewString()), ErrTargetNotFound)
}

func (s *RepositoryTestSuite) TestAdjustCounterNeverGoesNegative() {
	s.Require().NoError(AdjustCounter(s.db, &models.Writing{}, s.writing.ID, "comment_count", -1))
	n, err := ReadCounter(s.db, &models.Writing{}, s.writing.ID, "comment_count")
	s.Require().NoError(err)
	s.Equal(0, n)
}

func (s *RepositoryTestSuite) TestUpdateFields() {
	ctx := context.Background()
	s.Require().NoError(s.users.UpdateFields(ctx, s.alice.ID, map[string]interface{}{"bio": "painter"}))
	u, err := s.users.GetUser(ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal("painter", u.Bio)

	s.ErrorIs(s.users.UpdateFields(ctx, uuid.NewString(), map[string]interface{}{"bio": "x"}), ErrUserNotFound)
	s.ErrorIs(s.users.UpdateFields(ctx, s.alice.ID, nil), ErrInvalidInput)
}

func (s *RepositoryTestSuite) TestMarkVerifiedConsumesCodeOnce() {
	ctx := context.Background()
	code := "123456"
	carol := &models.User{Name: "Carol", Email: "carol@example.com", PasswordHash: "x", OTPCode: &code}
	s.Require().NoError(s.db.Create(carol).Error)

	ok, err := s.users.MarkVerified(ctx, carol.ID, "000000")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.users.MarkVerified(ctx, carol.ID, code)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.users.MarkVerified(ctx, carol.ID, code)
	s.Require().NoError(err)
	s.False(ok, "a consumed code cannot be reused")

	u, err := s.users.GetUser(ctx, carol.ID)
	s.Require().NoError(err)
	s.True(u.IsVerified)
	s.Nil(u.OTPCode)
	s.Nil(u.OTPExpiresAt)
}

func (s *RepositoryTestSuite) TestPostCommentCounterFollowsInsertAndDelete() {
	ctx := context.Background()
	c := &models.Comment{PostID: s.post.ID, UserID: s.bob.ID, Username: "Bob", Text: "nice"}
	s.Require().NoError(s.comments.CreatePostComment(ctx, c))

	count, err := ReadCounter(s.db, &models.Post{}, s.post.ID, "comment_count")
	s.Require().NoError(err)
	s.Equal(1, count)

	s.Require().NoError(s.comments.DeletePostComment(ctx, s.post.ID, c.ID))
	s.ErrorIs(s.comments.DeletePostComment(ctx, s.post.ID, c.ID), ErrCommentNotFound)

	count, err = ReadCounter(s.db, &models.Post{}, s.post.ID, "comment_count")
	s.Require().NoError(err)
	s.Equal(0, count, "a repeated delete must not decrement again")

	orphan := &models.Comment{PostID: uuid.NewString(), UserID: s.bob.ID, Text: "x"}
	s.ErrorIs(s.comments.CreatePostComment(ctx, orphan), ErrTargetNotFound)
}

func (s *RepositoryTestSuite) TestWritingCommentDeleteDecrementsOnce() {
	ctx := context.Background()
	c := &models.WritingComment{WritingID: s.writing.ID, UserID: s.bob.ID, Username: "Bob", Text: "moving"}
	s.Require().NoError(s.comments.CreateWritingComment(ctx, c))

	s.Require().NoError(s.comments.DeleteWritingComment(ctx, c.ID))
	s.ErrorIs(s.comments.DeleteWritingComment(ctx, c.ID), ErrCommentNotFound)

	count, err := ReadCounter(s.db, &models.Writing{}, s.writing.ID, "comment_count")
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *RepositoryTestSuite) TestSetWritingCommentFlag() {
	ctx := context.Background()
	c := &models.WritingComment{WritingID: s.writing.ID, UserID: s.bob.ID, Text: "rude", Flagged: true}
	s.Require().NoError(s.comments.CreateWritingComment(ctx, c))

	s.Require().NoError(s.comments.SetWritingCommentFlag(ctx, c.ID, false))
	got, err := s.comments.GetWritingComment(ctx, c.ID)
	s.Require().NoError(err)
	s.False(got.Flagged)

	s.ErrorIs(s.comments.SetWritingCommentFlag(ctx, uuid.NewString(), false), ErrCommentNotFound)
}

func (s *RepositoryTestSuite) TestUpdateWritingCommentThreadPersistsReplies() {
	ctx := context.Background()
	c := &models.WritingComment{WritingID: s.writing.ID, UserID: s.bob.ID, Text: "first"}
	s.Require().NoError(s.comments.CreateWritingComment(ctx, c))

	updated, err := s.comments.UpdateWritingCommentThread(ctx, c.ID, func(wc *models.WritingComment) error {
		wc.AddReply(s.alice.ID, "Alice", "thanks", time.Now().UTC())
		wc.ToggleReaction(s.alice.ID, "❤️", time.Now().UTC())
		return nil
	})
	s.Require().NoError(err)
	s.Len(updated.Replies, 1)

	got, err := s.comments.GetWritingComment(ctx, c.ID)
	s.Require().NoError(err)
	s.Require().Len(got.Replies, 1)
	s.Equal("thanks", got.Replies[0].Text)
	s.Len(got.Reactions, 1)
	s.Equal(1, got.Version)

	_, err = s.comments.UpdateWritingCommentThread(ctx, c.ID, func(wc *models.WritingComment) error {
		return wc.RemoveReply(got.Replies[0].ID, s.bob.ID)
	})
	s.ErrorIs(err, models.ErrNotAuthor)
}

func (s *RepositoryTestSuite) TestUpdateWritingCommentThreadRetriesOnConflict() {
	ctx := context.Background()
	c := &models.WritingComment{WritingID: s.writing.ID, UserID: s.bob.ID, Text: "first"}
	s.Require().NoError(s.comments.CreateWritingComment(ctx, c))

	calls := 0
	_, err := s.comments.UpdateWritingCommentThread(ctx, c.ID, func(wc *models.WritingComment) error {
		calls++
		if calls == 1 {
			// Another writer lands between our read and our write.
			s.Require().NoError(s.db.Model(&models.WritingComment{}).Where("id = ?", c.ID).
				UpdateColumn("version", gorm.Expr("version + 1")).Error)
		}
		wc.AddReply(s.alice.ID, "Alice", "again", time.Now().UTC())
		return nil
	})
	s.Require().NoError(err)
	s.Equal(2, calls)

	got, err := s.comments.GetWritingComment(ctx, c.ID)
	s.Require().NoError(err)
	s.Len(got.Replies, 1)
	s.Equal(2, got.Version)
}

func (s *RepositoryTestSuite) TestReportWritingCountsEveryReport() {
	ctx := context.Background()
	n, err := s.engagement.ReportWriting(ctx, s.bob.ID, s.writing.ID, "spam")
	s.Require().NoError(err)
	s.Equal(1, n)
	n, err = s.engagement.ReportWriting(ctx, s.bob.ID, s.writing.ID, models.DefaultReportReason)
	s.Require().NoError(err)
	s.Equal(2, n)

	_, err = s.engagement.ReportWriting(ctx, s.bob.ID, uuid.NewString(), "x")
	s.ErrorIs(err, ErrTargetNotFound)
}

func (s *RepositoryTestSuite) TestDeleteWritingCascades() {
	ctx := context.Background()
	_, err := s.engagement.ToggleWritingLike(ctx, s.bob.ID, s.writing.ID)
	s.Require().NoError(err)
	_, err = s.engagement.ToggleWritingBookmark(ctx, s.bob.ID, s.writing.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.comments.CreateWritingComment(ctx, &models.WritingComment{WritingID: s.writing.ID, UserID: s.bob.ID, Text: "hi"}))

	content := NewContentRepository(s.db)
	deleted, err := content.DeleteWriting(ctx, s.writing.ID)
	s.Require().NoError(err)
	s.Equal(s.writing.ID, deleted.ID)

	for _, model := range []interface{}{&models.WritingLike{}, &models.WritingBookmark{}, &models.WritingComment{}} {
		var n int64
		s.Require().NoError(s.db.Model(model).Where("writing_id = ?", s.writing.ID).Count(&n).Error)
		s.Zero(n)
	}

	_, err = content.DeleteWriting(ctx, s.writing.ID)
	s.ErrorIs(err, ErrTargetNotFound)
}

func (s *RepositoryTestSuite) TestDeletePostCascades() {
	ctx := context.Background()
	_, err := s.engagement.TogglePostLike(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)
	_, err = s.engagement.ToggleSavedPost(ctx, s.bob.ID, s.post.ID)
	s.Require().NoError(err)

	deleted, err := NewContentRepository(s.db).DeletePost(ctx, s.post.ID)
	s.Require().NoError(err)
	s.Equal(s.post.MediaURL, deleted.MediaURL)

	var n int64
	s.Require().NoError(s.db.Model(&models.Like{}).Where("post_id = ?", s.post.ID).Count(&n).Error)
	s.Zero(n)
	s.Require().NoError(s.db.Model(&models.SavedPost{}).Where("post_id = ?", s.post.ID).Count(&n).Error)
	s.Zero(n)
}
