package seed

import (
	"testing"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/database"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory("seed_" + uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, database.MigrateDB(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestSeedDevKeepsCountersConsistent(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db)
	require.NoError(t, s.SeedDev(Counts{Users: 5, Posts: 10, Writings: 8, Comments: 20, WritingComments: 15, Likes: 40, Follows: 10}))

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	assert.Len(t, posts, 10)
	for _, p := range posts {
		var likes, comments int64
		db.Model(&models.Like{}).Where("post_id = ?", p.ID).Count(&likes)
		db.Model(&models.Comment{}).Where("post_id = ?", p.ID).Count(&comments)
		assert.Equal(t, int(likes), p.LikeCount)
		assert.Equal(t, int(comments), p.CommentCount)
	}

	var writings []models.Writing
	require.NoError(t, db.Find(&writings).Error)
	for _, w := range writings {
		var comments int64
		db.Model(&models.WritingComment{}).Where("writing_id = ?", w.ID).Count(&comments)
		assert.Equal(t, int(comments), w.CommentCount)
		if !w.IsPublished() {
			assert.Zero(t, comments, "drafts receive no comments")
			assert.Nil(t, w.PublishedAt)
		}
	}
}

func TestSeedTestIsIdempotent(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db)
	require.NoError(t, s.SeedTest())
	require.NoError(t, s.SeedTest())

	var users, writings int64
	db.Model(&models.User{}).Count(&users)
	db.Model(&models.Writing{}).Count(&writings)
	assert.Equal(t, int64(3), users)
	assert.Equal(t, int64(2), writings)
}

func TestCleanEmptiesEveryTable(t *testing.T) {
	db := openDB(t)
	s := NewSeeder(db)
	require.NoError(t, s.SeedTest())
	require.NoError(t, s.Clean())

	for _, model := range models.All() {
		var n int64
		require.NoError(t, db.Unscoped().Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}
