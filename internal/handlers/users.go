package handlers

import (
	"errors"
	"net/http"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/metrics"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/repository"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// profileView is what other users see of an account.
type profileView struct {
	models.PublicUser
	Bio            string              `json:"bio,omitempty"`
	Interests      []string            `json:"interests"`
	SocialLinks    *models.SocialLinks `json:"social_links,omitempty"`
	FollowerCount  int                 `json:"follower_count"`
	FollowingCount int                 `json:"following_count"`
	IsFollowing    bool                `json:"is_following"`
}

// GetUserProfile returns a public profile
// GET /api/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.users.GetUser(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			util.RespondNotFound(c, "user")
			return
		}
		util.RespondInternalError(c, "Failed to load user", err)
		return
	}

	view := profileView{
		PublicUser:     user.Public(),
		Bio:            user.Bio,
		Interests:      user.Interests,
		SocialLinks:    user.SocialLinks,
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
	}
	if view.Interests == nil {
		view.Interests = []string{}
	}
	if viewerID := util.OptionalUserID(c); viewerID != "" && viewerID != user.ID {
		view.IsFollowing, _ = h.users.IsFollowing(ctx, viewerID, user.ID)
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"user": view})
}

// ToggleFollow follows or unfollows a user
// POST /api/users/:id/follow
func (h *Handlers) ToggleFollow(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	result, err := h.engagement.ToggleFollow(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondToggleError(c, err, "user")
		return
	}
	metrics.RecordToggle("follow", result.Active)
	util.RespondSuccess(c, http.StatusOK, "", gin.H{
		"following":     result.Active,
		"followerCount": result.Count,
	})
}

func publicUsers(users []*models.User) []models.PublicUser {
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out
}

// GetFollowers lists who follows a user
// GET /api/users/:id/followers
func (h *Handlers) GetFollowers(c *gin.Context) {
	limit, offset := util.Pagination(c)
	users, err := h.users.GetFollowers(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		util.RespondInternalError(c, "Failed to load followers", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"users": publicUsers(users)})
}

// GetFollowing lists who a user follows
// GET /api/users/:id/following
func (h *Handlers) GetFollowing(c *gin.Context) {
	limit, offset := util.Pagination(c)
	users, err := h.users.GetFollowing(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		util.RespondInternalError(c, "Failed to load following", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{"users": publicUsers(users)})
}
