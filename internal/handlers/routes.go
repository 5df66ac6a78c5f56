package handlers

import (
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/middleware"
	"github.com/gin-gonic/gin"
)

// listingCacheTTL is how long public listings are served from Redis.
const listingCacheTTL = 30 * time.Second

// RouteConfig supplies the middleware the API routes are wrapped in.
// A nil UploadLimiter is skipped.
type RouteConfig struct {
	RequireAuth   gin.HandlerFunc
	OptionalAuth  gin.HandlerFunc
	UploadLimiter gin.HandlerFunc
}

func chain(handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// RegisterRoutes mounts /api/auth. Profile routes use the handlers' own
// middleware.
func (h *AuthHandlers) RegisterRoutes(api *gin.RouterGroup, limiter gin.HandlerFunc) {
	authGroup := api.Group("/auth")
	{
		public := authGroup.Group("", chain(limiter)...)
		public.POST("/register", h.Register)
		public.POST("/verify-email", h.VerifyEmail)
		public.POST("/resend-otp", h.ResendOTP)
		public.POST("/login", h.Login)

		private := authGroup.Group("", h.AuthMiddleware())
		private.GET("/me", h.Me)
		private.PUT("/profile", h.UpdateProfile)
		private.POST("/profile/image", h.UpdateProfileImage)
	}
}

// RegisterRoutes mounts the content and engagement API.
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup, cfg RouteConfig) {
	RegisterValidators()

	auth := cfg.RequireAuth
	optional := cfg.OptionalAuth
	listingCache := middleware.ResponseCacheMiddleware(listingCacheTTL)
	invalidatePosts := middleware.CacheInvalidationMiddleware("response:/api/posts*", "response:/api/search*")
	invalidateWritings := middleware.CacheInvalidationMiddleware("response:/api/writing/published*", "response:/api/search*")

	posts := api.Group("/posts")
	{
		posts.GET("", optional, h.ListPosts)
		posts.GET("/user/my-uploads", auth, h.MyUploads)
		posts.GET("/user/explore", optional, listingCache, h.Explore)
		posts.GET("/:id", optional, h.GetPost)
		posts.POST("", chain(auth, cfg.UploadLimiter, invalidatePosts, h.CreatePost)...)
		posts.PUT("/:id", auth, invalidatePosts, h.UpdatePost)
		posts.DELETE("/:id", auth, invalidatePosts, h.DeletePost)
	}

	liked := api.Group("/liked", auth)
	{
		liked.GET("", h.GetLikedPosts)
		liked.POST("/:postId", h.ToggleLike)
		liked.GET("/:postId/status", h.LikeStatus)
	}

	saved := api.Group("/saved", auth)
	{
		saved.GET("", h.GetSaved)
		saved.POST("/:postId", h.ToggleSaved)
		saved.DELETE("/:postId", h.RemoveSaved)
		saved.GET("/:postId/status", h.SavedStatus)
	}

	writing := api.Group("/writing")
	{
		writing.GET("/published", listingCache, h.PublishedWritings)
		writing.GET("/my-writings", auth, h.MyWritings)
		writing.GET("/bookmarks", auth, h.BookmarkedWritings)
		writing.POST("/save", auth, invalidateWritings, h.SaveWriting)
		writing.POST("/generate-tags", auth, h.GenerateTags)
		writing.PUT("/like/:id", auth, h.ToggleWritingLike)
		writing.PUT("/bookmark/:id", auth, h.ToggleWritingBookmark)
		writing.POST("/report/:id", auth, h.ReportWriting)
		writing.GET("/:id", optional, h.GetWriting)
		writing.DELETE("/:id", auth, invalidateWritings, h.DeleteWriting)
	}

	wc := api.Group("/writing-comments")
	{
		wc.GET("/writing/:writingId", optional, h.ListWritingComments)
		wc.POST("/writing/:writingId", auth, h.CreateWritingComment)
		wc.PUT("/:id", auth, h.UpdateWritingComment)
		wc.DELETE("/:id", auth, h.DeleteWritingComment)
		wc.PATCH("/:id/unflag", auth, h.UnflagWritingComment)
		wc.DELETE("/:id/force", auth, h.ForceDeleteWritingComment)
		wc.POST("/:id/replies", auth, h.AddReply)
		wc.PUT("/:id/replies/:replyId", auth, h.EditReply)
		wc.DELETE("/:id/replies/:replyId", auth, h.DeleteReply)
		wc.PUT("/:id/reactions", auth, h.ToggleReaction)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/:postId", optional, h.GetComments)
		comments.POST("/:postId", auth, h.CreateComment)
		comments.PUT("/:postId/:commentId", auth, h.UpdateComment)
		comments.DELETE("/:postId/:commentId", auth, h.DeleteComment)
		comments.PATCH("/:postId/:commentId/unflag", auth, h.UnflagComment)
		comments.DELETE("/:postId/:commentId/force", auth, h.ForceDeleteComment)
	}

	users := api.Group("/users")
	{
		users.GET("/:id", optional, h.GetUserProfile)
		users.POST("/:id/follow", auth, h.ToggleFollow)
		users.GET("/:id/followers", h.GetFollowers)
		users.GET("/:id/following", h.GetFollowing)
	}

	api.GET("/search", listingCache, h.Search)
}
