package handlers

import (
	"errors"
	"net/http"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/search"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// Search queries posts and published writings
// GET /api/search?q=&type=posts|writings
func (h *Handlers) Search(c *gin.Context) {
	limit, offset := util.Pagination(c)
	result, err := h.search.Search(c.Request.Context(), search.Query{
		Text:   c.Query("q"),
		Type:   c.Query("type"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		if errors.Is(err, search.ErrInvalidType) {
			util.RespondValidationError(c, "type", "type must be posts or writings")
			return
		}
		util.RespondInternalError(c, "Search failed", err)
		return
	}
	util.RespondSuccess(c, http.StatusOK, "", gin.H{
		"hits":   result.Hits,
		"total":  result.Total,
		"source": result.Source,
	})
}
