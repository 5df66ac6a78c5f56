package handlers

import (
	"errors"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/models"
	"github.com/Curious-3/EchoesOfArt-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs:
// mediatype, writingstatus and emoji. It is safe to call repeatedly.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("mediatype", func(fl validator.FieldLevel) bool {
			return models.MediaType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("writingstatus", func(fl validator.FieldLevel) bool {
			switch models.WritingStatus(fl.Field().String()) {
			case models.WritingDraft, models.WritingPublished:
				return true
			}
			return false
		})
		_ = v.RegisterValidation("emoji", func(fl validator.FieldLevel) bool {
			return isEmoji(fl.Field().String())
		})
	})
}

const maxEmojiRunes = 10

// isEmoji accepts one emoji sequence: pictographs joined by ZWJ, with
// variation selectors, skin tones or a keycap mark.
func isEmoji(s string) bool {
	if s == "" || utf8.RuneCountInString(s) > maxEmojiRunes {
		return false
	}
	pictographs := 0
	for _, r := range s {
		switch {
		case r == 0x200D, r == 0xFE0F, r == 0xFE0E, r == 0x20E3:
		case unicode.Is(unicode.So, r):
			pictographs++
		case unicode.Is(unicode.Sk, r) && r >= 0x1F3FB && r <= 0x1F3FF:
		case r >= 0xE0020 && r <= 0xE007F:
			// tag sequences used by subdivision flags
		default:
			return false
		}
	}
	return pictographs > 0
}

// respondBindError reports the first failed field from messages, keyed by
// the JSON field name, and a generic 400 for anything else.
func respondBindError(c *gin.Context, err error, messages map[string]string) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			field := strings.ToLower(fe.Field())
			if msg, ok := messages[field]; ok {
				util.RespondValidationError(c, field, msg)
				return
			}
		}
	}
	util.RespondBadRequest(c, "Invalid request body")
}
