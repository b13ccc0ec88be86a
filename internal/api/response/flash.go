package response

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const flashCookie = "flash"

// Flash categories.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// SetFlash stores a message for the next page render.
func SetFlash(c *gin.Context, category, message string) {
	// gin escapes cookie values on write and unescapes them on read.
	c.SetCookie(flashCookie, category+"|"+message, 60, "/", "", false, true)
}

// PopFlash returns and clears the pending flash message, if any.
func PopFlash(c *gin.Context) *Flash {
	raw, err := c.Cookie(flashCookie)
	if err != nil || raw == "" {
		return nil
	}
	c.SetCookie(flashCookie, "", -1, "/", "", false, true)

	category, message, ok := strings.Cut(raw, "|")
	if !ok || message == "" {
		return nil
	}
	return &Flash{Category: category, Message: message}
}
