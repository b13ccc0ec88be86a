package response

import (
	"ctchen222/FindMy/internal/api/middleware"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Page renders the named template with data. The current user and any
// pending flash message are added under "User" and "Flash".
func Page(c *gin.Context, code int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if user := middleware.CurrentUser(c); user != nil {
		data["User"] = user
	}
	if flash := PopFlash(c); flash != nil {
		data["Flash"] = flash
	}
	c.HTML(code, name, data)
}

// ErrorResponse returns a JSON body of the form {"error": message}.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// SeeOther redirects with 303 so the browser follows up with a GET.
func SeeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
