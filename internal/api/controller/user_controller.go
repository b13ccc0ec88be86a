package controller

import (
	"ctchen222/FindMy/internal/api/middleware"
	"ctchen222/FindMy/internal/api/models"
	"ctchen222/FindMy/internal/api/repository"
	"ctchen222/FindMy/internal/api/response"
	"ctchen222/FindMy/internal/api/service"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	msgUsernameTaken      = "Username already exists!"
	msgInvalidForm        = "Please fill in every field correctly."
	msgAccountCreated     = "Account Created! You can login."
	msgInvalidCredentials = "Invalid credentials, please try again."
	msgLoginSuccessful    = "Login successful!"
	msgSomethingWrong     = "Something went wrong, please try again."
	msgPasswordTooLong    = "Password is too long, please choose a shorter one."
)

// UserController handles registration, login, logout and the dashboard.
type UserController struct {
	userService service.UserService
	guard       *middleware.SessionGuard
}

// NewUserController creates a new UserController.
func NewUserController(userService service.UserService, guard *middleware.SessionGuard) *UserController {
	return &UserController{
		userService: userService,
		guard:       guard,
	}
}

// ShowRegister renders the registration form.
func (uc *UserController) ShowRegister(c *gin.Context) {
	response.Page(c, http.StatusOK, "signup.html", nil)
}

// Register creates the account and sends the user to the login form.
func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Page(c, http.StatusBadRequest, "signup.html", gin.H{"Error": msgInvalidForm, "Username": req.Username, "FName": req.FName})
		return
	}

	_, err := uc.userService.Register(c.Request.Context(), &req)
	switch {
	case err == nil:
		response.SetFlash(c, response.FlashSuccess, msgAccountCreated)
		response.SeeOther(c, middleware.LoginPath)
	case errors.Is(err, repository.ErrDuplicateUsername):
		response.Page(c, http.StatusConflict, "signup.html", gin.H{"Error": msgUsernameTaken, "FName": req.FName})
	case errors.Is(err, service.ErrPasswordTooLong):
		response.Page(c, http.StatusBadRequest, "signup.html", gin.H{"Error": msgPasswordTooLong, "Username": req.Username, "FName": req.FName})
	default:
		slog.ErrorContext(c.Request.Context(), "registration failed", "error", err)
		response.Page(c, http.StatusInternalServerError, "signup.html", gin.H{"Error": msgSomethingWrong})
	}
}

// ShowLogin renders the login form.
func (uc *UserController) ShowLogin(c *gin.Context) {
	response.Page(c, http.StatusOK, "login.html", nil)
}

// Login verifies the credentials, opens a session and redirects to the dashboard.
func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Page(c, http.StatusBadRequest, "login.html", gin.H{"Error": msgInvalidCredentials, "Username": req.Username})
		return
	}

	_, session, err := uc.userService.Login(c.Request.Context(), &req)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Page(c, http.StatusUnauthorized, "login.html", gin.H{"Error": msgInvalidCredentials, "Username": req.Username})
		return
	default:
		slog.ErrorContext(c.Request.Context(), "login failed", "error", err)
		response.Page(c, http.StatusInternalServerError, "login.html", gin.H{"Error": msgSomethingWrong})
		return
	}

	if err := uc.guard.Cookie().Set(c, session.ID, session.ExpiresAt); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to issue session cookie", "error", err)
		_ = uc.userService.Logout(c.Request.Context(), session.ID)
		response.Page(c, http.StatusInternalServerError, "login.html", gin.H{"Error": msgSomethingWrong})
		return
	}
	response.SetFlash(c, response.FlashSuccess, msgLoginSuccessful)
	response.SeeOther(c, "/dashboard")
}

// Logout destroys the session and returns to the login form.
func (uc *UserController) Logout(c *gin.Context) {
	sid := uc.guard.Cookie().SessionID(c)
	if err := uc.userService.Logout(c.Request.Context(), sid); err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to destroy session", "error", err)
	}
	uc.guard.Cookie().Clear(c)
	response.SeeOther(c, middleware.LoginPath)
}

// Dashboard renders the signed-in landing page.
func (uc *UserController) Dashboard(c *gin.Context) {
	user, err := uc.guard.RequireSession(c)
	if err != nil {
		response.SeeOther(c, middleware.LoginPath)
		return
	}
	response.Page(c, http.StatusOK, "dashboard.html", gin.H{"User": user})
}
