package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"classroll/internal/account"
	"classroll/internal/auth"
	"classroll/internal/model"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register serves POST /register.
func (h *Handler) Register(c *gin.Context) {
	var in account.RegisterInput
	if err := c.ShouldBind(&in); err != nil {
		h.writeError(c, model.Invalid("body"), "")
		return
	}
	teacher, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err, "Server error during registration.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful! Please check your email to verify your account.",
		"teacher": teacher,
	})
}

// VerifyEmail serves GET /verify-email?token=.
func (h *Handler) VerifyEmail(c *gin.Context) {
	_, already, err := h.accounts.Verify(c.Request.Context(), c.Query("token"))
	if err != nil {
		h.writeError(c, err, "Server error during email verification.")
		return
	}
	msg := "Your email has been successfully verified! You can now log in."
	if already {
		msg = "Your email is already verified. Please log in."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

// Login serves POST /login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, model.Invalid("body"), "")
		return
	}
	teacher, err := h.accounts.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err, "Server error during login.")
		return
	}
	token, err := h.sessions.Issue(c, identityOf(teacher))
	if err != nil {
		h.writeError(c, err, "Server error during login.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "teacher": teacher})
}

// Logout serves POST /logout.
func (h *Handler) Logout(c *gin.Context) {
	h.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out."})
}

// Me serves GET /me. It returns the stored account rather than the token
// claims, so a deleted account ends the session.
func (h *Handler) Me(c *gin.Context) {
	id, _ := auth.IdentityFrom(c)
	teacher, err := h.accounts.FindByID(c.Request.Context(), id.TeacherID)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "teacher": teacher})
		return
	}
	if errors.Is(err, model.ErrNotAuthorized) {
		h.sessions.Clear(c)
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "not logged in"})
		return
	}
	h.writeError(c, err, "Server error.")
}

func identityOf(t model.Teacher) auth.Identity {
	return auth.Identity{TeacherID: t.ID, Name: t.Name, Email: t.Email, Verified: t.IsVerified}
}
