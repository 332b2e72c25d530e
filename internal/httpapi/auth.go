package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
	"rollcall/internal/roster"
)

// handleIssueToken exchanges a verified email for a signed token pair.
// Staff accounts resolve by the users table; anyone else must be an
// allow-listed student with an existing student record.
func (s *Server) handleIssueToken(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()

	if user, err := s.Users.UserByEmail(ctx, email); err != nil {
		writeErr(c, err)
		return
	} else if user != nil {
		s.issueTokens(c, user.ID.String(), user.Email, user.Role)
		return
	}

	allowed, err := s.Users.IsEmailAllowed(ctx, email)
	if err != nil {
		writeErr(c, err)
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "email is not authorized"})
		return
	}

	student, err := s.Roster.StudentByEmail(ctx, email)
	if err != nil {
		writeErr(c, err)
		return
	}
	if student == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no student record for this email"})
		return
	}
	s.issueTokens(c, student.ID.String(), email, auth.RoleStudent)
}

func (s *Server) issueTokens(c *gin.Context, subject, email string, role auth.Role) {
	tokens, err := auth.Issue(subject, email, role, s.Cfg.JWTIssuer, s.Cfg.JWTSigningKey, s.Cfg.AccessTTL, s.Cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
		"role":          role,
	})
}

// handleCreateUser registers a staff account. Admin only.
func (s *Server) handleCreateUser(c *gin.Context) {
	var req struct {
		Email      string `json:"email" binding:"required"`
		Name       string `json:"name" binding:"required"`
		Role       string `json:"role" binding:"required"`
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, ok := auth.ParseRole(req.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role " + req.Role})
		return
	}

	user, err := s.Users.CreateUser(c.Request.Context(), roster.User{
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Name:       req.Name,
		Role:       role,
		Department: req.Department,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"role":       user.Role,
		"department": user.Department,
	})
}
