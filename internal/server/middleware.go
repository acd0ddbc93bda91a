package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shulebooks/shulebooks/internal/branchcontext"
)

const (
	HeaderBranch = "X-Branch-ID"
	HeaderActor  = "X-Actor-ID"
	HeaderRole   = "X-Role"
)

// BranchContext resolves the active branch from the X-Branch-ID header,
// falling back to the configured default branch, and stamps the request
// context with branch, actor and role.
func (s *Server) BranchContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		branchID := s.cfg.DefaultBranchID
		if raw := strings.TrimSpace(c.GetHeader(HeaderBranch)); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil {
				AbortWithError(c, newValidationError("branch", "invalid_branch", "invalid branch id"))
				return
			}
			branchID = int64(parsed)
		}
		if branchID == 0 {
			AbortWithError(c, newValidationError("branch", "invalid_branch", "missing branch id"))
			return
		}

		ctx := branchcontext.WithBranchID(c.Request.Context(), branchID)
		if actor := strings.TrimSpace(c.GetHeader(HeaderActor)); actor != "" {
			ctx = branchcontext.WithActor(ctx, actor)
		}
		if role := strings.TrimSpace(c.GetHeader(HeaderRole)); role != "" {
			ctx = branchcontext.WithRole(ctx, strings.ToLower(role))
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// requireAction gates a route on the caller's role for the active branch.
func (s *Server) requireAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		actor := branchcontext.ActorFromContext(ctx)
		role := branchcontext.RoleFromContext(ctx)
		if actor == "" || role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		branchID, ok := branchcontext.BranchIDFromContext(ctx)
		if !ok {
			AbortWithError(c, newValidationError("branch", "invalid_branch", "missing branch id"))
			return
		}

		if err := s.authzSvc.Authorize(ctx, actor, role, branchID.String(), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}
