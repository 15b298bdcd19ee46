package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusdata/sga-enroll-api/internal/middleware"
	"github.com/campusdata/sga-enroll-api/internal/models"
	appErrors "github.com/campusdata/sga-enroll-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.CurrentClaims(c)
}

// studentScope resolves which student a request acts on. Staff and admins may
// name any student; student tokens are pinned to their own identity.
func studentScope(c *gin.Context, requested *int64) (int64, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "missing credentials")
	}
	if claims.Role == models.RoleStudent {
		if claims.StudentID == nil {
			return 0, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a student")
		}
		return *claims.StudentID, nil
	}
	if requested == nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	return *requested, nil
}

func pathInt64(c *gin.Context, name string) (int64, error) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name+" parameter")
	}
	return value, nil
}
