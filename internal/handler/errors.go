package handler

import (
	"net/http"

	"elocation/internal/apperror"
	"elocation/internal/domain"
	"elocation/internal/middleware"
	"elocation/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps a service error onto its HTTP status. Internal errors keep their detail in the
// request log and answer with a generic message.
func writeError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, response.Error(status, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
}

// mustActor returns the authenticated actor; routes using it sit behind an auth middleware
func mustActor(c *gin.Context) (domain.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Unauthorized"))
		return domain.Actor{}, false
	}
	return actor, true
}

// optionalBool parses "true"/"false" query values; anything else means unset
func optionalBool(c *gin.Context, key string) *bool {
	switch c.Query(key) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}
