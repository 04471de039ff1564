package response

import (
	"github.com/gin-gonic/gin"
)

type Error struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Extras  string `json:"extras"`
}

func (e Error) Error() string {
	return e.Extras
}

func NewError(code int, message string) Error {
	return Error{
		Success: false,
		Code:    code,
		Extras:  message,
	}
}

// AbortWithError writes the error envelope and stops the handler chain.
func AbortWithError(c *gin.Context, err Error) {
	c.AbortWithStatusJSON(
		err.Code,
		NewResponse(
			false,
			err.Code,
			map[string]any{
				"message": err.Extras,
			},
		))
}
