package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type successBody struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
	Total   *int `json:"total,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, successBody{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, successBody{Success: true, Data: data})
}

func respondList(c *gin.Context, data any, total int) {
	c.JSON(http.StatusOK, successBody{Success: true, Data: data, Total: &total})
}

// intQuery parses an optional integer query parameter; malformed or
// missing values read as zero.
func intQuery(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil || value < 0 {
		return 0
	}
	return value
}

// intParam parses a numeric path parameter.
func intParam(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}
