package utils

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

type Pagination struct {
	Page     int
	PageSize int
	Offset   int
}

// GetPagination reads page/page_size query params with sane bounds.
func GetPagination(c *gin.Context, defaultSize int) Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))

	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultSize
	}
	if size > 100 {
		size = 100
	}

	return Pagination{
		Page:     page,
		PageSize: size,
		Offset:   (page - 1) * size,
	}
}
