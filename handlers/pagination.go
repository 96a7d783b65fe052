package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 8
	maxPageSize     = 100
)

type page struct {
	Number int
	Size   int
	Count  int64
}

// last is the number of the final page, never below 1
func (p page) last() int64 {
	return max(1, (p.Count+int64(p.Size)-1)/int64(p.Size))
}

func (p page) hasNext() bool { return int64(p.Number) < p.last() }

func (p page) hasPrevious() bool { return p.Number > 1 }

func pageSize(c *gin.Context) int {
	size, err := strconv.Atoi(c.Query("perpage"))
	if err != nil || size < 1 {
		return defaultPageSize
	}
	return min(size, maxPageSize)
}

// paginate counts query, then loads the requested page into dest with scopes
// applied (preloads go there so the count stays a plain COUNT).
// It writes a 404 and returns false when the page does not exist.
func paginate(c *gin.Context, query *gorm.DB, dest any, scopes ...func(*gorm.DB) *gorm.DB) (page, bool) {
	p := page{Number: 1, Size: pageSize(c)}
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(c, http.StatusNotFound, "Invalid page.")
			return p, false
		}
		p.Number = n
	}

	if err := query.Session(&gorm.Session{}).Count(&p.Count).Error; err != nil {
		respondServerError(c, "count page", err)
		return p, false
	}
	// compared before any offset is computed, so huge page numbers cannot overflow
	if int64(p.Number) > p.last() {
		respondError(c, http.StatusNotFound, "Invalid page.")
		return p, false
	}

	if err := query.Scopes(scopes...).Offset((p.Number - 1) * p.Size).Limit(p.Size).Find(dest).Error; err != nil {
		respondServerError(c, "load page", err)
		return p, false
	}
	return p, true
}

// respondPage writes the paginated envelope with absolute next/previous links.
func respondPage(c *gin.Context, detail string, p page, data any) {
	var next, previous any
	if p.hasNext() {
		next = pageLink(c, p.Number+1)
	}
	if p.hasPrevious() {
		previous = pageLink(c, p.Number-1)
	}
	c.JSON(http.StatusOK, gin.H{
		"detail":   detail,
		"data":     data,
		"count":    p.Count,
		"next":     next,
		"previous": previous,
	})
}

// preload returns a scope that preloads the named associations
func preload(names ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, name := range names {
			db = db.Preload(name)
		}
		return db
	}
}

func pageLink(c *gin.Context, number int) string {
	q := c.Request.URL.Query()
	if number == 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return absoluteURL(c, u.String())
}

// absoluteURL resolves path against the host the request was sent to
func absoluteURL(c *gin.Context, path string) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + path
}
