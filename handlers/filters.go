package handlers

import (
	"strings"

	"gorm.io/gorm"
)

// parseBoolParam accepts true/false/1/0 in any case
func parseBoolParam(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	}
	return false, false
}

// searchTerms ANDs a case-insensitive substring match on column for every
// whitespace-separated term.
func searchTerms(query *gorm.DB, column, search string) *gorm.DB {
	for _, term := range strings.Fields(search) {
		query = query.Where("LOWER("+column+") LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	return query
}
