package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

// orderFields maps the field names accepted by order_by to columns, in display order.
type orderFields struct {
	names   []string
	columns map[string]string
}

func newOrderFields(pairs ...string) orderFields {
	of := orderFields{columns: map[string]string{}}
	for i := 0; i+1 < len(pairs); i += 2 {
		of.names = append(of.names, pairs[i])
		of.columns[pairs[i]] = pairs[i+1]
	}
	return of
}

// orderClause converts "?order_by=-price,title" into an ORDER BY clause. Unknown
// fields produce a validation error naming the accepted ones.
func (of orderFields) orderClause(c *gin.Context, fallback string) (string, FieldErrors) {
	raw := strings.TrimSpace(c.Query("order_by"))
	if raw == "" {
		return fallback, nil
	}

	var clauses, invalid []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		name := strings.TrimPrefix(field, "-")
		column, ok := of.columns[name]
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		if strings.HasPrefix(field, "-") {
			column += " DESC"
		}
		clauses = append(clauses, column)
	}

	if len(invalid) > 0 {
		return "", FieldErrors{"ordering": {fmt.Sprintf(
			"Invalid ordering field(s): %s. Expected one of: %s.",
			strings.Join(invalid, ", "), strings.Join(of.names, ", "),
		)}}
	}
	if len(clauses) == 0 {
		return fallback, nil
	}
	return strings.Join(clauses, ", "), nil
}
