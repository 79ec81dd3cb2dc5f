package store

import (
	"fmt"
	"strings"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	orderByNotifiedAt  = "notified_at"
	orderByMarketValue = "market_value"
	orderByMarketName  = "market_name"
)

// validOrderBy maps allowed OrderBy values to their SQL column expressions.
var validOrderBy = map[string]string{
	orderByNotifiedAt:  "notified_at DESC",
	orderByMarketValue: "market_value DESC",
	orderByMarketName:  "market_name ASC",
}

const defaultOrderBy = "notified_at DESC"

const baseNotifiedSelect = `SELECT id, item_id, market_name, market_value, notification_type,
	COALESCE(matched_keyword, ''), COALESCE(charm_name, ''), COALESCE(charm_category, ''),
	charm_price, percent_diff, notified_at
FROM notified_items`

const countNotifiedSelect = "SELECT COUNT(*) FROM notified_items"

// ToSQL builds the WHERE clause, ORDER BY, LIMIT, and OFFSET for a
// notification history query. It returns two SQL strings (one for the data
// query, one for the count query) and the positional parameters.
func (q *NotificationQuery) ToSQL() (dataSQL, countSQL string, args []any) {
	var conditions []string
	paramIdx := 1

	if q.Type != nil {
		conditions = append(conditions, fmt.Sprintf("notification_type = $%d", paramIdx))
		args = append(args, *q.Type)
		paramIdx++
	}

	if q.Keyword != nil {
		conditions = append(conditions, fmt.Sprintf("market_name ILIKE '%%' || $%d || '%%'", paramIdx))
		args = append(args, *q.Keyword)
		paramIdx++
	}

	if q.Since != nil {
		conditions = append(conditions, fmt.Sprintf("notified_at >= $%d", paramIdx))
		args = append(args, *q.Since)
		paramIdx++
	}

	var whereClause string
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Order by
	orderClause := defaultOrderBy
	if q.OrderBy != "" {
		if col, ok := validOrderBy[q.OrderBy]; ok {
			orderClause = col
		}
	}

	// Limit
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset := max(q.Offset, 0)

	dataSQL = fmt.Sprintf(
		"%s%s ORDER BY %s LIMIT %d OFFSET %d",
		baseNotifiedSelect, whereClause, orderClause, limit, offset,
	)

	countSQL = countNotifiedSelect + whereClause

	return dataSQL, countSQL, args
}
