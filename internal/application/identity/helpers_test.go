package identity

import (
	"strconv"
	"strings"

	"github.com/shop/backend/internal/application/common"
)

func commonID(id int64) common.FlexibleID {
	return common.FlexibleID(id)
}

func idList(ids ...int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
