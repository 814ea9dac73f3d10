package persistence

import "gorm.io/gorm"

// row is a gorm model whose pointer converts to the domain type D.
type row[M, D any] interface {
	*M
	ToDomain() *D
}

// findOne loads the first row matched by q. A miss is shared.ErrNotFound.
func findOne[M, D any, P row[M, D]](q *gorm.DB) (*D, error) {
	var m M
	if err := q.First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return P(&m).ToDomain(), nil
}

// findAll loads every row matched by q, keeping the query's order.
func findAll[M, D any, P row[M, D]](q *gorm.DB) ([]D, error) {
	var ms []M
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]D, len(ms))
	for i := range ms {
		out[i] = *P(&ms[i]).ToDomain()
	}
	return out, nil
}
