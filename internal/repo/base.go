package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base carries the GORM connection shared by the pipeline's repositories.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the connection bound to ctx so cancellation from the consumer
// reaches in-flight queries.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}

// Transact runs fn inside a transaction bound to ctx. The transaction is
// rolled back when fn returns an error.
func (b Base) Transact(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.DB(ctx).Transaction(fn)
}
