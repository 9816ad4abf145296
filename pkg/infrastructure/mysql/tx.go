package mysql

import (
	"context"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

type txKey struct{}

type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

// WithTransaction runs fn within one database transaction. The transaction is
// carried in the context; repositories in this package pick it up through ext.
func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return translateErr(err)
	}
	if err := tx.Commit(); err != nil {
		return translateErr(errors.Wrap(err, "commit transaction"))
	}
	return nil
}

// ext returns the ambient transaction when one is present, the pool otherwise.
func ext(ctx context.Context, db *sqlx.DB) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return db
}

// translateErr maps lock waits and deadlocks onto the optimistic-lock sentinel
// so the domain services retry them through the same bounded-retry path.
func translateErr(err error) error {
	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case 1205, 1213:
			return model.ErrOptimisticLock
		}
	}
	return err
}
