package service

import (
	"context"
	"errors"

	"github.com/valerusyaaa/crossplatform2/pkg/domain/model"
)

// ErrConflict is returned after a bounded number of transaction retries; the
// caller may repeat the request.
var ErrConflict = errors.New("operation conflicted with a concurrent request")

type Event interface {
	Type() string
}

type EventDispatcher interface {
	Dispatch(event Event) error
}

const maxTxAttempts = 3

// runInTx executes fn through the transaction manager and retries a bounded
// number of times when the transaction lost a concurrency conflict.
func runInTx(ctx context.Context, tx model.TxManager, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = tx.WithTransaction(ctx, fn)
		if !errors.Is(err, model.ErrOptimisticLock) {
			return err
		}
	}
	return ErrConflict
}
