package repository

import "context"

// Transactor runs fn inside one storage transaction. fn receives a context bound to
// the transaction; repository calls made with it join the transaction. Nested calls
// reuse the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txMarker struct{}

// MarkTx flags ctx as running inside a transaction. Transactor implementations call it
// so storage-agnostic wrappers can tell transactional work apart.
func MarkTx(ctx context.Context) context.Context {
	return context.WithValue(ctx, txMarker{}, true)
}

// InTx reports whether ctx was produced by a Transactor.
func InTx(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	marked, _ := ctx.Value(txMarker{}).(bool)
	return marked
}
