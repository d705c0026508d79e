package database

import "context"

// txKey is unexported so only this file can populate or read the context
// value it keys, the same pattern context.Context's own docs recommend.
type txKey struct{}

// TxInfo is what WithTx attaches to a context: the active transaction and
// whether the attaching code owns its commit/rollback.
type TxInfo struct {
	Tx    Transaction
	Owned bool
}

// WithTx attaches tx to ctx so repository calls further down the call
// chain run against it instead of opening their own connection-level
// statement. Nothing in this repository calls WithTx today — its one
// repository (internal/store) issues a single statement per call — but
// ExecutorFromContext already honors it, so a future multi-statement
// operation (e.g. a save-and-audit sequence) gets transactional execution
// for free.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, TxInfo{Tx: tx, Owned: owned})
}

// TxFromContext returns the transaction WithTx attached to ctx, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return nil
	}
	return info.Tx
}

// TxInfoFromContext returns the full TxInfo WithTx attached to ctx.
func TxInfoFromContext(ctx context.Context) (TxInfo, bool) {
	info, ok := ctx.Value(txKey{}).(TxInfo)
	if !ok || info.Tx == nil {
		return TxInfo{}, false
	}
	return info, true
}

// ExecutorFromContext returns ctx's transaction if WithTx attached one,
// otherwise conn itself — letting a repository method run unmodified
// whether or not its caller wrapped it in a transaction. internal/store
// uses this for every statement it issues.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
