package uow

import "github.com/jackc/pgx/v5"

// TxOption настраивает транзакцию, открываемую в UOW.Do.
type TxOption func(*pgx.TxOptions)

// WithIsoLevel задает уровень изоляции транзакции. По умолчанию используется уровень базы (read committed).
func WithIsoLevel(level pgx.TxIsoLevel) TxOption {
	return func(o *pgx.TxOptions) {
		o.IsoLevel = level
	}
}

func WithReadOnly() TxOption {
	return func(o *pgx.TxOptions) {
		o.AccessMode = pgx.ReadOnly
	}
}

func buildTxOptions(opts []TxOption) pgx.TxOptions {
	var txOpts pgx.TxOptions
	for _, opt := range opts {
		opt(&txOpts)
	}
	return txOpts
}
