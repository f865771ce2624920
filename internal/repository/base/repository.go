package base

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier общий интерфейс пула и транзакции
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type txKey struct{}

// DB обёртка над пулом соединений. Если в контексте лежит открытая
// транзакция, все запросы репозиториев уходят в неё.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB создаёт обёртку над пулом
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Pool возвращает пул соединений
func (d *DB) Pool() *pgxpool.Pool {
	return d.pool
}

// Querier возвращает транзакцию из контекста или пул
func (d *DB) Querier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return d.pool
}

// InTx выполняет fn в транзакции. Повторный вызов внутри открытой
// транзакции не открывает вложенную, а продолжает текущую.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// LockKeys берёт advisory-локи на ключи до конца транзакции.
// Ключи сортируются, чтобы конкурентные вызовы брали локи в одном
// порядке и не взаимоблокировались. Вызывать только внутри InTx.
func (d *DB) LockKeys(ctx context.Context, keys ...int64) error {
	keys = slices.Clone(keys)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	q := d.Querier(ctx)
	for _, key := range keys {
		if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key); err != nil {
			return fmt.Errorf("acquire advisory lock %d: %w", key, err)
		}
	}
	return nil
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsUniqueViolation проверяет нарушение уникального ограничения
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsRetryable проверяет, стоит ли повторить транзакцию
// (deadlock или serialization failure)
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
