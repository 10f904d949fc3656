// Package tr связывает репозитории с менеджером транзакций go-transaction-manager.
package tr

import (
	"context"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier — транзакция из контекста или пул соединений.
type Querier = trmpgx.Tr

// Conn возвращает транзакцию, открытую менеджером выше по стеку, либо пул, если транзакции нет.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, pool)
}

// NewManager создаёт менеджер транзакций поверх пула PostgreSQL.
func NewManager(pool *pgxpool.Pool) *manager.Manager {
	return manager.Must(trmpgx.NewDefaultFactory(pool))
}
