package usecase

import "context"

// TxManager выполняет fn в транзакции, доступной репозиториям через контекст.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// MutationObserver получает итог каждой мутации (метрики).
type MutationObserver interface {
	MutationDone(op string, err error)
}
