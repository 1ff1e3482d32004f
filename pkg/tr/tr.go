// Package tr содержит общие настройки транзакций поверх go-transaction-manager.
package tr

import (
	"context"

	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/settings"
)

// Manager — минимальный контракт менеджера транзакций, который нужен usecase-слою.
// *manager.Manager из go-transaction-manager удовлетворяет ему для любого драйвера.
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoWithSettings(ctx context.Context, s trm.Settings, fn func(ctx context.Context) error) error
}

// Nested — вложенная транзакция (SAVEPOINT): ошибка внутри откатывает только точку сохранения,
// внешняя транзакция продолжает работу.
func Nested() trm.Settings {
	return settings.Must(settings.WithPropagation(trm.PropagationNested))
}
