package pgdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/jackc/pgx/v5/pgconn"
)

// postgresDuplicate проверяет, является ли ошибка нарушением уникальности (23505).
func postgresDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// likePattern экранирует спецсимволы LIKE и оборачивает строку в % для поиска подстроки.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// productWhere строит общее условие WHERE для выборки страницы и подсчета.
// Возвращает условие (или пустую строку) и аргументы, нумерация плейсхолдеров начинается с $1.
func productWhere(filter usecase.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	if filter.Name != "" {
		args = append(args, likePattern(filter.Name))
		conds = append(conds, fmt.Sprintf(`name ILIKE $%d ESCAPE '\'`, len(args)))
	}

	if len(conds) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

var sortColumns = map[string]struct{}{
	"id": {}, "name": {}, "category": {}, "brand": {}, "stock": {}, "status": {},
}

// orderBy возвращает ORDER BY с добавочной сортировкой по id для стабильных страниц.
func orderBy(q *usecase.ProductQuery) string {
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	if _, ok := sortColumns[q.SortField]; !ok || q.SortField == "id" {
		return fmt.Sprintf(" ORDER BY id %s", dir)
	}

	return fmt.Sprintf(" ORDER BY %s %s, id %s", q.SortField, dir, dir)
}
