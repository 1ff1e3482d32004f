package sqlitedb

import (
	"errors"
	"strings"

	"github.com/DRSN-tech/inventory-service/internal/usecase"
	"github.com/mattn/go-sqlite3"
)

// sqliteDuplicate проверяет, является ли ошибка нарушением UNIQUE-ограничения.
func sqliteDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// likePattern экранирует спецсимволы LIKE и оборачивает строку в % для поиска подстроки.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// productWhere строит общее условие WHERE для выборки страницы и подсчета.
// LIKE в SQLite не учитывает регистр для ASCII.
func productWhere(filter usecase.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}

	if filter.Name != "" {
		conds = append(conds, `name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(filter.Name))
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
		return " ORDER BY id " + dir
	}

	return " ORDER BY " + q.SortField + " " + dir + ", id " + dir
}
