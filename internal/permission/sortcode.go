package permission

import (
	"fmt"
	"strconv"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
)

// NextSortCode вычисляет код сортировки нового узла.
// Без соседей: у корня — "1", иначе код родителя + "01".
// С соседями: максимальный код соседа как целое число плюс один.
// Длина кода не ограничена: после 99 детей у одного родителя (или 9 у
// корня) коды перестают сравниваться лексикографически.
func NextSortCode(parentCode string, siblingCodes []string) (string, error) {
	if len(siblingCodes) == 0 {
		if parentCode == model.RootID {
			return "1", nil
		}
		return parentCode + "01", nil
	}

	var maxCode int64
	for i, code := range siblingCodes {
		n, err := strconv.ParseInt(code, 10, 64)
		if err != nil {
			return "", fmt.Errorf("некорректный код сортировки %q: %w", code, err)
		}
		if i == 0 || n > maxCode {
			maxCode = n
		}
	}
	return strconv.FormatInt(maxCode+1, 10), nil
}
