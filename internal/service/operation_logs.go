// operation_logs.go — просмотр журнала изменений.
package service

import (
	"context"
	"fmt"

	"github.com/bigkaa/goartstore/backoffice-module/internal/domain/model"
	"github.com/bigkaa/goartstore/backoffice-module/internal/query"
	"github.com/bigkaa/goartstore/backoffice-module/internal/repository"
)

// OperationLogService — чтение журнала изменений.
type OperationLogService struct {
	logs    repository.Store[model.OperationLog]
	details repository.Store[model.OperationLogDetail]
}

// NewOperationLogService создаёт OperationLogService.
func NewOperationLogService(logs repository.Store[model.OperationLog], details repository.Store[model.OperationLogDetail]) *OperationLogService {
	return &OperationLogService{logs: logs, details: details}
}

// Page — постраничная выборка заголовков. Без сортировки клиента —
// по времени операции, новые первыми.
func (s *OperationLogService) Page(ctx context.Context, req query.Request) (*query.Page[model.OperationLog], error) {
	if len(req.Sort) == 0 {
		req.Sort = []query.Sort{query.Descending("operatedAt")}
		req.Columns = append(req.Columns, query.Column{Field: "operatedAt", Orderable: true})
	}
	return query.Paginate(ctx, s.logs, req)
}

// Get возвращает заголовок журнала.
func (s *OperationLogService) Get(ctx context.Context, id string) (*model.OperationLog, error) {
	l, err := s.logs.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("OperationLog %s: %w", id, err)
	}
	return l, nil
}

// Details возвращает строки изменений полей для заголовка журнала.
func (s *OperationLogService) Details(ctx context.Context, logID string) ([]*model.OperationLogDetail, error) {
	if _, err := s.Get(ctx, logID); err != nil {
		return nil, err
	}
	rows, err := s.details.List(ctx, query.Where("logId", logID), []query.Sort{query.Ascending("fieldName")}, 0, -1)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения строк журнала: %w", err)
	}
	if rows == nil {
		rows = []*model.OperationLogDetail{}
	}
	return rows, nil
}
