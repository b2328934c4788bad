package model

import "time"

// OperationKind — вид операции в журнале аудита.
type OperationKind string

const (
	OperationCreate   OperationKind = "Create"
	OperationImport   OperationKind = "Import"
	OperationDetail   OperationKind = "Detail"
	OperationUpdate   OperationKind = "Update"
	OperationDelete   OperationKind = "Delete"
	OperationRecovery OperationKind = "Recovery"
	OperationRemove   OperationKind = "Remove"
)

// OperationLog — заголовок записи аудита, один на мутацию.
// Не изменяется и не удаляется движком.
type OperationLog struct {
	ID         string        `json:"id"`
	EntityName string        `json:"entityName"`
	TableName  string        `json:"tableName"`
	Kind       OperationKind `json:"kind"`
	UserID     *string       `json:"userId,omitempty"`
	UserName   *string       `json:"userName,omitempty"`
	RealName   *string       `json:"realName,omitempty"`
	ClientIP   *string       `json:"clientIp,omitempty"`
	OperatedAt time.Time     `json:"operatedAt"`
}

// OperationLogDetail — изменение одного поля в рамках OperationLog.
type OperationLogDetail struct {
	ID         string  `json:"id"`
	LogID      string  `json:"logId"`
	FieldName  string  `json:"fieldName"`
	ColumnName string  `json:"columnName"`
	DataType   string  `json:"dataType"`
	OldValue   *string `json:"oldValue,omitempty"`
	NewValue   *string `json:"newValue,omitempty"`
}
