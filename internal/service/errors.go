package service

import "fmt"

// ValidationError 请求里第一个缺失或非法的配置字段
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

// DuplicateError 已存在配置完全相同的实验，携带其 id 方便调用方直接重跑
type DuplicateError struct {
	ExistingID uint
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Similar experiment already exists (id=%d)", e.ExistingID)
}

type NotFoundError struct {
	ID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Experiment not found (id=%d)", e.ID)
}

// ConflictError 实验正在运行，拒绝删除
type ConflictError struct {
	ID uint
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("Cannot delete a running experiment (id=%d)", e.ID)
}

// AlreadyRunningError 同一实验已有执行在进行，拒绝二次 launch
type AlreadyRunningError struct {
	ID uint
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("Experiment is already running (id=%d)", e.ID)
}
