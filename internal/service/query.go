package service

import (
	"context"

	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"
	"mnist-lab/internal/store"
)

const (
	defaultSortField = "created_at"
	defaultSortOrder = "desc"
)

// 排序字段白名单；也防了拼 SQL 注入
var listSortFields = map[string]bool{
	"created_at": true,
	"accuracy":   true,
	"loss":       true,
	"duration":   true,
	"name":       true,
}

// ExperimentDetail 详情 = 完整记录 + 按 epoch 升序的 history
type ExperimentDetail struct {
	model.Experiment
	History []model.HistoryRecord `json:"history"`
}

// QueryService 读侧投影：列表（可排序）与详情（带 history）
type QueryService struct {
	store *store.Store
	log   *logger.Logger
}

func NewQueryService(st *store.Store, log *logger.Logger) *QueryService {
	return &QueryService{
		store: st,
		log:   log.With("component", "query"),
	}
}

// List 非法的 sort/order 静默回落到 created_at/desc，从不报错
func (s *QueryService) List(ctx context.Context, sortField, order string) ([]store.Summary, error) {
	if !listSortFields[sortField] {
		sortField = defaultSortField
	}
	if order != "asc" && order != "desc" {
		order = defaultSortOrder
	}
	return s.store.List(ctx, sortField, order)
}

func (s *QueryService) Detail(ctx context.Context, id uint) (*ExperimentDetail, error) {
	exp, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if exp == nil {
		return nil, &NotFoundError{ID: id}
	}

	history, err := s.store.HistoryOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ExperimentDetail{
		Experiment: *exp,
		History:    history,
	}, nil
}
