package service

import (
	"mnist-lab/internal/logger"
	"mnist-lab/internal/store"
)

type ServiceContext struct {
	Registry    *Registry
	Coordinator *Coordinator
	Query       *QueryService
}

func NewServiceContext(st *store.Store, trainer Trainer, log *logger.Logger) *ServiceContext {
	return &ServiceContext{
		Registry:    NewRegistry(st, log),
		Coordinator: NewCoordinator(st, trainer, log),
		Query:       NewQueryService(st, log),
	}
}
