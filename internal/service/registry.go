package service

import (
	"context"

	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"
	"mnist-lab/internal/store"
)

// CreateExperimentRequest 创建实验的入参；全部用指针以区分"缺字段"和"零值"
type CreateExperimentRequest struct {
	Name            *string  `json:"name"`
	LearningRate    *float64 `json:"learning_rate"`
	BatchSize       *int     `json:"batch_size"`
	Epochs          *int     `json:"epochs"`
	Optimizer       *string  `json:"optimizer"`
	ModelType       *string  `json:"model_type"`
	HiddenLayers    *int     `json:"hidden_layers"`
	NeuronsPerLayer *int     `json:"neurons_per_layer"`
}

// validate 按字段声明顺序返回第一个缺失/非法字段
func (r *CreateExperimentRequest) validate() (model.ExperimentConfig, *ValidationError) {
	var cfg model.ExperimentConfig
	switch {
	case r.Name == nil || *r.Name == "":
		return cfg, &ValidationError{Field: "name"}
	case r.LearningRate == nil || *r.LearningRate <= 0:
		return cfg, &ValidationError{Field: "learning_rate"}
	case r.BatchSize == nil || *r.BatchSize <= 0:
		return cfg, &ValidationError{Field: "batch_size"}
	// 零 epoch 的配置直接在这里拒绝，协调器不用处理退化 run
	case r.Epochs == nil || *r.Epochs <= 0:
		return cfg, &ValidationError{Field: "epochs"}
	case r.Optimizer == nil || !model.ValidOptimizer(*r.Optimizer):
		return cfg, &ValidationError{Field: "optimizer"}
	case r.ModelType == nil || !model.ValidModelType(*r.ModelType):
		return cfg, &ValidationError{Field: "model_type"}
	case r.HiddenLayers == nil || *r.HiddenLayers < 0:
		return cfg, &ValidationError{Field: "hidden_layers"}
	case r.NeuronsPerLayer == nil || *r.NeuronsPerLayer <= 0:
		return cfg, &ValidationError{Field: "neurons_per_layer"}
	}

	return model.ExperimentConfig{
		Name:            *r.Name,
		LearningRate:    *r.LearningRate,
		BatchSize:       *r.BatchSize,
		Epochs:          *r.Epochs,
		Optimizer:       *r.Optimizer,
		ModelType:       *r.ModelType,
		HiddenLayers:    *r.HiddenLayers,
		NeuronsPerLayer: *r.NeuronsPerLayer,
	}, nil
}

// Registry 负责实验的录入与删除：校验、按八字段去重、运行中保护
type Registry struct {
	store *store.Store
	log   *logger.Logger
}

func NewRegistry(st *store.Store, log *logger.Logger) *Registry {
	return &Registry{
		store: st,
		log:   log.With("component", "registry"),
	}
}

func (r *Registry) Create(ctx context.Context, req CreateExperimentRequest) (*model.Experiment, error) {
	cfg, verr := req.validate()
	if verr != nil {
		return nil, verr
	}

	existing, err := r.store.FindByConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateError{ExistingID: existing.ID}
	}

	exp, err := r.store.Insert(ctx, cfg)
	if err != nil {
		return nil, err
	}
	r.log.Infow("实验已创建", "id", exp.ID, "name", exp.Name)
	return exp, nil
}

func (r *Registry) Delete(ctx context.Context, id uint) error {
	exp, err := r.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if exp == nil {
		return &NotFoundError{ID: id}
	}
	if exp.Status == model.StatusRunning {
		return &ConflictError{ID: id}
	}

	found, err := r.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return &NotFoundError{ID: id}
	}
	r.log.Infow("实验已删除", "id", id)
	return nil
}
