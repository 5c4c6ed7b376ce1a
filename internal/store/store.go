package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"

	"gorm.io/gorm"
)

// ErrInvalidTransition 状态转移不在转移表内
var ErrInvalidTransition = errors.New("状态转移不合法")

// Summary 列表页使用的精简行，不带 history
type Summary struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	Accuracy     *float64  `json:"accuracy"`
	Loss         *float64  `json:"loss"`
	Duration     *float64  `json:"duration"`
	CurrentEpoch int       `json:"current_epoch"`
}

// Store 持有数据库连接并提供事务化的读写操作；
// 调用方不直接接触 *gorm.DB，原子性边界都收在这里
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(db *gorm.DB, log *logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With("component", "store"),
	}
}

func (s *Store) Insert(ctx context.Context, cfg model.ExperimentConfig) (*model.Experiment, error) {
	exp := &model.Experiment{
		ExperimentConfig: cfg,
		Status:           model.StatusNotStarted,
	}
	if err := s.db.WithContext(ctx).Create(exp).Error; err != nil {
		return nil, fmt.Errorf("创建实验记录失败: %w", err)
	}
	return exp, nil
}

// Find 按 id 查找实验；不存在时返回 (nil, nil)
func (s *Store) Find(ctx context.Context, id uint) (*model.Experiment, error) {
	var exp model.Experiment
	err := s.db.WithContext(ctx).First(&exp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// FindByConfig 按八个配置字段做结构化等值查找（去重用）；
// map 形式的 Where 保证零值字段（如 hidden_layers=0）也参与匹配
func (s *Store) FindByConfig(ctx context.Context, cfg model.ExperimentConfig) (*model.Experiment, error) {
	var exp model.Experiment
	err := s.db.WithContext(ctx).Where(map[string]interface{}{
		"name":              cfg.Name,
		"learning_rate":     cfg.LearningRate,
		"batch_size":        cfg.BatchSize,
		"epochs":            cfg.Epochs,
		"optimizer":         cfg.Optimizer,
		"model_type":        cfg.ModelType,
		"hidden_layers":     cfg.HiddenLayers,
		"neurons_per_layer": cfg.NeuronsPerLayer,
	}).First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exp, nil
}

// List 返回排序后的精简列表；sortField/order 由调用方白名单校验
func (s *Store) List(ctx context.Context, sortField, order string) ([]Summary, error) {
	out := make([]Summary, 0)
	err := s.db.WithContext(ctx).
		Model(&model.Experiment{}).
		Select("id, name, status, created_at, accuracy, loss, duration, current_epoch").
		Order(fmt.Sprintf("%s %s", sortField, order)).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) HistoryOf(ctx context.Context, id uint) ([]model.HistoryRecord, error) {
	out := make([]model.HistoryRecord, 0)
	err := s.db.WithContext(ctx).
		Where("experiment_id = ?", id).
		Order("epoch ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus 按状态机转移表校验后更新状态
func (s *Store) UpdateStatus(ctx context.Context, id uint, status string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exp model.Experiment
		if err := tx.First(&exp, id).Error; err != nil {
			return err
		}
		if !model.CanTransition(exp.Status, status) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, exp.Status, status)
		}
		return tx.Model(&exp).Update("status", status).Error
	})
}

// TryMarkRunning 以 check-and-set 方式抢占执行权：
// 仅当当前状态不是 running 时置为 running、清空旧 history 与结果字段，
// 整体在一个事务内完成。返回是否抢占成功。
func (s *Store) TryMarkRunning(ctx context.Context, id uint) (bool, error) {
	claimed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Experiment{}).
			Where("id = ? AND status <> ?", id, model.StatusRunning).
			Updates(map[string]interface{}{
				"status":        model.StatusRunning,
				"current_epoch": 0,
				"accuracy":      nil,
				"loss":          nil,
				"duration":      nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		claimed = true
		return tx.Where("experiment_id = ?", id).Delete(&model.HistoryRecord{}).Error
	})
	return claimed, err
}

// RecordEpoch 把一个 epoch 的指标与 current_epoch 推进作为一个持久化步骤；
// 轮询方要么看到完整的一步，要么什么都看不到
func (s *Store) RecordEpoch(ctx context.Context, id uint, rec model.HistoryRecord) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec.ExperimentID = id
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return tx.Model(&model.Experiment{}).
			Where("id = ?", id).
			Update("current_epoch", rec.Epoch).Error
	})
}

func (s *Store) ClearHistory(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Where("experiment_id = ?", id).
		Delete(&model.HistoryRecord{}).Error
}

// Finalize 置为 completed 并记录最终结果，单事务
func (s *Store) Finalize(ctx context.Context, id uint, accuracy, loss, duration float64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exp model.Experiment
		if err := tx.First(&exp, id).Error; err != nil {
			return err
		}
		if !model.CanTransition(exp.Status, model.StatusCompleted) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, exp.Status, model.StatusCompleted)
		}
		return tx.Model(&exp).Updates(map[string]interface{}{
			"status":   model.StatusCompleted,
			"accuracy": accuracy,
			"loss":     loss,
			"duration": duration,
		}).Error
	})
}

// MarkFailed 置为 failed；已写入的 history 保留
func (s *Store) MarkFailed(ctx context.Context, id uint) error {
	return s.UpdateStatus(ctx, id, model.StatusFailed)
}

// Delete 删除实验并级联删除其全部 history，单事务；返回是否找到
func (s *Store) Delete(ctx context.Context, id uint) (bool, error) {
	found := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("experiment_id = ?", id).Delete(&model.HistoryRecord{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Experiment{}, id)
		if res.Error != nil {
			return res.Error
		}
		found = res.RowsAffected > 0
		return nil
	})
	return found, err
}
