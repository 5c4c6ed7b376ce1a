package model

import (
	"time"
)

const (
	// StatusNotStarted 初始状态，尚未执行过
	StatusNotStarted = "not_started"
	// StatusRunning 正在执行
	StatusRunning = "running"
	// StatusCompleted 终态：执行成功
	StatusCompleted = "completed"
	// StatusFailed 终态：执行失败
	StatusFailed = "failed"
)

const (
	OptimizerSGD      = "sgd"
	OptimizerAdam     = "adam"
	OptimizerAdadelta = "adadelta"

	ModelTypeSimple  = "simple"
	ModelTypeComplex = "complex"
)

// statusTransitions 状态机转移表；终态只能通过重新 launch 回到 running
var statusTransitions = map[string][]string{
	StatusNotStarted: {StatusRunning},
	StatusRunning:    {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRunning},
	StatusFailed:     {StatusRunning},
}

// CanTransition 判断状态转移是否在转移表内
func CanTransition(from, to string) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func ValidOptimizer(s string) bool {
	return s == OptimizerSGD || s == OptimizerAdam || s == OptimizerAdadelta
}

func ValidModelType(s string) bool {
	return s == ModelTypeSimple || s == ModelTypeComplex
}

// ExperimentConfig 实验配置，创建后不可变；八个字段共同决定去重
type ExperimentConfig struct {
	Name            string  `gorm:"type:varchar(255);not null" json:"name"`
	LearningRate    float64 `gorm:"not null" json:"learning_rate"`
	BatchSize       int     `gorm:"not null" json:"batch_size"`
	Epochs          int     `gorm:"not null" json:"epochs"`
	Optimizer       string  `gorm:"type:varchar(20);not null" json:"optimizer"`
	ModelType       string  `gorm:"type:varchar(20);not null" json:"model_type"`
	HiddenLayers    int     `gorm:"not null" json:"hidden_layers"`
	NeuronsPerLayer int     `gorm:"not null" json:"neurons_per_layer"`
}

type Experiment struct {
	ID               uint `gorm:"primarykey" json:"id"`
	ExperimentConfig `gorm:"embedded"`

	Status       string    `gorm:"type:varchar(20);default:'not_started';index" json:"status"`
	CurrentEpoch int       `gorm:"default:0" json:"current_epoch"`
	Accuracy     *float64  `json:"accuracy"`
	Loss         *float64  `json:"loss"`
	Duration     *float64  `json:"duration"`
	CreatedAt    time.Time `json:"created_at"`

	History []HistoryRecord `gorm:"foreignKey:ExperimentID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Experiment) TableName() string {
	return "experiments"
}

// Terminal 是否处于终态
func (e *Experiment) Terminal() bool {
	return e.Status == StatusCompleted || e.Status == StatusFailed
}
