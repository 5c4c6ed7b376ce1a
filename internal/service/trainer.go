package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"mnist-lab/internal/config"
	"mnist-lab/internal/model"
)

// EpochMetrics 训练器每个 epoch 结束时回调携带的指标
type EpochMetrics struct {
	Epoch     int
	TrainLoss float64
	ValLoss   float64
	TrainAcc  float64
	ValAcc    float64
}

// TrainResult 训练完成后的最终结果
type TrainResult struct {
	FinalValLoss float64
	FinalValAcc  float64
	Duration     time.Duration
}

// EpochFunc 回调返回 error 时训练器必须中止本次 run
type EpochFunc func(m EpochMetrics) error

// Trainer 训练器协作方。实现方只依赖配置里的枚举标签，
// 模型结构与数据集加载都是实现方自己的事
type Trainer interface {
	Run(ctx context.Context, cfg model.ExperimentConfig, onEpoch EpochFunc) (*TrainResult, error)
}

// SimulatedTrainer 内置的模拟训练器：按配置确定性地合成一条
// MNIST 风格的收敛曲线，让整个服务端到端可跑、可演示
type SimulatedTrainer struct {
	seed       int64
	epochDelay time.Duration
}

func NewSimulatedTrainer(cfg *config.TrainerConfig) *SimulatedTrainer {
	return &SimulatedTrainer{
		seed:       cfg.Seed,
		epochDelay: time.Duration(cfg.EpochDelayMs) * time.Millisecond,
	}
}

func (t *SimulatedTrainer) Run(ctx context.Context, cfg model.ExperimentConfig, onEpoch EpochFunc) (*TrainResult, error) {
	rng := rand.New(rand.NewSource(t.configSeed(cfg)))
	start := time.Now()

	// 收敛速度由优化器与学习率决定，上限由模型结构决定
	rate := convergenceRate(cfg)
	ceiling := accuracyCeiling(cfg)

	// 学习率过大时训练发散，模拟真实调参翻车
	if cfg.LearningRate*float64(cfg.BatchSize) > 100 {
		return nil, fmt.Errorf("训练发散: lr=%v batch_size=%d", cfg.LearningRate, cfg.BatchSize)
	}

	var last EpochMetrics
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(t.epochDelay):
		}

		progress := 1 - math.Exp(-rate*float64(epoch))
		noise := rng.Float64()*0.02 - 0.01

		valAcc := clamp(0.10+(ceiling-0.10)*progress+noise, 0, 1)
		trainAcc := clamp(valAcc+0.01+rng.Float64()*0.01, 0, 1)
		// 初始 loss 约为 ln(10)，随准确率收敛
		valLoss := math.Max(2.30*(1-progress)+0.05+noise, 0.01)
		trainLoss := math.Max(valLoss-0.02-rng.Float64()*0.02, 0.01)

		last = EpochMetrics{
			Epoch:     epoch,
			TrainLoss: trainLoss,
			ValLoss:   valLoss,
			TrainAcc:  trainAcc,
			ValAcc:    valAcc,
		}
		if err := onEpoch(last); err != nil {
			return nil, err
		}
	}

	return &TrainResult{
		FinalValLoss: last.ValLoss,
		FinalValAcc:  last.ValAcc,
		Duration:     time.Since(start),
	}, nil
}

// configSeed 种子为 0 时按配置内容派生，保证同配置结果可复现
func (t *SimulatedTrainer) configSeed(cfg model.ExperimentConfig) int64 {
	if t.seed != 0 {
		return t.seed
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%v|%d|%d|%s|%s|%d|%d",
		cfg.Name, cfg.LearningRate, cfg.BatchSize, cfg.Epochs,
		cfg.Optimizer, cfg.ModelType, cfg.HiddenLayers, cfg.NeuronsPerLayer)
	return int64(h.Sum64())
}

func convergenceRate(cfg model.ExperimentConfig) float64 {
	base := 0.3
	switch cfg.Optimizer {
	case model.OptimizerAdam:
		base = 0.9
	case model.OptimizerAdadelta:
		base = 0.6
	}
	// 学习率偏离 0.01 会拖慢收敛
	scale := 1 / (1 + math.Abs(math.Log10(cfg.LearningRate/0.01)))
	return base * scale
}

func accuracyCeiling(cfg model.ExperimentConfig) float64 {
	ceiling := 0.975
	if cfg.ModelType == model.ModelTypeComplex {
		ceiling = 0.992
	}
	// 没有隐藏层的全连接网络上限明显更低
	if cfg.ModelType == model.ModelTypeSimple && cfg.HiddenLayers == 0 {
		ceiling = 0.92
	}
	return ceiling
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
