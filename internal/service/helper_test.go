package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"
	"mnist-lab/internal/store"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Experiment{}, &model.HistoryRecord{}))
	return store.New(db, logger.NewNop())
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func f64Ptr(f float64) *float64 { return &f }

func validRequest(name string) CreateExperimentRequest {
	return CreateExperimentRequest{
		Name:            strPtr(name),
		LearningRate:    f64Ptr(0.01),
		BatchSize:       intPtr(64),
		Epochs:          intPtr(2),
		Optimizer:       strPtr(model.OptimizerAdam),
		ModelType:       strPtr(model.ModelTypeSimple),
		HiddenLayers:    intPtr(2),
		NeuronsPerLayer: intPtr(128),
	}
}

// fakeTrainer 按脚本产出 epoch；failAt > 0 时在该 epoch 回调前失败；
// block 非空时先阻塞到被关闭，用来制造"执行中"窗口
type fakeTrainer struct {
	failAt  int
	panicAt int
	block   chan struct{}
}

func (f *fakeTrainer) Run(ctx context.Context, cfg model.ExperimentConfig, onEpoch EpochFunc) (*TrainResult, error) {
	if f.block != nil {
		<-f.block
	}
	var last EpochMetrics
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if f.failAt > 0 && epoch == f.failAt {
			return nil, fmt.Errorf("模拟第 %d 个 epoch 失败", epoch)
		}
		if f.panicAt > 0 && epoch == f.panicAt {
			panic("模拟训练器崩溃")
		}
		last = EpochMetrics{
			Epoch:     epoch,
			TrainLoss: 1.0 / float64(epoch),
			ValLoss:   1.1 / float64(epoch),
			TrainAcc:  float64(epoch) / float64(cfg.Epochs),
			ValAcc:    0.9 * float64(epoch) / float64(cfg.Epochs),
		}
		if err := onEpoch(last); err != nil {
			return nil, err
		}
	}
	return &TrainResult{
		FinalValLoss: last.ValLoss,
		FinalValAcc:  last.ValAcc,
		Duration:     123 * time.Millisecond,
	}, nil
}
