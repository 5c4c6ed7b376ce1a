package service

import (
	"context"
	"sync"

	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"
	"mnist-lab/internal/store"
)

// Coordinator 执行编排核心：抢占执行权、逐 epoch 落库、
// 把训练器的结局收敛成终态。互斥依据是库里持久化的 running
// 状态（TryMarkRunning 的 check-and-set），不依赖进程内存，
// 并发 launch 互相竞争也只会有一个成功。
//
// 已知限制：进程在 run 中途被杀会留下一条卡在 running 的记录，
// 需要人工处理，这里不做自动恢复。
type Coordinator struct {
	store   *store.Store
	trainer Trainer
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewCoordinator(st *store.Store, trainer Trainer, log *logger.Logger) *Coordinator {
	return &Coordinator{
		store:   st,
		trainer: trainer,
		log:     log.With("component", "coordinator"),
	}
}

// Launch 请求开始（或重新开始）一次执行；成功即返回，执行在后台进行
func (c *Coordinator) Launch(ctx context.Context, id uint) error {
	exp, err := c.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if exp == nil {
		return &NotFoundError{ID: id}
	}

	// 置 running + 清空旧 history 在一个事务里完成；
	// 失败说明已有执行在跑
	claimed, err := c.store.TryMarkRunning(ctx, id)
	if err != nil {
		return err
	}
	if !claimed {
		return &AlreadyRunningError{ID: id}
	}

	c.wg.Add(1)
	go c.execute(id, exp.ExperimentConfig)

	c.log.Infow("实验已启动", "id", id, "epochs", exp.Epochs)
	return nil
}

// Wait 等待所有在途执行结束（优雅退出和测试用）
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// execute 在独立 goroutine 里驱动一次完整的 run；
// 训练器的任何失败（包括 panic）都收敛为 failed，不向外传播
func (c *Coordinator) execute(id uint, cfg model.ExperimentConfig) {
	defer c.wg.Done()
	// 请求早已返回，执行用独立的生命周期
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("训练器 panic", "id", id, "panic", r)
			c.fail(ctx, id)
		}
	}()

	result, err := c.trainer.Run(ctx, cfg, func(m EpochMetrics) error {
		return c.store.RecordEpoch(ctx, id, model.HistoryRecord{
			Epoch:     m.Epoch,
			TrainLoss: m.TrainLoss,
			ValLoss:   m.ValLoss,
			TrainAcc:  m.TrainAcc,
			ValAcc:    m.ValAcc,
		})
	})
	if err != nil {
		// 已写入的 epoch 保留，便于排查失败前的走势
		c.log.Errorw("训练失败", "id", id, "error", err)
		c.fail(ctx, id)
		return
	}

	if err := c.store.Finalize(ctx, id, result.FinalValAcc, result.FinalValLoss, result.Duration.Seconds()); err != nil {
		c.log.Errorw("写入最终结果失败", "id", id, "error", err)
		c.fail(ctx, id)
		return
	}
	c.log.Infow("实验完成", "id", id,
		"accuracy", result.FinalValAcc, "loss", result.FinalValLoss,
		"duration", result.Duration.Seconds())
}

func (c *Coordinator) fail(ctx context.Context, id uint) {
	if err := c.store.MarkFailed(ctx, id); err != nil {
		c.log.Errorw("写入 failed 状态失败", "id", id, "error", err)
	}
}
