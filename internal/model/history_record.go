package model

// HistoryRecord 一次 run 中单个 epoch 的指标；同一实验内 epoch 唯一，
// 且始终是 1..current_epoch 的连续序列
type HistoryRecord struct {
	ID           uint    `gorm:"primarykey" json:"-"`
	ExperimentID uint    `gorm:"not null;uniqueIndex:uk_experiment_epoch" json:"-"`
	Epoch        int     `gorm:"not null;uniqueIndex:uk_experiment_epoch" json:"epoch"`
	TrainLoss    float64 `gorm:"not null" json:"train_loss"`
	ValLoss      float64 `gorm:"not null" json:"val_loss"`
	TrainAcc     float64 `gorm:"not null" json:"train_acc"`
	ValAcc       float64 `gorm:"not null" json:"val_acc"`
}

func (HistoryRecord) TableName() string {
	return "experiment_history"
}
