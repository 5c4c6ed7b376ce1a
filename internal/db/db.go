package db

import (
	"fmt"

	"mnist-lab/internal/config"
	"mnist-lab/internal/logger"
	"mnist-lab/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"moul.io/zapgorm2"
)

var DB *gorm.DB

func InitDB(cfg *config.Config, log *logger.Logger) error {
	gormLogger := zapgorm2.New(log.Desugar())
	logLevel := gormlogger.Warn
	if cfg.Server.Verbose {
		logLevel = gormlogger.Info
	}

	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "mysql":
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.DBName,
			cfg.Database.Charset,
		)
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", cfg.Database.Driver)
	}

	var err error
	DB, err = gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("连接数据库失败: %w", err)
	}

	// 自动迁移
	if err := DB.AutoMigrate(
		&model.Experiment{},
		&model.HistoryRecord{},
	); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	log.Infow("数据库初始化成功", "driver", cfg.Database.Driver)
	return nil
}
