package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Trainer  TrainerConfig  `yaml:"trainer"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// 前端静态资源目录（构建产物）
	PublicDir string `yaml:"public_dir"`
	Verbose   bool   `yaml:"verbose"`
}

type DatabaseConfig struct {
	// 驱动：sqlite/mysql
	Driver string `yaml:"driver"`
	// sqlite 数据文件路径
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	Charset  string `yaml:"charset"`
}

type TrainerConfig struct {
	// 模拟训练器的随机种子，0 表示按实验配置派生
	Seed int64 `yaml:"seed"`
	// 每个 epoch 的模拟耗时（毫秒），让轮询界面看得到进度
	EpochDelayMs int `yaml:"epoch_delay_ms"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.PublicDir == "" {
		c.Server.PublicDir = "./out"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "mnist_experiments.db"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Trainer.EpochDelayMs == 0 {
		c.Trainer.EpochDelayMs = 200
	}
}
