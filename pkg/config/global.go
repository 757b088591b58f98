package config

import "sync/atomic"

var globalConfig atomic.Pointer[Config]

// SetGlobalConfig 设置全局配置，仅供启动阶段与日志初始化使用
func SetGlobalConfig(cfg *Config) {
	globalConfig.Store(cfg)
}

// GetGlobalConfig 获取全局配置，未初始化时返回nil
func GetGlobalConfig() *Config {
	return globalConfig.Load()
}
