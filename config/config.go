package config

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// TransferConfig 描述一次曲目名称迁移的默认参数，命令行和 HTTP 请求可以覆盖其中的字段。
type TransferConfig struct {
	SourceDir          string `mapstructure:"sourceDir" yaml:"sourceDir" json:"sourceDir"`
	TargetDir          string `mapstructure:"targetDir" yaml:"targetDir" json:"targetDir"`
	Strict             bool   `mapstructure:"strict" yaml:"strict" json:"strict"`
	RejectDuplicates   bool   `mapstructure:"rejectDuplicates" yaml:"rejectDuplicates" json:"rejectDuplicates"`
	CaseInsensitiveExt bool   `mapstructure:"caseInsensitiveExt" yaml:"caseInsensitiveExt" json:"caseInsensitiveExt"`
	ASCIINames         bool   `mapstructure:"asciiNames" yaml:"asciiNames" json:"asciiNames"`
	DryRun             bool   `mapstructure:"dryRun" yaml:"dryRun" json:"dryRun"`
}

type ServerConfig struct {
	Port    string        `mapstructure:"port" yaml:"port" json:"port"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

// DatabaseConfig 中 URI 为空时历史记录只保存在内存中。
type DatabaseConfig struct {
	URI  string `mapstructure:"uri" yaml:"uri" json:"uri"`
	Name string `mapstructure:"name" yaml:"name" json:"name"`
}

type LoggerConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	Path   string `mapstructure:"path" yaml:"path" json:"path"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database" json:"database"`
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger" json:"logger"`
	Transfer TransferConfig `mapstructure:"transfer" yaml:"transfer" json:"transfer"`
}

// C 是启动时加载的配置。启动完成后有并发读写的地方（HTTP 处理器）应使用 Current 和 Set。
var C *Config

var mu sync.RWMutex

// Current 返回当前配置。
func Current() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return C
}

// Set 替换当前配置，cfg 替换后不应再被修改。
func Set(cfg *Config) {
	mu.Lock()
	C = cfg
	mu.Unlock()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.timeout", 30*time.Second)
	v.SetDefault("database.uri", "")
	v.SetDefault("database.name", "tracks_transfer")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.path", "./logs")
	v.SetDefault("transfer.strict", false)
	v.SetDefault("transfer.rejectDuplicates", false)
	v.SetDefault("transfer.caseInsensitiveExt", false)
	v.SetDefault("transfer.asciiNames", false)
	v.SetDefault("transfer.dryRun", false)
}

// LoadConfig 从 path 目录读取 config.yaml。文件不存在时只使用默认值和环境变量。
func LoadConfig(path string) (err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
	}

	cfg := &Config{}
	if err = v.Unmarshal(cfg); err != nil {
		return
	}
	Set(cfg)
	return nil
}
