// Package config 读取 YAML 配置文件，环境变量 MVC_* 的优先级更高
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const envPrefix = "MVC_"

type Config struct {
	App      App      `yaml:"app"`
	Database Database `yaml:"database"`
	Log      Log      `yaml:"log"`
	Tracing  Tracing  `yaml:"tracing"`
	Metrics  Metrics  `yaml:"metrics"`
	Session  Session  `yaml:"session"`
}

type App struct {
	// BaseURL 例如 http://localhost:8080 或者 /app，可以为空
	BaseURL      string `yaml:"base_url"`
	Addr         string `yaml:"addr" validate:"required"`
	NotFoundPath string `yaml:"not_found_path" validate:"required,startswith=/"`
	ErrorPath    string `yaml:"error_path" validate:"required,startswith=/"`
	// 为空的时候使用内置的视图和静态资源
	ViewsDir     string `yaml:"views_dir"`
	ResourcesDir string `yaml:"resources_dir"`
}

type Database struct {
	Driver string `yaml:"driver" validate:"required,oneof=mysql sqlite3 pgx"`
	DSN    string `yaml:"dsn" validate:"required"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type Tracing struct {
	Exporter string `yaml:"exporter" validate:"oneof=none jaeger zipkin"`
	Endpoint string `yaml:"endpoint" validate:"required_unless=Exporter none"`
	Service  string `yaml:"service" validate:"required"`
}

// Metrics 指标在单独的端口上暴露，Addr 为空的时候不暴露
type Metrics struct {
	Addr string `yaml:"addr"`
	Path string `yaml:"path" validate:"required,startswith=/"`
}

type Session struct {
	Store     string        `yaml:"store" validate:"oneof=memory redis"`
	RedisAddr string        `yaml:"redis_addr" validate:"required_if=Store redis"`
	TTL       time.Duration `yaml:"ttl" validate:"gt=0"`
	Cookie    string        `yaml:"cookie" validate:"required"`
}

// Default 不需要任何外部依赖就能启动
func Default() Config {
	return Config{
		App: App{
			Addr:         ":8080",
			NotFoundPath: "/miscellaneous/404",
			ErrorPath:    "/error/500",
		},
		Database: Database{
			Driver: "sqlite3",
			DSN:    "file:mvc.db?cache=shared",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Tracing: Tracing{
			Exporter: "none",
			Service:  "mvc",
		},
		Metrics: Metrics{
			Addr: ":9100",
			Path: "/metrics",
		},
		Session: Session{
			Store:  "memory",
			TTL:    15 * time.Minute,
			Cookie: "mvc_session",
		},
	}
}

// Load path 为空的时候只使用默认值和环境变量
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: 读取配置文件失败 %w", err)
		}
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: 解析配置文件失败 %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"BASE_URL":         &c.App.BaseURL,
		"ADDR":             &c.App.Addr,
		"NOT_FOUND_PATH":   &c.App.NotFoundPath,
		"ERROR_PATH":       &c.App.ErrorPath,
		"VIEWS_DIR":        &c.App.ViewsDir,
		"RESOURCES_DIR":    &c.App.ResourcesDir,
		"DB_DRIVER":        &c.Database.Driver,
		"DB_DSN":           &c.Database.DSN,
		"LOG_LEVEL":        &c.Log.Level,
		"LOG_FORMAT":       &c.Log.Format,
		"TRACING_EXPORTER": &c.Tracing.Exporter,
		"TRACING_ENDPOINT": &c.Tracing.Endpoint,
		"TRACING_SERVICE":  &c.Tracing.Service,
		"METRICS_ADDR":     &c.Metrics.Addr,
		"METRICS_PATH":     &c.Metrics.Path,
		"SESSION_STORE":    &c.Session.Store,
		"REDIS_ADDR":       &c.Session.RedisAddr,
		"SESSION_COOKIE":   &c.Session.Cookie,
	}
	for key, ptr := range strs {
		*ptr = getEnv(envPrefix+key, *ptr)
	}

	if ttl := os.Getenv(envPrefix + "SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return fmt.Errorf("config: %sSESSION_TTL 不是合法的时间 %w", envPrefix, err)
		}
		c.Session.TTL = d
	}
	return nil
}

// Validate 校验字段，mysql 的 DSN 额外检查格式
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			msgs := make([]string, 0, len(ves))
			for _, fe := range ves {
				msgs = append(msgs, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: 非法配置 %s", strings.Join(msgs, ", "))
		}
		return err
	}
	if c.Database.Driver == "mysql" {
		if _, err := mysql.ParseDSN(c.Database.DSN); err != nil {
			return fmt.Errorf("config: 非法的 mysql DSN %w", err)
		}
	}
	return nil
}

// String 隐藏密码之类的敏感信息，方便打日志
func (d Database) String() string {
	if d.Driver == "mysql" {
		if c, err := mysql.ParseDSN(d.DSN); err == nil {
			c.Passwd = "***"
			return d.Driver + "://" + c.FormatDSN()
		}
	}
	if d.Driver == "sqlite3" {
		return d.Driver + "://" + strconv.Quote(d.DSN)
	}
	return d.Driver
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
