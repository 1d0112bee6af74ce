// Package config 는 viper 기반 설정 로더입니다.
//
// 설정 파일은 configs/{APP_ENV}/{service}.yaml (또는 CONFIG_PATH) 에서 읽고,
// 없으면 configs/example 을 시도합니다. 환경 변수는 {SERVICE}_ 접두사와
// "." -> "_" 치환 규칙으로 파일 값을 덮어씁니다. (예: PAYMENT_SERVICE_STRIPE_SECRET_KEY)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 설정 값 접근자
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string
	IsSet(key string) bool
	// Unmarshal 전체 설정을 mapstructure 태그 기준으로 구조체에 채웁니다.
	Unmarshal(out interface{}) error
}

type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) GetString(key string) string        { return c.v.GetString(key) }
func (c *viperConfig) GetInt(key string) int              { return c.v.GetInt(key) }
func (c *viperConfig) GetBool(key string) bool            { return c.v.GetBool(key) }
func (c *viperConfig) GetStringSlice(key string) []string { return c.v.GetStringSlice(key) }
func (c *viperConfig) IsSet(key string) bool              { return c.v.IsSet(key) }
func (c *viperConfig) Unmarshal(out interface{}) error    { return c.v.Unmarshal(out) }

const configDir = "configs"

// Option Load 동작 변경
type Option func(*viper.Viper)

// WithDefaults 파일/환경 변수에 값이 없을 때 사용할 기본값
func WithDefaults(defaults map[string]interface{}) Option {
	return func(v *viper.Viper) {
		for k, val := range defaults {
			v.SetDefault(k, val)
		}
	}
}

// WithEnvKeys 파일에 없는 키도 환경 변수로 설정할 수 있도록 바인딩합니다.
// viper 의 AutomaticEnv 는 Unmarshal 시 알려진 키만 조회하기 때문에 필요합니다.
func WithEnvKeys(keys ...string) Option {
	return func(v *viper.Viper) {
		for _, k := range keys {
			_ = v.BindEnv(k)
		}
	}
}

// Load 서비스 이름에 해당하는 설정을 로드합니다.
func Load(serviceName string, opts ...Option) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		opt(v)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" && filepath.Ext(path) != "" {
		// 파일 경로를 직접 지정한 경우
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패 (%s): %w", path, err)
		}
		return &viperConfig{v: v}, nil
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	dir := os.Getenv("CONFIG_PATH")
	if dir == "" {
		dir = filepath.Join(configDir, env)
	}

	v.SetConfigName(serviceName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		v.AddConfigPath(filepath.Join(configDir, "example"))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("설정 파일 로드 실패: %w", err)
		}
	}

	return &viperConfig{v: v}, nil
}
