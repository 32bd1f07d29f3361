package config

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// ErrSettingNotFound ключа нет ни в файле, ни в env.
var ErrSettingNotFound = errors.New("setting not found")

// Provider read-only доступ к настройкам по секции и ключу,
// как config.get_setting("STRATEGY_SETTINGS", "STRATEGY_NAME").
type Provider interface {
	GetSetting(section, key string) (any, error)
}

// Settings Provider поверх viper. Env перекрывает файл: FIBO_STRATEGY_SETTINGS_Z2_INDEX_OFFSET=2.
type Settings struct {
	v *viper.Viper
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("FIBO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// NewSettings читает тот же файл, что и NewConfig.
func NewSettings(cfg *Config) (*Settings, error) {
	v := newViper()
	v.SetConfigFile(cfg.Path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "read settings %s", cfg.Path)
	}
	return &Settings{v: v}, nil
}

// NewSettingsFromReader для тестов и CLI (configType: "yaml", "json", ...).
func NewSettingsFromReader(r io.Reader, configType string) (*Settings, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.Wrap(err, "read settings")
	}
	return &Settings{v: v}, nil
}

func settingKey(section, key string) string {
	return strings.ToLower(section) + "." + strings.ToLower(key)
}

func (s *Settings) GetSetting(section, key string) (any, error) {
	k := settingKey(section, key)
	if !s.v.IsSet(k) {
		return nil, errors.Wrapf(ErrSettingNotFound, "setting %q in section %q", key, section)
	}
	return s.v.Get(k), nil
}

// GetSection вся секция целиком.
func (s *Settings) GetSection(section string) (map[string]any, error) {
	k := strings.ToLower(section)
	if !s.v.IsSet(k) {
		return nil, errors.Wrapf(ErrSettingNotFound, "section %q", section)
	}
	return s.v.GetStringMap(k), nil
}

// IntSetting GetSetting с приведением и дефолтом, если ключа нет.
func IntSetting(p Provider, section, key string, def int) (int, error) {
	v, err := p.GetSetting(section, key)
	if errors.Is(err, ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return 0, err
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, errors.Wrapf(err, "setting %s.%s", section, key)
	}
	return n, nil
}

func StringSetting(p Provider, section, key, def string) (string, error) {
	v, err := p.GetSetting(section, key)
	if errors.Is(err, ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return "", err
	}
	str, err := cast.ToStringE(v)
	if err != nil {
		return "", errors.Wrapf(err, "setting %s.%s", section, key)
	}
	if str == "" {
		return def, nil
	}
	return str, nil
}

func BoolSetting(p Provider, section, key string, def bool) (bool, error) {
	v, err := p.GetSetting(section, key)
	if errors.Is(err, ErrSettingNotFound) {
		return def, nil
	}
	if err != nil {
		return false, err
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false, errors.Wrapf(err, "setting %s.%s", section, key)
	}
	return b, nil
}
