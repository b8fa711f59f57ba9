package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-ini/ini"
	"gopkg.in/yaml.v3"
)

// AppConfig — корневая структура конфигурации.
// Она зеркалит структуру config.yaml (или секции config.ini).
type AppConfig struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	API         PAAPIConfig       `yaml:"api"`
	Output      OutputConfig      `yaml:"output"`
	S3          S3Config          `yaml:"s3"`
	History     HistoryConfig     `yaml:"history"`
	App         AppSpecific       `yaml:"app"`
}

// CredentialsConfig — ключи Product Advertising API.
type CredentialsConfig struct {
	AccessKeyID  string `yaml:"access_key_id" ini:"access_key_id"` // Поддерживает ${VAR}
	SecretKey    string `yaml:"secret_key" ini:"secret_key"`       // Поддерживает ${VAR}
	AssociateTag string `yaml:"associate_tag" ini:"associate_tag"`
}

// PAAPIConfig — настройки endpoint'а и запроса ItemSearch.
type PAAPIConfig struct {
	Locale         string   `yaml:"locale" ini:"locale"`                   // jp, us, uk, de ...
	Host           string   `yaml:"host" ini:"host"`                       // Переопределяет хост локали
	Path           string   `yaml:"path" ini:"path"`                       // Обычно /onca/xml
	Timeout        string   `yaml:"timeout" ini:"timeout"`                 // Например "30s"
	ResponseGroups []string `yaml:"response_groups" ini:"response_groups"` // Images, ItemIds, Medium
}

// GetDefaults возвращает дефолтные значения для незаполненных полей.
func (c *PAAPIConfig) GetDefaults() PAAPIConfig {
	result := *c // Копируем текущие значения

	if result.Locale == "" {
		result.Locale = DefaultLocale
	}
	if result.Path == "" {
		result.Path = "/onca/xml"
	}
	if result.Timeout == "" {
		result.Timeout = "30s"
	}
	if len(result.ResponseGroups) == 0 {
		result.ResponseGroups = []string{"Images", "ItemIds", "Medium"}
	}

	return result
}

// DefaultLocale — маркетплейс по умолчанию (webservices.amazon.co.jp).
const DefaultLocale = "jp"

// OutputConfig — формат вывода результатов.
type OutputConfig struct {
	Format  string `yaml:"format" ini:"format"`     // "json" (по умолчанию) или "table"
	Indent  bool   `yaml:"indent" ini:"indent"`     // Форматированный JSON
	Width   int    `yaml:"width" ini:"width"`       // Ширина колонки заголовка в таблице
	NoColor bool   `yaml:"no_color" ini:"no_color"` // Отключить цвета в таблице
}

// S3Config — настройки объектного хранилища для экспорта результатов.
type S3Config struct {
	Enabled   bool   `yaml:"enabled" ini:"enabled"`
	Endpoint  string `yaml:"endpoint" ini:"endpoint"`
	Region    string `yaml:"region" ini:"region"`
	Bucket    string `yaml:"bucket" ini:"bucket"`
	AccessKey string `yaml:"access_key" ini:"access_key"` // Поддерживает ${VAR}
	SecretKey string `yaml:"secret_key" ini:"secret_key"` // Поддерживает ${VAR}
	UseSSL    bool   `yaml:"use_ssl" ini:"use_ssl"`
	Prefix    string `yaml:"prefix" ini:"prefix"` // Префикс ключей, например "paapi/results"
}

// HistoryConfig — журнал выполненных поисков (SQLite).
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" ini:"enabled"`
	Path    string `yaml:"path" ini:"path"`
}

// AppSpecific — общие настройки приложения.
type AppSpecific struct {
	Debug   bool   `yaml:"debug" ini:"debug"`
	LogsDir string `yaml:"logs_dir" ini:"logs_dir"`
}

// Load читает YAML или INI файл, подставляет ENV переменные и возвращает готовую структуру.
//
// Формат определяется по расширению: .ini читается как config.ini с секцией [credentials],
// всё остальное — как YAML.
func Load(path string) (*AppConfig, error) {
	// 1. Проверяем существование файла
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found at: %s", path)
	}

	// 2. Читаем файл целиком
	rawBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Подставляем переменные окружения (${VAR} или $VAR)
	contentWithEnv := []byte(os.ExpandEnv(string(rawBytes)))

	// 4. Парсим
	var cfg *AppConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ini":
		cfg, err = parseINI(contentWithEnv)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ini: %w", err)
		}
	default:
		cfg = &AppConfig{}
		if err := yaml.Unmarshal(contentWithEnv, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	if cfg.History.Enabled && cfg.History.Path == "" {
		cfg.History.Path = "paapi-history.db"
	}

	// 5. Валидируем критические настройки
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// parseINI разбирает config.ini: [credentials] обязательна,
// [api], [output], [s3], [history] и [app] опциональны.
func parseINI(data []byte) (*AppConfig, error) {
	file, err := ini.LoadSources(ini.LoadOptions{AllowShadows: false}, data)
	if err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := file.Section("credentials").MapTo(&cfg.Credentials); err != nil {
		return nil, fmt.Errorf("section [credentials]: %w", err)
	}
	if file.HasSection("api") {
		api := file.Section("api")
		cfg.API.Locale = api.Key("locale").String()
		cfg.API.Host = api.Key("host").String()
		cfg.API.Path = api.Key("path").String()
		cfg.API.Timeout = api.Key("timeout").String()
		if groups := api.Key("response_groups").Strings(","); len(groups) > 0 {
			cfg.API.ResponseGroups = groups
		}
	}

	sections := []struct {
		name   string
		target any
	}{
		{"output", &cfg.Output},
		{"s3", &cfg.S3},
		{"history", &cfg.History},
		{"app", &cfg.App},
	}
	for _, sec := range sections {
		if !file.HasSection(sec.name) {
			continue
		}
		if err := file.Section(sec.name).MapTo(sec.target); err != nil {
			return nil, fmt.Errorf("section [%s]: %w", sec.name, err)
		}
	}

	return &cfg, nil
}

// validate проверяет обязательные поля.
//
// Пустой secret_key — ошибка конфигурации, а не подпись пустым ключом.
func (c *AppConfig) validate() error {
	if c.Credentials.AccessKeyID == "" {
		return fmt.Errorf("credentials.access_key_id is required")
	}
	if c.Credentials.SecretKey == "" {
		return fmt.Errorf("credentials.secret_key is required")
	}
	if c.Credentials.AssociateTag == "" {
		return fmt.Errorf("credentials.associate_tag is required")
	}

	api := c.API.GetDefaults()
	if _, err := time.ParseDuration(api.Timeout); err != nil {
		return fmt.Errorf("invalid api.timeout format: %w", err)
	}
	if api.Host == "" {
		if _, ok := Locales[strings.ToLower(api.Locale)]; !ok {
			return fmt.Errorf("unknown api.locale '%s'", api.Locale)
		}
	}

	switch c.Output.Format {
	case "", "json", "table":
	default:
		return fmt.Errorf("output.format must be json or table, got '%s'", c.Output.Format)
	}

	if c.S3.Enabled {
		if c.S3.Endpoint == "" {
			return fmt.Errorf("s3.endpoint is required when s3.enabled")
		}
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3.bucket is required when s3.enabled")
		}
	}

	return nil
}

// Locales — хосты Product Advertising API по маркетплейсам.
var Locales = map[string]string{
	"br": "webservices.amazon.com.br",
	"ca": "webservices.amazon.ca",
	"cn": "webservices.amazon.cn",
	"de": "webservices.amazon.de",
	"es": "webservices.amazon.es",
	"fr": "webservices.amazon.fr",
	"in": "webservices.amazon.in",
	"it": "webservices.amazon.it",
	"jp": "webservices.amazon.co.jp",
	"mx": "webservices.amazon.com.mx",
	"uk": "webservices.amazon.co.uk",
	"us": "webservices.amazon.com",
}

// HostForLocale возвращает хост API для локали (регистр не важен).
func HostForLocale(locale string) (string, bool) {
	host, ok := Locales[strings.ToLower(locale)]
	return host, ok
}

// ResolveHost возвращает явный host или хост локали.
func (c *PAAPIConfig) ResolveHost() (string, error) {
	if c.Host != "" {
		return c.Host, nil
	}
	host, ok := HostForLocale(c.Locale)
	if !ok {
		return "", fmt.Errorf("unknown locale '%s'", c.Locale)
	}
	return host, nil
}
