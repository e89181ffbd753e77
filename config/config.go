package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultServer = "irc.chat.twitch.tv"
	DefaultPort   = 6667
)

// Режимы нарезки входящего потока на кадры.
const (
	FramingChunk = "chunk"
	FramingLine  = "line"
)

// Режимы дисплея.
const (
	DisplayTUI   = "tui"
	DisplayPlain = "plain"
)

// Config агрегирует значения конфигурации из переменных окружения.
type Config struct {
	Twitch  TwitchConfig
	Reader  ReaderConfig
	Display DisplayConfig
	Retry   RetryConfig
	Metrics MetricsConfig
}

// TwitchConfig содержит адрес сервера, учётные данные и канал. После Load не меняется.
type TwitchConfig struct {
	Server     string
	Port       int
	OAuthToken string
	Username   string
	Channel    string
}

// Addr возвращает host:port для подключения.
func (t TwitchConfig) Addr() string {
	return net.JoinHostPort(t.Server, strconv.Itoa(t.Port))
}

// ReaderConfig задаёт способ нарезки потока на кадры.
type ReaderConfig struct {
	Framing string
}

// DisplayConfig задаёт режим дисплея и размер очереди событий.
type DisplayConfig struct {
	Mode    string
	Buffer  int
	LogFile string
}

// RetryConfig задаёт политику переподключения. MaxRetries == 0 отключает её.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// MetricsConfig задаёт адрес HTTP-сервера метрик; пустой адрес отключает его.
type MetricsConfig struct {
	Addr string
}

// ConfigError описывает отсутствующее или некорректное значение конфигурации.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("config: требуется %s", e.Key)
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

const envTemplate = `TWITCH_OAUTH_TOKEN=oauth:your_twitch_oauth_token
TWITCH_USERNAME=your_twitch_username
CHANNEL=channel_to_observe
`

// EnsureEnvFile создаёт шаблон .env, если файла нет. created == true означает,
// что файл только что создан и его нужно заполнить перед запуском.
func EnsureEnvFile(path string) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("config: stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(envTemplate), 0o600); err != nil {
		return false, fmt.Errorf("config: create %s: %w", path, err)
	}
	return true, nil
}

// LoadEnvFile подмешивает переменные из .env; уже заданные переменные окружения не перезаписываются.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load читает переменные окружения и возвращает валидированную Config.
func Load() (Config, error) {
	cfg := Config{
		Twitch: TwitchConfig{
			Server:     envOr("TWITCH_SERVER", DefaultServer),
			Port:       DefaultPort,
			OAuthToken: strings.TrimSpace(os.Getenv("TWITCH_OAUTH_TOKEN")),
			Username:   strings.TrimSpace(os.Getenv("TWITCH_USERNAME")),
			Channel:    strings.TrimPrefix(strings.TrimSpace(os.Getenv("CHANNEL")), "#"),
		},
		Reader: ReaderConfig{
			Framing: strings.ToLower(envOr("READER_FRAMING", FramingChunk)),
		},
		Display: DisplayConfig{
			Mode:    strings.ToLower(envOr("DISPLAY_MODE", DisplayTUI)),
			Buffer:  4096,
			LogFile: envOr("LOG_FILE", "chat-viewer.log"),
		},
		Retry: RetryConfig{
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
		},
		Metrics: MetricsConfig{
			Addr: strings.TrimSpace(os.Getenv("METRICS_ADDR")),
		},
	}

	var err error
	if cfg.Twitch.Port, err = intEnv("TWITCH_PORT", cfg.Twitch.Port); err != nil {
		return Config{}, err
	}
	if cfg.Display.Buffer, err = intEnv("DISPLAY_BUFFER", cfg.Display.Buffer); err != nil {
		return Config{}, err
	}
	if cfg.Retry.MaxRetries, err = intEnv("RETRY_MAX", cfg.Retry.MaxRetries); err != nil {
		return Config{}, err
	}
	if cfg.Retry.InitialInterval, err = durationEnv("RETRY_INITIAL_INTERVAL", cfg.Retry.InitialInterval); err != nil {
		return Config{}, err
	}
	if cfg.Retry.MaxInterval, err = durationEnv("RETRY_MAX_INTERVAL", cfg.Retry.MaxInterval); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Twitch.OAuthToken == "" {
		return &ConfigError{Key: "TWITCH_OAUTH_TOKEN"}
	}
	if c.Twitch.Username == "" {
		return &ConfigError{Key: "TWITCH_USERNAME"}
	}
	if c.Twitch.Server == "" {
		return &ConfigError{Key: "TWITCH_SERVER"}
	}
	if c.Twitch.Port <= 0 || c.Twitch.Port > 65535 {
		return &ConfigError{Key: "TWITCH_PORT", Reason: "порт вне диапазона 1..65535"}
	}

	switch c.Reader.Framing {
	case FramingChunk, FramingLine:
	default:
		return &ConfigError{Key: "READER_FRAMING", Reason: fmt.Sprintf("неизвестный режим %q", c.Reader.Framing)}
	}

	switch c.Display.Mode {
	case DisplayTUI, DisplayPlain:
	default:
		return &ConfigError{Key: "DISPLAY_MODE", Reason: fmt.Sprintf("неизвестный режим %q", c.Display.Mode)}
	}
	if c.Display.Buffer <= 0 {
		return &ConfigError{Key: "DISPLAY_BUFFER", Reason: "должен быть больше нуля"}
	}

	if c.Retry.MaxRetries < 0 {
		return &ConfigError{Key: "RETRY_MAX", Reason: "не может быть отрицательным"}
	}
	if c.Retry.InitialInterval <= 0 {
		return &ConfigError{Key: "RETRY_INITIAL_INTERVAL", Reason: "должен быть больше нуля"}
	}
	if c.Retry.MaxInterval < c.Retry.InitialInterval {
		return &ConfigError{Key: "RETRY_MAX_INTERVAL", Reason: "меньше RETRY_INITIAL_INTERVAL"}
	}

	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: fmt.Sprintf("не число: %q", v)}
	}
	return n, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, &ConfigError{Key: key, Reason: fmt.Sprintf("некорректная длительность %q", v)}
	}
	return d, nil
}
