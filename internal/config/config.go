package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"prod"`
	HTTPServer `yaml:"http_server"`
	DBUser     string `yaml:"db_user" env:"DB_USER" env-required:"true"`
	DBPassword string `yaml:"db_password" env:"DB_PASSWORD"`
	DBHost     string `yaml:"db_host" env:"DB_HOST" env-default:"localhost"`
	DBPort     int    `yaml:"db_port" env:"DB_PORT" env-default:"3306"`
	DBName     string `yaml:"db_name" env:"DB_NAME" env-required:"true"`
	ParseTime  bool   `yaml:"parse_time" env-default:"true"`

	AdminLogin string `yaml:"admin_login" env:"ADMIN_LOGIN"`
	AdminPass  string `yaml:"admin_pass" env:"ADMIN_PASS"`

	ErrorLogPath   string   `yaml:"error_log_path" env-default:"errors.log"`
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"http://localhost:5173"`
	// собранный фронтенд редактора, если каталога нет — отдаётся только API
	FrontendDir string `yaml:"frontend_dir" env-default:"./frontend-dist"`

	Assets     Assets                  `yaml:"assets"`
	Export     Export                  `yaml:"export"`
	Style      Style                   `yaml:"style"`
	Editor     Editor                  `yaml:"editor"`
	Categories map[string]CategorySpec `yaml:"categories"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:4001"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
	// экспорт lanyard 6000px может идти дольше обычного запроса
	ExportTimeout time.Duration `yaml:"export_timeout" env-default:"60s"`
}

// Assets описывает загрузку картинок через прокси.
type Assets struct {
	ProxyBaseURL string        `yaml:"proxy_base_url" env:"ASSETS_PROXY_BASE_URL" env-default:"http://localhost:4001"`
	Origin       string        `yaml:"origin" env:"ASSETS_ORIGIN" env-default:"http://localhost:4001"`
	Timeout      time.Duration `yaml:"timeout" env-default:"15s"`
	MaxBytes     int64         `yaml:"max_bytes" env-default:"26214400"`
	Concurrency  int           `yaml:"concurrency" env-default:"4"`
}

type Export struct {
	Format      string `yaml:"format" env-default:"png"`
	JPEGQuality int    `yaml:"jpeg_quality" env-default:"95"`
}

type Style struct {
	Font     string `yaml:"font" env-default:"Go"`
	Color    string `yaml:"color" env-default:"#000000"`
	FontsDir string `yaml:"fonts_dir"`
}

// CategorySpec переопределяет размеры категории (см. layout.CategorySpec).
type CategorySpec struct {
	PreviewWidth    float64 `yaml:"preview_width"`
	PreviewHeight   float64 `yaml:"preview_height"`
	ExportWidth     int     `yaml:"export_width"`
	ExportHeight    int     `yaml:"export_height"`
	DefaultFontSize float64 `yaml:"default_font_size"`
	DefaultLogoGap  float64 `yaml:"default_logo_gap"`
}

func MustConfig() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/local.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}

	return &cfg
}

type Editor struct {
	// сессия без обращений дольше этого закрывается, 0 отключает
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" env-default:"2h"`
}
