package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	DSN         string            `yaml:"dsn" env:"DATABASE_URL" env-required:"true"`
	HTTP        HTTPConfig        `yaml:"http"`
	Auth        AuthConfig        `yaml:"auth"`
	FileStorage FileStorageConfig `yaml:"file_storage"`
	Gallery     GalleryConfig     `yaml:"gallery"`
	Redis       RedisConf         `yaml:"redis"`
	Admin       AdminConfig       `yaml:"admin"`
	Site        SiteConfig        `yaml:"site"`
	Cache       CacheConfig       `yaml:"cache"`
}

type HTTPConfig struct {
	Host            string        `yaml:"host" env:"HTTP_HOST"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS" env-separator:","`
}

type AuthConfig struct {
	TokenSecret   string        `yaml:"token_secret" env:"AUTH_TOKEN_SECRET" env-required:"true"`
	SessionSecret string        `yaml:"session_secret" env:"AUTH_SESSION_SECRET" env-required:"true"`
	AccessTTL     time.Duration `yaml:"access_ttl" env-default:"15m"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl" env-default:"168h"`
}

type FileStorageConfig struct {
	BaseDir string `yaml:"base_dir" env:"UPLOADS_DIR" env-default:"./uploads"`
	BaseURL string `yaml:"base_url" env:"UPLOADS_URL" env-default:"/uploads"`
	MaxSize int64  `yaml:"max_size" env-default:"5242880"`
}

type GalleryConfig struct {
	ThumbWidth  uint `yaml:"thumb_width" env-default:"900"`
	JPEGQuality int  `yaml:"jpeg_quality" env-default:"85"`
	Workers     int  `yaml:"workers" env-default:"4"`
	MaxPixels   int  `yaml:"max_pixels" env-default:"268402689"`
}

type RedisConf struct {
	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

// AdminConfig seeds the admin account on startup when Email is set.
type AdminConfig struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`
}

type SiteConfig struct {
	Name            string `yaml:"name" env:"SITE_DEFAULT_NAME" env-default:"ZOZOTECH"`
	Currency        string `yaml:"currency" env:"SITE_DEFAULT_CURRENCY" env-default:"Rp"`
	WhatsappMessage string `yaml:"whatsapp_message" env-default:"Halo, saya tertarik dengan produk Anda"`
	NavbarLogoURL   string `yaml:"navbar_logo_url" env-default:"/logo-zozotech.svg"`
}

type CacheConfig struct {
	TTL     time.Duration `yaml:"ttl" env-default:"5m"`
	Cleanup time.Duration `yaml:"cleanup" env-default:"10m"`
}

func MustLoad() *Config {
	path := fetchConfigPath()
	if path == "" {
		panic("config path is empty")
	}

	return MustLoadPath(path)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func LoadPath(configPath string) (*Config, error) {
	// check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &os.PathError{Op: "config", Path: configPath, Err: os.ErrNotExist}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	// --config="path/to/config.yaml"
	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}
