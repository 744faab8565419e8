package config

import (
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/saveblush/gallery-node/core/utils/logger"
)

var (
	CF = &Configs{}
)

var (
	filePath       = "./configs"
	fileExtension  = "yml"
	fileNameConfig = "config"
)

// Environment environment
type Environment string

const (
	Develop    Environment = "develop"
	Production Environment = "prod"
)

// Production check is production
func (e Environment) Production() bool {
	return e == Production
}

type DatabaseConfig struct {
	Host         string        `mapstructure:"HOST"`
	Port         int           `mapstructure:"PORT"`
	Username     string        `mapstructure:"USERNAME"`
	Password     string        `mapstructure:"PASSWORD"`
	DatabaseName string        `mapstructure:"DATABASE_NAME"`
	MaxIdleConns int           `mapstructure:"MAX_IDLE_CONNS"`
	MaxOpenConns int           `mapstructure:"MAX_OPEN_CONNS"`
	MaxLifetime  time.Duration `mapstructure:"MAX_LIFE_TIME"`
}

type BooruConfig struct {
	BaseURL         string        `mapstructure:"BASE_URL"`
	Login           string        `mapstructure:"LOGIN"`
	APIKey          string        `mapstructure:"API_KEY"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	PageSize        int           `mapstructure:"PAGE_SIZE"`
	RatePerSecond   float64       `mapstructure:"RATE_PER_SECOND"`
	RateBurst       int           `mapstructure:"RATE_BURST"`
	DefaultRating   string        `mapstructure:"DEFAULT_RATING"`
	AllowedFileExts []string      `mapstructure:"ALLOWED_FILE_EXTS"`
	MaxQueryTags    int           `mapstructure:"MAX_QUERY_TAGS"`
}

type EnrichConfig struct {
	TooltipEnabled     bool   `mapstructure:"TOOLTIP_ENABLED"`
	TranslationEnabled bool   `mapstructure:"TRANSLATION_ENABLED"`
	Language           string `mapstructure:"LANGUAGE"`
	AutocompleteLimit  int    `mapstructure:"AUTOCOMPLETE_LIMIT"`
}

type Configs struct {
	App struct {
		Name        string      `mapstructure:"NAME"`
		Version     string      `mapstructure:"VERSION"`
		Port        int         `mapstructure:"PORT"`
		Environment Environment `mapstructure:"ENVIRONMENT"`
	} `mapstructure:"APP"`

	Booru BooruConfig `mapstructure:"BOORU"`

	Enrich EnrichConfig `mapstructure:"ENRICH"`

	Database struct {
		GallerySQL DatabaseConfig `mapstructure:"GALLERY_SQL"`
	} `mapstructure:"DATABASE"`
}

// InitConfig init config
func InitConfig() error {
	v := viper.New()
	v.AddConfigPath(filePath)
	v.SetConfigName(fileNameConfig)
	v.SetConfigType(fileExtension)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		logger.Log.Errorf("read config file error: %s", err)
		return err
	}

	if err := v.Unmarshal(CF); err != nil {
		logger.Log.Errorf("binding config error: %s", err)
		return err
	}
	setDefaults()

	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Log.Infof("config file changed: %s", e.Name)
		if err := v.Unmarshal(CF); err != nil {
			logger.Log.Errorf("binding config error: %s", err)
		}
		setDefaults()
	})
	v.WatchConfig()

	return nil
}

func setDefaults() {
	if CF.Booru.PageSize <= 0 {
		CF.Booru.PageSize = 20
	}
	if CF.Booru.RequestTimeout <= 0 {
		CF.Booru.RequestTimeout = 15 * time.Second
	}
	if CF.Booru.RatePerSecond <= 0 {
		CF.Booru.RatePerSecond = 2
	}
	if CF.Booru.RateBurst <= 0 {
		CF.Booru.RateBurst = 4
	}
	if CF.Booru.MaxQueryTags <= 0 {
		CF.Booru.MaxQueryTags = 2
	}
	if len(CF.Booru.AllowedFileExts) == 0 {
		CF.Booru.AllowedFileExts = []string{"jpg", "jpeg", "png", "gif", "webp"}
	}
	if CF.Booru.DefaultRating == "" {
		CF.Booru.DefaultRating = "safe"
	}
	if CF.Enrich.AutocompleteLimit <= 0 {
		CF.Enrich.AutocompleteLimit = 10
	}
	if CF.Enrich.Language == "" {
		CF.Enrich.Language = "en"
	}
}
