package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Camera    CameraConfig
	Detection DetectionConfig
	OCR       OCRConfig
	Tracking  TrackingConfig
	Database  DatabaseConfig
	HTTP      HTTPConfig
	Auth      AuthConfig
}

type CameraConfig struct {
	// URL is a device index ("0") or an RTSP/file URL.
	URL   string
	Model string
}

type DetectionConfig struct {
	AspectRatioMin      float64
	AspectRatioMax      float64
	WidthMin            int
	WidthMaxRatio       float64
	HeightMin           int
	HeightMaxRatio      float64
	AreaMin             int
	AreaMax             int
	TopContours         int
	MaxPerFrame         int
	BlurThreshold       float64
	StabilizationTime   time.Duration
	StabilizationFrames int
	EvictEvery          int
	StaleAfter          time.Duration
}

type OCRConfig struct {
	Language            string
	ConfidenceThreshold float64
	AutoZoom            bool
	ZoomScale           float64
	ZoomTopFraction     float64
}

type TrackingConfig struct {
	Cooldown time.Duration
}

type DatabaseConfig struct {
	DSN string
}

type HTTPConfig struct {
	Addr           string
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret string
}

// Load reads gatewatch.yaml from the working directory or /etc/gatewatch,
// with GATEWATCH_* environment overrides. Missing file is fine; defaults
// mirror the reference tuning.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("gatewatch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/gatewatch")
	v.SetEnvPrefix("gatewatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("camera.url", "0")
	v.SetDefault("camera.model", "")

	v.SetDefault("detection.aspectratiomin", 2.0)
	v.SetDefault("detection.aspectratiomax", 6.0)
	v.SetDefault("detection.widthmin", 100)
	v.SetDefault("detection.widthmaxratio", 0.85)
	v.SetDefault("detection.heightmin", 35)
	v.SetDefault("detection.heightmaxratio", 0.5)
	v.SetDefault("detection.areamin", 3000)
	v.SetDefault("detection.areamax", 60000)
	v.SetDefault("detection.topcontours", 10)
	v.SetDefault("detection.maxperframe", 3)
	v.SetDefault("detection.blurthreshold", 50.0)
	v.SetDefault("detection.stabilizationtime", 150*time.Millisecond)
	v.SetDefault("detection.stabilizationframes", 2)
	v.SetDefault("detection.evictevery", 30)
	v.SetDefault("detection.staleafter", 5*time.Second)

	v.SetDefault("ocr.language", "eng")
	v.SetDefault("ocr.confidencethreshold", 0.35)
	v.SetDefault("ocr.autozoom", true)
	v.SetDefault("ocr.zoomscale", 2.0)
	v.SetDefault("ocr.zoomtopfraction", 0.35)

	v.SetDefault("tracking.cooldown", 10*time.Second)

	v.SetDefault("database.dsn", "host=localhost user=gatewatch password=gatewatch dbname=gatewatch port=5432 sslmode=disable")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.allowedorigins", []string{"*"})

	v.SetDefault("auth.jwtsecret", "")
}
