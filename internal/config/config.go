package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port        string `mapstructure:"port"`
		MetricsPort string `mapstructure:"metrics_port"`
		TempDir     string `mapstructure:"temp_dir"`
		LogLevel    string `mapstructure:"log_level"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Storage struct {
		Provider     string `mapstructure:"provider"` // "s3" or "local"
		KeyID        string `mapstructure:"key_id"`
		AppKey       string `mapstructure:"app_key"`
		Endpoint     string `mapstructure:"endpoint"`
		Region       string `mapstructure:"region"`
		BucketIngest string `mapstructure:"bucket_ingest"`
		BucketMedia  string `mapstructure:"bucket_media"`
		LocalRoot    string `mapstructure:"local_root"`
		LimitBytes   int64  `mapstructure:"limit_bytes"`
	} `mapstructure:"storage"`
	Auth struct {
		JWTSecret         string `mapstructure:"jwt_secret"`
		AccessTTLMinutes  int    `mapstructure:"access_ttl_minutes"`
		RefreshTTLDays    int    `mapstructure:"refresh_ttl_days"`
		RememberMeTTLDays int    `mapstructure:"remember_me_ttl_days"`
	} `mapstructure:"auth"`
	Fingerprint struct {
		FpcalcPath          string  `mapstructure:"fpcalc_path"`
		SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
		DurationTolerance   int     `mapstructure:"duration_tolerance_seconds"`
		TimeoutSeconds      int     `mapstructure:"timeout_seconds"`
		SkipDuplicateCheck  bool    `mapstructure:"skip_duplicate_check"`
	} `mapstructure:"fingerprint"`
	YouTube struct {
		YtdlpPath              string `mapstructure:"ytdlp_path"`
		DownloadTimeoutSeconds int    `mapstructure:"download_timeout_seconds"`
	} `mapstructure:"youtube"`
	HLS struct {
		FFmpegPath  string `mapstructure:"ffmpeg_path"`
		FFprobePath string `mapstructure:"ffprobe_path"`
		SegmentTime string `mapstructure:"segment_time"`
		AudioCodec  string `mapstructure:"audio_codec"`
		Bitrate     string `mapstructure:"bitrate"`
	} `mapstructure:"hls"`
	Ingester struct {
		PollingInterval int `mapstructure:"polling_interval_seconds"`
	} `mapstructure:"ingester"`
}

func Load() *Config {
	viper.SetEnvPrefix("MUSIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Register keys
	viper.BindEnv("server.port")
	viper.BindEnv("server.metrics_port")
	viper.BindEnv("server.temp_dir")
	viper.BindEnv("server.log_level")

	viper.BindEnv("database.host")
	viper.BindEnv("database.port")
	viper.BindEnv("database.user")
	viper.BindEnv("database.password")
	viper.BindEnv("database.name")

	viper.BindEnv("storage.provider")
	viper.BindEnv("storage.key_id")
	viper.BindEnv("storage.app_key")
	viper.BindEnv("storage.endpoint")
	viper.BindEnv("storage.region")
	viper.BindEnv("storage.bucket_ingest")
	viper.BindEnv("storage.bucket_media")
	viper.BindEnv("storage.local_root")
	viper.BindEnv("storage.limit_bytes")

	viper.BindEnv("auth.jwt_secret")
	viper.BindEnv("auth.access_ttl_minutes")
	viper.BindEnv("auth.refresh_ttl_days")
	viper.BindEnv("auth.remember_me_ttl_days")

	viper.BindEnv("fingerprint.fpcalc_path")
	viper.BindEnv("fingerprint.similarity_threshold")
	viper.BindEnv("fingerprint.duration_tolerance_seconds")
	viper.BindEnv("fingerprint.timeout_seconds")
	viper.BindEnv("fingerprint.skip_duplicate_check")

	viper.BindEnv("youtube.ytdlp_path")
	viper.BindEnv("youtube.download_timeout_seconds")

	viper.BindEnv("hls.ffmpeg_path")
	viper.BindEnv("hls.ffprobe_path")
	viper.BindEnv("hls.segment_time")
	viper.BindEnv("hls.audio_codec")
	viper.BindEnv("hls.bitrate")

	viper.BindEnv("ingester.polling_interval_seconds")

	// Defaults
	viper.SetDefault("server.port", ":8080")
	viper.SetDefault("server.metrics_port", ":9091")
	viper.SetDefault("server.temp_dir", "/tmp/music-processing")
	viper.SetDefault("server.log_level", "error")

	viper.SetDefault("storage.provider", "local")
	viper.SetDefault("storage.local_root", "./data")
	viper.SetDefault("storage.bucket_ingest", "music-ingest")
	viper.SetDefault("storage.bucket_media", "music-media")
	viper.SetDefault("storage.limit_bytes", int64(10)*1024*1024*1024)

	viper.SetDefault("auth.access_ttl_minutes", 15)
	viper.SetDefault("auth.refresh_ttl_days", 7)
	viper.SetDefault("auth.remember_me_ttl_days", 30)

	viper.SetDefault("fingerprint.fpcalc_path", "fpcalc")
	viper.SetDefault("fingerprint.similarity_threshold", 0.85)
	viper.SetDefault("fingerprint.duration_tolerance_seconds", 5)
	viper.SetDefault("fingerprint.timeout_seconds", 30)
	viper.SetDefault("fingerprint.skip_duplicate_check", false)

	viper.SetDefault("youtube.ytdlp_path", "yt-dlp")
	viper.SetDefault("youtube.download_timeout_seconds", 180)

	viper.SetDefault("hls.ffmpeg_path", "ffmpeg")
	viper.SetDefault("hls.ffprobe_path", "ffprobe")
	viper.SetDefault("hls.segment_time", "10")
	viper.SetDefault("hls.audio_codec", "aac")
	viper.SetDefault("hls.bitrate", "128k")

	viper.SetDefault("ingester.polling_interval_seconds", 10)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Config error: %s", err)
		} else {
			log.Println("Info: config.yaml not found, using Environment Variables only.")
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("Critical: JWT secret is missing (MUSIC_AUTH_JWT_SECRET)")
	}

	return &cfg
}
