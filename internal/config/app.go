package config

import (
	"context"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr            string        `mapstructure:"addr" env:"SERVER_ADDR,default=:8000"`
		ReadTimeout     time.Duration `mapstructure:"read_timeout" env:"SERVER_READ_TIMEOUT,default=30s"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT,default=15s"`
	} `mapstructure:"server"`
	Download struct {
		TempDir           string        `mapstructure:"temp_dir" env:"DOWNLOAD_TEMP_DIR"`
		MaxFileSize       string        `mapstructure:"max_file_size" env:"DOWNLOAD_MAX_FILE_SIZE,default=2GiB"`
		ConcurrentWorkers int           `mapstructure:"concurrent_workers" env:"DOWNLOAD_CONCURRENT_WORKERS,default=3"`
		JobTimeout        time.Duration `mapstructure:"job_timeout" env:"DOWNLOAD_JOB_TIMEOUT,default=1h"`
		MetadataRetries   uint          `mapstructure:"metadata_retries" env:"DOWNLOAD_METADATA_RETRIES,default=2"`
		YtDlpPath         string        `mapstructure:"ytdlp_path" env:"DOWNLOAD_YTDLP_PATH,default=yt-dlp"`
		FFmpegPath        string        `mapstructure:"ffmpeg_path" env:"DOWNLOAD_FFMPEG_PATH,default=ffmpeg"`
	} `mapstructure:"download"`
}

func NewConfig(ctx context.Context, configPath string) (*Config, error) {
	var conf Config
	if len(configPath) == 0 {
		if err := envconfig.Process(ctx, &conf); err != nil {
			return nil, errors.Wrap(err, "failed to process config environment variables")
		}
		return normalize(&conf)
	}

	f, err := os.Open(configPath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open config file '%s'", configPath)
	}
	defer f.Close()

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(f); err != nil {
		return nil, errors.Wrap(err, "failed to read config yaml file")
	}
	if err := v.Unmarshal(&conf); err != nil {
		return nil, errors.Wrap(err, "failed to decode config yaml file")
	}

	return normalize(&conf)
}

func normalize(conf *Config) (*Config, error) {
	if conf.Server.Addr == "" {
		conf.Server.Addr = ":8000"
	}
	if conf.Download.TempDir == "" {
		conf.Download.TempDir = os.TempDir()
	}
	if conf.Download.MaxFileSize == "" {
		conf.Download.MaxFileSize = "2GiB"
	}
	if conf.Download.ConcurrentWorkers == 0 {
		conf.Download.ConcurrentWorkers = 3
	}
	if conf.Download.ConcurrentWorkers < 1 || conf.Download.ConcurrentWorkers > 10 {
		return nil, errors.Errorf("concurrent_workers must be in range between 1 and 10, got %d", conf.Download.ConcurrentWorkers)
	}
	if conf.Download.JobTimeout <= 0 {
		conf.Download.JobTimeout = time.Hour
	}
	// retry.Attempts(0) would mean retry forever
	if conf.Download.MetadataRetries == 0 {
		conf.Download.MetadataRetries = 2
	}
	if conf.Download.YtDlpPath == "" {
		conf.Download.YtDlpPath = "yt-dlp"
	}
	if conf.Download.FFmpegPath == "" {
		conf.Download.FFmpegPath = "ffmpeg"
	}
	if _, err := conf.MaxFileSizeBytes(); err != nil {
		return nil, err
	}

	return conf, nil
}

// MaxFileSizeBytes parses the human-readable size limit ("2GiB", "500MB").
func (c *Config) MaxFileSizeBytes() (int64, error) {
	size, err := humanize.ParseBytes(c.Download.MaxFileSize)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid max_file_size '%s'", c.Download.MaxFileSize)
	}
	return int64(size), nil
}
