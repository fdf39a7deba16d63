// Package config resolves application settings from viper.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Veraticus/bounce-back/internal/common"
	"github.com/Veraticus/bounce-back/internal/export"
	"github.com/Veraticus/bounce-back/internal/sheets"
	"github.com/Veraticus/bounce-back/internal/summary"
	"github.com/spf13/viper"
)

// Configuration keys.
const (
	KeyAPIURL         = "api.url"
	KeyAPITimeout     = "api.timeout"
	KeyPreviewQuoted  = "preview.quoted"
	KeySummaryPolicy  = "summary.policy"
	KeyExportDir      = "export.dir"
	KeyS3Bucket       = "export.s3.bucket"
	KeyS3Region       = "export.s3.region"
	KeyS3Prefix       = "export.s3.prefix"
	KeyS3Endpoint     = "export.s3.endpoint"
	KeySheetsPrefix   = "export.sheets."
	KeyLogLevel       = "logging.level"
	KeyLogFormat      = "logging.format"
	DefaultAPIURL     = "http://localhost:8000/predict"
	DefaultAPITimeout = 60 * time.Second
)

// Config is the resolved application configuration.
type Config struct {
	APIURL        string
	ExportDir     string
	LogLevel      string
	LogFormat     string
	S3            export.S3Config
	Sheets        sheets.Config
	APITimeout    time.Duration
	Policy        summary.Policy
	QuotedPreview bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyAPITimeout, DefaultAPITimeout)
	v.SetDefault(KeyPreviewQuoted, false)
	v.SetDefault(KeySummaryPolicy, summary.PolicyScore.String())
	v.SetDefault(KeyExportDir, ".")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIURL:        v.GetString(KeyAPIURL),
		APITimeout:    v.GetDuration(KeyAPITimeout),
		QuotedPreview: v.GetBool(KeyPreviewQuoted),
		ExportDir:     ExpandPath(v.GetString(KeyExportDir)),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		S3: export.S3Config{
			Bucket:   v.GetString(KeyS3Bucket),
			Region:   v.GetString(KeyS3Region),
			Prefix:   v.GetString(KeyS3Prefix),
			Endpoint: v.GetString(KeyS3Endpoint),
		},
		Sheets: loadSheets(v),
	}

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: %s is required", common.ErrMissingConfig, KeyAPIURL)
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s must be an http(s) URL, got %q", common.ErrInvalidConfig, KeyAPIURL, cfg.APIURL)
	}

	if cfg.APITimeout < 0 {
		return nil, fmt.Errorf("%w: %s cannot be negative", common.ErrInvalidConfig, KeyAPITimeout)
	}

	cfg.Policy, err = summary.ParsePolicy(v.GetString(KeySummaryPolicy))
	if err != nil {
		return nil, err
	}

	if _, err := common.ParseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadSheets(v *viper.Viper) sheets.Config {
	cfg := sheets.DefaultConfig()
	cfg.ServiceAccountPath = ExpandPath(v.GetString(KeySheetsPrefix + "service_account_path"))
	cfg.ClientID = v.GetString(KeySheetsPrefix + "client_id")
	cfg.ClientSecret = v.GetString(KeySheetsPrefix + "client_secret")
	cfg.RefreshToken = v.GetString(KeySheetsPrefix + "refresh_token")
	cfg.SpreadsheetID = v.GetString(KeySheetsPrefix + "spreadsheet_id")
	if name := v.GetString(KeySheetsPrefix + "spreadsheet_name"); name != "" {
		cfg.SpreadsheetName = name
	}
	return cfg
}
