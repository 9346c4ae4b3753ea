package config

import "os"

// ArchiveConfig points at the S3-compatible bucket (Cloudflare R2 in
// production) that keeps a copy of every payment screenshot
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// Ready reports whether the archive has enough settings to upload
func (a ArchiveConfig) Ready() bool {
	return a.Enabled && a.Bucket != "" && a.AccessKey != "" && a.SecretKey != ""
}

func (c *Config) applyArchiveOverrides() {
	if endpoint := os.Getenv("R2_ENDPOINT"); endpoint != "" {
		c.Archive.Endpoint = endpoint
	}
	if bucket := os.Getenv("R2_BUCKET"); bucket != "" {
		c.Archive.Bucket = bucket
	}
	if key := os.Getenv("R2_ACCESS_KEY"); key != "" {
		c.Archive.AccessKey = key
	}
	if secret := os.Getenv("R2_SECRET_KEY"); secret != "" {
		c.Archive.SecretKey = secret
	}
	if c.Archive.Region == "" {
		c.Archive.Region = "auto"
	}
}
