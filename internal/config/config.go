package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultScryptWorkFactor is the age scrypt work factor used for backups
// when none is configured.
const DefaultScryptWorkFactor = 18

// Config represents the main configuration for onepass.
type Config struct {
	DataDir    string           `toml:"data_dir"`
	LogDir     string           `toml:"log_dir"`
	LogStderr  bool             `toml:"log_stderr"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
	Backup     BackupConfig     `toml:"backup"`
}

// DatabaseConfig selects where the vault is stored.
type DatabaseConfig struct {
	Type string `toml:"type"`           // "sqlite" (default) or "memory"
	Path string `toml:"path,omitempty"` // sqlite only; defaults to <data_dir>/data.db
}

// EncryptionConfig selects how backups are encrypted.
type EncryptionConfig struct {
	Type       string `toml:"type"`                  // "age" (default) or "test"
	WorkFactor int    `toml:"work_factor,omitempty"` // age scrypt log2 work factor
}

// BackupConfig represents configuration for the encrypted backup store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BackupConfig struct {
	Type string `toml:"type"` // "memory", "filesystem" or "s3"
	Name string `toml:"name"`

	// Filesystem-specific fields
	FSRoot string `toml:"fs_root,omitempty"`

	// S3-specific fields. Endpoint and static keys are optional; without
	// them the default AWS credential chain is used.
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"`
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`
}

// NewConfig creates a Config rooted at dataDir with default settings.
func NewConfig(dataDir string) *Config {
	cfg := &Config{DataDir: dataDir}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every empty field that has a default derived from DataDir.
func (c *Config) ApplyDefaults() {
	if c.LogDir == "" && c.DataDir != "" {
		c.LogDir = filepath.Join(c.DataDir, "log")
	}
	if c.Database.Type == "" {
		c.Database.Type = "sqlite"
	}
	if c.Encryption.Type == "" {
		c.Encryption.Type = "age"
	}
	if c.Encryption.WorkFactor == 0 {
		c.Encryption.WorkFactor = DefaultScryptWorkFactor
	}
	if c.Backup.Type == "" {
		c.Backup.Type = "filesystem"
	}
	if c.Backup.Name == "" {
		c.Backup.Name = "local"
	}
	if c.Backup.Type == "filesystem" && c.Backup.FSRoot == "" && c.DataDir != "" {
		c.Backup.FSRoot = filepath.Join(c.DataDir, "backups")
	}
}

// DatabasePath returns the SQLite file location.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.DataDir, "data.db")
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite":
		if c.Database.Path == "" && c.DataDir == "" {
			return fmt.Errorf("data_dir or database.path required for sqlite database")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown database type: %s", c.Database.Type)
	}

	switch c.Encryption.Type {
	case "age", "test":
	default:
		return fmt.Errorf("unknown encryption type: %s", c.Encryption.Type)
	}
	if c.Encryption.WorkFactor < 0 || c.Encryption.WorkFactor > 30 {
		return fmt.Errorf("encryption.work_factor %d out of range", c.Encryption.WorkFactor)
	}

	switch c.Backup.Type {
	case "memory":
	case "filesystem":
		if c.Backup.FSRoot == "" {
			return fmt.Errorf("backup.fs_root required for filesystem backups")
		}
	case "s3":
		if c.Backup.S3Bucket == "" {
			return fmt.Errorf("backup.s3_bucket required for s3 backups")
		}
		if (c.Backup.S3AccessKey == "") != (c.Backup.S3SecretKey == "") {
			return fmt.Errorf("backup.s3_access_key and backup.s3_secret_key must be set together")
		}
	default:
		return fmt.Errorf("unknown backup type: %s", c.Backup.Type)
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the config at path and fills defaults relative to dataDir.
// A missing file is not an error: the defaults are returned.
// A data_dir set in the file takes precedence over dataDir.
func Load(path, dataDir string) (*Config, error) {
	cfg, err := ReadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewConfig(dataDir), nil
	}
	if err != nil {
		return nil, err
	}
	if cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may carry S3 credentials.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to a new config file at path. It refuses to overwrite.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
