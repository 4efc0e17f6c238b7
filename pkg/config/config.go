package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ekaya-inc/ekaya-bim/pkg/models"
)

// DefaultPath is the configuration file read when no path is given.
const DefaultPath = "config.yaml"

// Config holds all configuration for ekaya-bim.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"`

	// Upstream BIM database (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Which registered datasource adapter executes the queries
	Datasource DatasourceConfig `yaml:"datasource"`

	// Relation names that differ between upstream revisions
	Schema models.Schema `yaml:"schema"`

	// Stage name -> stage id. Defaults to models.DefaultStages when empty.
	Stages map[string]string `yaml:"stages"`

	// Business titles used as column names
	Vocabulary models.Vocabulary `yaml:"vocabulary"`

	Report ReportConfig `yaml:"report"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"bim"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"bim"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"5"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// DatasourceConfig selects the query executor.
type DatasourceConfig struct {
	Type string `yaml:"type" env:"DATASOURCE_TYPE" env-default:"postgres"`
}

// ReportConfig holds input workbook and output locations.
type ReportConfig struct {
	OutputDir         string `yaml:"output_dir" env:"REPORT_OUTPUT_DIR" env-default:"out"`
	SourcePath        string `yaml:"source_path" env:"REPORT_SOURCE_PATH" env-default:""`
	ElementTypesSheet string `yaml:"element_types_sheet" env:"REPORT_ELEMENT_TYPES_SHEET" env-default:"Element types"`
	ObjectsSheet      string `yaml:"objects_sheet" env:"REPORT_OBJECTS_SHEET" env-default:"Objects"`
	CRMPath           string `yaml:"crm_path" env:"REPORT_CRM_PATH" env-default:""`
	CRMSheet          string `yaml:"crm_sheet" env:"REPORT_CRM_SHEET" env-default:"Sheet1"`
	ShortName         string `yaml:"short_name" env:"REPORT_SHORT_NAME" env-default:"volumes"`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: configuration then comes from the
// environment and built-in defaults only.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{
		Version:    version,
		Vocabulary: models.DefaultVocabulary(),
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if len(cfg.Stages) == 0 {
		cfg.Stages = models.DefaultStages()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the values the pipeline cannot run without.
func (c *Config) Validate() error {
	if len(c.Stages) == 0 {
		return fmt.Errorf("no stages configured")
	}
	for name, id := range c.Stages {
		if _, err := models.ParseID(id); err != nil {
			return fmt.Errorf("stage %q: %w", name, err)
		}
	}
	if err := c.Schema.Validate(); err != nil {
		return err
	}
	if err := c.Vocabulary.Validate(); err != nil {
		return err
	}
	if c.Datasource.Type == "" {
		return fmt.Errorf("datasource type is required")
	}
	return nil
}

// StageMap returns the configured stages as an immutable lookup.
func (c *Config) StageMap() models.StageMap {
	return models.NewStageMap(c.Stages)
}

// URL returns the connection settings as a postgresql:// URL with escaped credentials.
func (c *DatabaseConfig) URL() string {
	u := &url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// ToMap returns the settings in the generic form accepted by datasource factories.
func (c *DatabaseConfig) ToMap() map[string]any {
	return map[string]any{
		"host":      c.Host,
		"port":      c.Port,
		"user":      c.User,
		"password":  c.Password,
		"database":  c.Database,
		"ssl_mode":  c.SSLMode,
		"max_conns": c.MaxConnections,
	}
}
