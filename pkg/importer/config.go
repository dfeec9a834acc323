// Copyright (c) The InfluxImport Authors.
// Licensed under the Apache License 2.0.

package importer

import (
	"time"

	"github.com/efficientgo/core/errors"
	"github.com/prometheus/common/model"
	"github.com/thanos-io/objstore/client"
	"gopkg.in/yaml.v2"

	"github.com/influx-tools/influximport/pkg/parser"
	"github.com/influx-tools/influximport/pkg/sink"
)

const defaultBatchSize = 5000

// SourceConfig describes one directory of data files to import.
type SourceConfig struct {
	Subdir  string        `yaml:"subdir"`
	Pattern string        `yaml:"pattern"`
	Format  parser.Format `yaml:"format"`
	// Descriptor is the mapping file path, relative to base_dir.
	Descriptor string `yaml:"descriptor"`
}

// FilesConfig determines where data files live and where import progress is
// recorded.
type FilesConfig struct {
	BaseDir    string `yaml:"base_dir"`
	StatusFile string `yaml:"status_file"`
	// Storage is the objstore client configuration holding the data files.
	// Defaults to the local filesystem rooted at /.
	Storage client.BucketConfig     `yaml:"storage"`
	Sources map[string]SourceConfig `yaml:"sources"`
}

// Config is the top-level influximport configuration.
type Config struct {
	Database sink.Config `yaml:"database"`
	Files    FilesConfig `yaml:"files"`
}

// ParseConfig unmarshals the configuration, applying defaults first.
func ParseConfig(confYaml []byte) (Config, error) {
	cfg := Config{
		Database: sink.Config{
			BatchSize:    defaultBatchSize,
			FlushTimeout: model.Duration(30 * time.Second),
			MaxRetries:   3,
		},
		Files: FilesConfig{
			Storage: client.BucketConfig{
				Type:   client.FILESYSTEM,
				Config: map[string]interface{}{"directory": "/"},
			},
		},
	}
	if err := yaml.UnmarshalStrict(confYaml, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshal configuration")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Database.Org == "" {
		return errors.New("database.org is required")
	}
	if cfg.Database.Bucket == "" {
		return errors.New("database.bucket is required")
	}
	if cfg.Database.BatchSize <= 0 {
		return errors.New("database.batch_size must be positive")
	}
	if cfg.Files.StatusFile == "" {
		return errors.New("files.status_file is required")
	}
	if len(cfg.Files.Sources) == 0 {
		return errors.New("files.sources must name at least one source")
	}
	for name, src := range cfg.Files.Sources {
		if src.Subdir == "" {
			return errors.Newf("source %s: subdir is required", name)
		}
		if src.Format == "" {
			return errors.Newf("source %s: format is required", name)
		}
		if src.Descriptor == "" {
			return errors.Newf("source %s: descriptor is required", name)
		}
	}
	return nil
}
