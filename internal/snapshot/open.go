package snapshot

import (
	"context"
	"fmt"
)

// Driver selects a snapshot source.
type Driver string

const (
	DriverFile     Driver = "file"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
	DriverHTTP     Driver = "http"
)

// SourceConfig holds the settings of every driver; only the selected one is read.
type SourceConfig struct {
	Driver Driver
	Path   string
	DSN    string
	S3     S3Config
	HTTP   HTTPConfig
}

// OpenSource builds the configured source.
func OpenSource(ctx context.Context, cfg SourceConfig) (Source, error) {
	switch cfg.Driver {
	case DriverFile, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file snapshot source requires a path")
		}
		return NewFileSource(cfg.Path), nil
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = cfg.Path
		}
		return openSQL(ctx, DriverSQLite, dsn)
	case DriverPostgres:
		return openSQL(ctx, DriverPostgres, cfg.DSN)
	case DriverS3:
		src, err := NewS3Source(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return src, nil
	case DriverHTTP:
		src, err := NewHTTPSource(cfg.HTTP)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown snapshot driver %q", cfg.Driver)
	}
}

func openSQL(ctx context.Context, d Driver, dsn string) (Source, error) {
	src, err := OpenSQL(ctx, string(d), dsn)
	if err != nil {
		return nil, err
	}
	return src, nil
}
