package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-reform/internal/config"
	"github.com/goliatone/go-reform/pkg/model"
	"github.com/goliatone/go-reform/pkg/progress"
)

// backend is an opened progress store. client is set for the redis store so
// events can be forwarded over the same connection.
type backend struct {
	storage progress.Storage
	client  *redis.Client
	close   func() error
}

func openBackend(ctx context.Context, c config.Config) (*backend, error) {
	switch c.Store {
	case config.StoreRedis:
		client, err := progress.DialRedis(ctx, progress.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		storage, err := progress.NewRedisStorage(client,
			progress.WithRedisPrefix(c.RedisPrefix),
			progress.WithSessionTTL(c.SessionTTL),
		)
		if err != nil {
			_ = client.Close()
			return nil, err
		}
		return &backend{storage: storage, client: client, close: client.Close}, nil
	case config.StoreSQLite:
		storage, err := progress.OpenSQLite(ctx, c.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{storage: storage, close: storage.Close}, nil
	default:
		return &backend{storage: progress.NewMemory(), close: func() error { return nil }}, nil
	}
}

func (b *backend) Close() {
	if err := b.close(); err != nil {
		logger.Warn().Err(err).Msg("close progress store")
	}
}

// readSchema reads a JSON or YAML schema file and returns the JSON payload
// the engine loads. "-" reads JSON from stdin.
func readSchema(path string, stdin io.Reader) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	var schema model.FormSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		schema, err = model.ParseYAML(raw)
	default:
		schema, err = model.Parse(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", path, err)
	}
	return json.Marshal(schema)
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	logger.Info().Str("path", path).Int("bytes", len(data)).Msg("output written")
	return nil
}

func writeJSON(w io.Writer, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeOutput(w, path, append(data, '\n'))
}

// newSpinner reports indeterminate progress on stderr.
func newSpinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return s
}
