package model

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aescanero/predictd/pkg/adapters/model/graph"
	"github.com/aescanero/predictd/pkg/ports"
	"go.uber.org/zap"
)

// archiveEntry is the preferred document name inside a .zip artifact
const archiveEntry = "model.yaml"

// Config holds model loader configuration
type Config struct {
	Path   string
	Logger *zap.Logger
}

// Load reads and compiles the artifact at cfg.Path
func Load(cfg *Config) (ports.Model, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("model path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	start := time.Now()

	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(cfg.Path)); ext {
	case ".yaml", ".yml", ".json":
		data, err = os.ReadFile(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read model file: %w", err)
		}
	case ".zip":
		data, err = readArchive(cfg.Path)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported model format %q: %s", ext, cfg.Path)
	}

	m, err := graph.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", cfg.Path, err)
	}

	logger.Info("model loaded",
		zap.String("path", cfg.Path),
		zap.String("model", m.Name()),
		zap.String("version", m.Version()),
		zap.Int("input_size", m.InputSize()),
		zap.Strings("layers", m.Ops()),
		zap.Duration("duration", time.Since(start)))

	return m, nil
}

// readArchive returns the graph document stored in a .zip artifact
func readArchive(p string) ([]byte, error) {
	r, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open model archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	var doc *zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if path.Base(f.Name) == archiveEntry {
			doc = f
			break
		}
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".yaml", ".yml", ".json":
			if doc == nil {
				doc = f
			}
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("model archive %s has no model document", p)
	}

	rc, err := doc.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in model archive: %w", doc.Name, err)
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s in model archive: %w", doc.Name, err)
	}

	return data, nil
}
