package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	nethttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aescanero/predictd/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// freePort returns a TCP port that was free a moment ago
func freePort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	return port
}

func testConfig(t *testing.T, modelPath string) *config.Config {
	t.Helper()

	return &config.Config{
		HTTPPort: freePort(t),
		LogLevel: "debug",
		Model:    config.ModelConfig{Path: modelPath},
		Timeouts: config.TimeoutConfig{
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
	}
}

func TestRunFailsBeforeListeningWhenModelIsMissing(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing.yaml"))
	core, logs := observer.New(zapcore.DebugLevel)

	err := run(context.Background(), cfg, zap.New(core), prometheus.NewRegistry(), prometheus.NewRegistry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load model")

	conn, dialErr := net.DialTimeout("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.HTTPPort), 200*time.Millisecond)
	if dialErr == nil {
		_ = conn.Close()
	}
	assert.Error(t, dialErr, "no listener may be opened after a failed model load")

	assert.Equal(t, 1, logs.FilterMessage("failed to load model").Len())
	assert.Zero(t, logs.FilterMessage("starting HTTP server").Len())
}

func TestRunFailsOnMalformedModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: broken\nlayers:\n  - op: softmax\n"), 0o600))
	cfg := testConfig(t, path)

	err := run(context.Background(), cfg, zap.NewNop(), prometheus.NewRegistry(), prometheus.NewRegistry())
	assert.Error(t, err)
}

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testConfig(t, filepath.Join("..", "..", "models", "doubleit.yaml"))
	cfg.Metrics.Enabled = true
	reg := prometheus.NewRegistry()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- run(ctx, cfg, zap.NewNop(), reg, reg)
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", cfg.HTTPPort)
	client := &nethttp.Client{Timeout: time.Second}

	require.Eventually(t, func() bool {
		resp, err := client.Get(base + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == nethttp.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := client.Post(base+"/predict", "application/json", strings.NewReader(`{"inputs": [1.0, 2.0]}`))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"result": [2.0, 4.0]}`, string(body))

	resp, err = client.Get(base + "/metrics")
	require.NoError(t, err)
	body, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `predictd_model_info{model="doubleit"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("run did not return after cancellation")
	}
}

func TestLoggerConfig(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := loggerConfig(tt.level)

			assert.Equal(t, tt.want, cfg.Level.Level())
			assert.Equal(t, "json", cfg.Encoding)
			assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
			assert.Equal(t, "severity", cfg.EncoderConfig.LevelKey)
		})
	}
}

func TestLoggerConfigEncodesSeverity(t *testing.T) {
	cfg := loggerConfig("info")
	enc := zapcore.NewJSONEncoder(cfg.EncoderConfig)

	buf, err := enc.EncodeEntry(zapcore.Entry{
		Level:   zapcore.ErrorLevel,
		Time:    time.Now(),
		Message: "prediction failed",
	}, nil)
	require.NoError(t, err)

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["severity"])
	assert.Equal(t, "prediction failed", line["msg"])
	assert.NotContains(t, line, "level")
}

func TestInitLogger(t *testing.T) {
	logger := initLogger("warn")
	require.NotNil(t, logger)

	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
