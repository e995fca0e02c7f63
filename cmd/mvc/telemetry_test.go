package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/coderi421/mvc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name      string
		cfg       config.Log
		wantDebug bool
		wantJSON  bool
	}{
		{
			name: "info text",
			cfg:  config.Log{Level: "info", Format: "text"},
		},
		{
			name:      "debug json",
			cfg:       config.Log{Level: "debug", Format: "json"},
			wantDebug: true,
			wantJSON:  true,
		},
		{
			// 不认识的级别退化成 info
			name: "unknown level",
			cfg:  config.Log{Level: "verbose"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := newLogger(tc.cfg, buf)
			logger.Debug("debug message")
			logger.Info("info message")

			out := buf.String()
			assert.Contains(t, out, "info message")
			assert.Equal(t, tc.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug message")))
			if tc.wantJSON {
				assert.Contains(t, out, `"msg":"info message"`)
			}
		})
	}
}

func TestSetupTracing(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     config.Tracing
		wantErr bool
	}{
		{
			name: "none",
			cfg:  config.Tracing{Exporter: "none", Service: "mvc"},
		},
		{
			name: "jaeger",
			cfg:  config.Tracing{Exporter: "jaeger", Endpoint: "http://localhost:14268/api/traces", Service: "mvc"},
		},
		{
			name: "zipkin",
			cfg:  config.Tracing{Exporter: "zipkin", Endpoint: "http://localhost:9411/api/v2/spans", Service: "mvc"},
		},
		{
			name:    "unknown",
			cfg:     config.Tracing{Exporter: "skywalking"},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			shutdown, err := setupTracing(context.Background(), tc.cfg)
			require.NotNil(t, shutdown)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}
