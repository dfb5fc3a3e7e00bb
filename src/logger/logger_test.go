// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/H0llyW00dzZ/x509-trust-verifier/src/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLILogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Printf",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				log.Printf("test message: %s", "hello")

				assert.Contains(t, buf.String(), "test message: hello", "expected output to contain 'test message: hello'")
			},
		},
		{
			name: "Println",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				log.Println("test", "message")

				assert.Contains(t, buf.String(), "test message", "expected output to contain 'test message'")
			},
		},
		{
			name: "SetOutput",
			testFunc: func(t *testing.T) {
				var buf1, buf2 bytes.Buffer
				log := logger.NewCLILogger()

				log.SetOutput(&buf1)
				log.Println("first")

				log.SetOutput(&buf2)
				log.Println("second")

				assert.Contains(t, buf1.String(), "first", "expected buf1 to contain 'first'")
				assert.Contains(t, buf2.String(), "second", "expected buf2 to contain 'second'")
				assert.NotContains(t, buf1.String(), "second", "buf1 should not contain 'second'")
			},
		},
		{
			name: "ConcurrentUsage",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewCLILogger()
				log.SetOutput(&buf)

				const numGoroutines = 100
				const messagesPerGoroutine = 10

				var wg sync.WaitGroup
				wg.Add(numGoroutines)

				for i := range numGoroutines {
					go func(id int) {
						defer wg.Done()
						for j := range messagesPerGoroutine {
							log.Printf("goroutine %d message %d", id, j)
						}
					}(i)
				}

				wg.Wait()

				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				assert.Equal(t, numGoroutines*messagesPerGoroutine, len(lines), "unexpected number of log lines")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}

func TestMCPLogger(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Silent",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, true)

				log.Printf("test message: %s", "hello")
				log.Println("another message")

				assert.Equal(t, 0, buf.Len(), "expected no output in silent mode")
			},
		},
		{
			name: "Printf_JSON",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, false)

				log.Printf("test message: %s", "hello")

				var logEntry map[string]any
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &logEntry), "failed to parse JSON output")

				assert.Equal(t, "info", logEntry["level"], "expected level 'info'")
				assert.Equal(t, "test message: hello", logEntry["message"], "expected message 'test message: hello'")
			},
		},
		{
			name: "Println_JSON",
			testFunc: func(t *testing.T) {
				var buf bytes.Buffer
				log := logger.NewMCPLogger(&buf, false)

				log.Println("structured entry")

				var logEntry map[string]any
				require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &logEntry), "failed to parse JSON output")

				assert.Equal(t, "structured entry", logEntry["message"], "expected message 'structured entry'")
			},
		},
		{
			name: "SetOutput_Nil",
			testFunc: func(t *testing.T) {
				log := logger.NewMCPLogger(nil, false)
				log.SetOutput(nil)

				// Must not panic with a nil writer.
				log.Printf("discarded: %d", 42)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t)
		})
	}
}
