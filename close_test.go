package triage

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloser struct {
	closeErr   error
	closeCalls int
}

func (m *mockCloser) Close() error {
	m.closeCalls++
	return m.closeErr
}

func TestCloseWithLog_NilCloser(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(nil, logger, "feedback store")

	assert.Empty(t, logBuf.String())
}

func TestCloseWithLog_SuccessfulClose(t *testing.T) {
	closer := &mockCloser{}
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(closer, logger, "feedback store")

	assert.Equal(t, 1, closer.closeCalls)
	assert.Empty(t, logBuf.String())
}

func TestCloseWithLog_CloseError(t *testing.T) {
	closer := &mockCloser{closeErr: errors.New("close failed: connection reset")}
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	CloseWithLog(closer, logger, "artifact store")

	assert.Equal(t, 1, closer.closeCalls)
	logOutput := logBuf.String()
	assert.Contains(t, logOutput, "failed to close resource")
	assert.Contains(t, logOutput, "artifact store")
	assert.Contains(t, logOutput, "connection reset")
	assert.Contains(t, logOutput, "level=WARN")
}

func TestCloseWithLog_NilLogger(t *testing.T) {
	closer := &mockCloser{closeErr: errors.New("test error")}

	require.NotPanics(t, func() {
		CloseWithLog(closer, nil, "feedback store")
	})
	assert.Equal(t, 1, closer.closeCalls)
}
