package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/jobmatch/internal/core/domain"
)

func TestExtractor_Extract(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Go Developer\r\nRemote\r\n\r\n")...)

	text, err := New().Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, "Go Developer\nRemote", text)
}

func TestExtractor_RejectsBinary(t *testing.T) {
	_, err := New().Extract(context.Background(), []byte{'P', 'K', 0x03, 0x04, 0x00})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New().Extract(context.Background(), []byte{0xff, 0xfe, 0xfd})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
