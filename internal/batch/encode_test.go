package batch

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSaver struct {
	saved map[string][]byte
	err   error
}

func (m *memSaver) Save(_ context.Context, name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = append([]byte(nil), data...)
	return nil
}

func fixedClock(e *Encoder) {
	e.now = func() time.Time { return time.UnixMilli(1700000000123) }
}

func TestEncoder_InlineDataURI(t *testing.T) {
	enc := NewInlineEncoder()
	fixedClock(enc)
	pdf := []byte("%PDF-1.4 fake body")

	d, err := enc.Deliver(context.Background(), OpConvert, pdf)
	require.NoError(t, err)
	assert.Equal(t, "converted-1700000000123.pdf", d.Filename)
	assert.Equal(t, len(pdf), d.Size)

	const prefix = "data:application/pdf;base64,"
	require.True(t, strings.HasPrefix(d.DownloadURL, prefix))
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(d.DownloadURL, prefix))
	require.NoError(t, err)
	assert.Equal(t, pdf, decoded)
}

func TestEncoder_StoredMatchesInlineBytes(t *testing.T) {
	saver := &memSaver{}
	enc := NewStoredEncoder(saver, "/uploads")
	fixedClock(enc)
	pdf := []byte("%PDF-1.7 stored body")

	d, err := enc.Deliver(context.Background(), OpMerge, pdf)
	require.NoError(t, err)
	assert.Equal(t, "merged-1700000000123.pdf", d.Filename)
	assert.Equal(t, "/uploads/merged-1700000000123.pdf", d.DownloadURL)
	assert.Equal(t, pdf, saver.saved[d.Filename])
}

func TestEncoder_SaveFailure(t *testing.T) {
	enc := NewStoredEncoder(&memSaver{err: errors.New("disk full")}, "uploads")
	_, err := enc.Deliver(context.Background(), OpConvert, []byte("x"))
	assert.ErrorContains(t, err, "disk full")
}
