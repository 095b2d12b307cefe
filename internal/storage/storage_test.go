package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobportal/apiserver/config"
)

type memBackend struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemBackend() *memBackend {
	return &memBackend{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memBackend) EnsureBucket(ctx context.Context) error { return nil }

func (m *memBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(m.objects[key])), nil
}

func (m *memBackend) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *memBackend) Bucket() string { return "mem" }

func TestPutResumeRoundTrip(t *testing.T) {
	backend := newMemBackend()
	s := NewStorage(backend)

	key, err := s.PutResume(context.Background(), 42, strings.NewReader("%PDF-1.4"), 8)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "resumes/42/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.Equal(t, "application/pdf", backend.types[key])

	rc, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestCleanKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"resumes/1/a.pdf", "resumes/1/a.pdf", true},
		{"/resumes/1/a.pdf", "resumes/1/a.pdf", true},
		{"resumes/../secrets", "", false},
		{"other/1/a.pdf", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := CleanKey(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidKey, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestOpenDisabled(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(context.Background(), config.StorageConfig{Backend: "s3"})
	assert.Error(t, err)
}
