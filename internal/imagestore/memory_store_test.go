package imagestore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreUpload(t *testing.T) {
	s := NewMemoryStore()

	url, err := s.Upload(context.Background(), Image{Data: []byte("png"), ContentType: "image/png"}, FolderPosts)
	require.NoError(t, err)
	assert.True(t, strings.Contains(url, FolderPosts+"/"), "url carries the folder: %s", url)
	assert.Equal(t, 1, s.Len())
}

func TestMemoryStoreForcedFailure(t *testing.T) {
	s := NewMemoryStore()
	s.Err = errors.New("out of disk")

	_, err := s.Upload(context.Background(), Image{Data: []byte("x"), ContentType: "image/png"}, FolderProfiles)
	assert.Error(t, err)
	assert.Equal(t, 0, s.Len())
}
