package session

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	root := t.TempDir()
	s, err := NewStore(filepath.Join(root, "uploads"), filepath.Join(root, "outputs"), []string{"png", ".JPG", "jpeg"})
	require.NoError(t, err)
	return s
}

func TestStore_SaveUploadAndFind(t *testing.T) {
	s := newTestStore(t)

	up, err := s.SaveUpload("Photo.JPG", strings.NewReader("data"))
	require.NoError(t, err)
	assert.True(t, ValidID(up.ID))
	assert.Equal(t, up.ID+".jpg", up.Filename)

	path, err := s.FindImage(up.ID)
	require.NoError(t, err)
	assert.Equal(t, up.Path, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestStore_SaveUploadRejects(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveUpload("", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrEmptyFilename)

	for _, name := range []string{"image.gif", "noext", "archive.png.exe"} {
		_, err = s.SaveUpload(name, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrUnsupportedFormat, name)
	}
}

func TestStore_FindImageNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.FindImage(ksuid.New().String())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.FindImage("../../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_MaskRoundTrip(t *testing.T) {
	s := newTestStore(t)
	id := ksuid.New().String()

	_, err := s.LoadMask(id)
	assert.ErrorIs(t, err, ErrNotFound)

	mask := image.NewGray(image.Rect(0, 0, 3, 2))
	mask.Pix = []uint8{0, 255, 0, 255, 0, 255}

	name, err := s.SaveMask(id, mask)
	require.NoError(t, err)
	assert.Equal(t, id+"_mask.png", name)
	assert.Equal(t, "/outputs/"+name, OutputURL(name))

	got, err := s.LoadMask(id)
	require.NoError(t, err)
	assert.Equal(t, mask.Pix, got.Pix)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)

	up, err := s.SaveUpload("a.png", bytes.NewReader([]byte("x")))
	require.NoError(t, err)
	_, err = s.SaveMask(up.ID, image.NewGray(image.Rect(0, 0, 1, 1)))
	require.NoError(t, err)

	s.Remove(up.ID)

	_, err = s.FindImage(up.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(s.MaskPath(up.ID))
	assert.True(t, os.IsNotExist(err))
}
