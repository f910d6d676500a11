package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMediaSaveAndLocate(t *testing.T) {
	t.Parallel()
	media := MediaService{BasePath: t.TempDir()}
	payload := []byte("\x89PNG fake image bytes")

	asset, err := media.SaveLessonImage(adminActor, "image/png", bytes.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, "/api/media/"+asset.AssetID, asset.URL)
	require.Equal(t, int64(len(payload)), asset.SizeBytes)
	sum := sha256.Sum256(payload)
	require.Equal(t, hex.EncodeToString(sum[:]), asset.SHA256)

	path, err := media.LocateAsset(asset.AssetID)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, ".png"))
	stored, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, payload, stored)

	require.NoError(t, media.DeleteAsset(adminActor, asset.AssetID))
	_, err = media.LocateAsset(asset.AssetID)
	require.Equal(t, 404, StatusOf(err))
}

func TestMediaRejects(t *testing.T) {
	t.Parallel()
	media := MediaService{BasePath: t.TempDir()}

	_, err := media.SaveLessonImage(studentActor, "image/png", strings.NewReader("x"))
	require.Equal(t, 403, StatusOf(err))

	_, err = media.SaveLessonImage(adminActor, "application/pdf", strings.NewReader("x"))
	require.Equal(t, 400, StatusOf(err))

	_, err = media.SaveLessonImage(adminActor, "image/jpeg", strings.NewReader(""))
	require.Equal(t, 400, StatusOf(err))

	_, err = media.SaveLessonImage(adminActor, "image/gif", bytes.NewReader(make([]byte, MaxImageBytes+1)))
	require.Equal(t, 400, StatusOf(err))

	_, err = media.LocateAsset("../../etc/passwd")
	require.Equal(t, 404, StatusOf(err))
}
