package client

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airstream/internal/media"
)

const testURL = "https://youtu.be/dQw4w9WgXcQ"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ext := media.NewStaticExtractor()
	size := int64(9)
	ext.SetVideo(testURL, &media.RawVideoInfo{
		Title:           "Hello: World",
		DurationSeconds: 61,
		Formats: []media.RawStreamDescriptor{
			{Identifier: "22", HasVideoTrack: true, HasAudioTrack: true, Container: "mp4", QualityLabel: "720p", ApproxByteSize: &size},
			{Identifier: "140", HasAudioTrack: true, Container: "mp4", AudioBitrateKbps: 128},
		},
	})
	ext.SetPayload("22", []byte("video-720"))
	ext.SetPayload("140", []byte("audio"))

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	h := media.NewHandler(media.NewService(ext, nil, 0), "", log, nil)

	r := chi.NewRouter()
	r.Get("/api/info", h.GetInfo)
	r.Get("/api/download", h.Download)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Info(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", srv.Client())

	info, err := c.Info(context.Background(), testURL)
	require.NoError(t, err)
	assert.Equal(t, "Hello: World", info.Title)
	assert.Equal(t, 61, info.DurationSeconds)
	require.Len(t, info.Formats, 2)
	assert.Equal(t, "22", info.Formats[0].Identifier)
	assert.Equal(t, media.AudioOnly, info.Formats[1].MediaKind)
}

func TestClient_Info_invalidURL(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, srv.Client())

	_, err := c.Info(context.Background(), "https://vimeo.com/1")
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusBadRequest))
	assert.EqualError(t, err, "Invalid YouTube URL")
}

func TestClient_Download(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, srv.Client())

	var buf bytes.Buffer
	res, err := c.Download(context.Background(), media.DownloadRequest{
		SourceURL:      testURL,
		Identifier:     "22",
		Container:      media.ContainerVideo,
		SuggestedTitle: "Hello: World",
	}, &buf)
	require.NoError(t, err)
	assert.Equal(t, "video-720", buf.String())
	assert.Equal(t, "Hello World.mp4", res.Filename)
	assert.Equal(t, "video/mp4", res.ContentType)
	assert.EqualValues(t, 9, res.Bytes)
}

func TestClient_Download_unavailableFormat(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, srv.Client())

	var buf bytes.Buffer
	_, err := c.Download(context.Background(), media.DownloadRequest{
		SourceURL:  testURL,
		Identifier: "999",
		Container:  media.ContainerVideo,
	}, &buf)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "no longer available")
	assert.Zero(t, buf.Len())
}
