package cli

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airstream/internal/media"
)

const testURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ext := media.NewStaticExtractor()
	ext.SetVideo(testURL, &media.RawVideoInfo{
		Title:           "Demo: Clip",
		Author:          "Someone",
		DurationSeconds: 3725,
		Formats: []media.RawStreamDescriptor{
			{Identifier: "18", HasVideoTrack: true, HasAudioTrack: true, Container: "mp4", QualityLabel: "360p", FrameRate: 30},
			{Identifier: "22", HasVideoTrack: true, HasAudioTrack: true, Container: "mp4", QualityLabel: "720p", FrameRate: 30},
			{Identifier: "140", HasAudioTrack: true, Container: "mp4", AudioBitrateKbps: 128},
		},
	})
	ext.SetPayload("18", []byte("video-360"))
	ext.SetPayload("22", []byte("video-720"))
	ext.SetPayload("140", []byte("audio-128"))

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 4}))
	h := media.NewHandler(media.NewService(ext, nil, 0), "", log, nil)
	r := chi.NewRouter()
	r.Get("/api/info", h.GetInfo)
	r.Get("/api/download", h.Download)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd(&out, srv.Client())
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--server", srv.URL}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	srv := newTestServer(t)

	out, err := run(t, srv, "info", testURL)
	require.NoError(t, err)
	assert.Contains(t, out, "Demo: Clip")
	assert.Contains(t, out, "Duration: 1:02:05")
	assert.Contains(t, out, "Author:   Someone")
	assert.Contains(t, out, "720p")
	assert.Contains(t, out, "128kbps")
	assert.Less(t, strings.Index(out, "720p"), strings.Index(out, "360p"),
		"best video format listed first")
}

func TestInfoCommand_invalidURL(t *testing.T) {
	srv := newTestServer(t)

	_, err := run(t, srv, "info", "https://example.com/watch?v=x")
	assert.EqualError(t, err, "Invalid YouTube URL")
}

func TestDownloadCommand_defaults(t *testing.T) {
	srv := newTestServer(t)
	dir := t.TempDir()
	dst := filepath.Join(dir, "clip.mp4")

	_, err := run(t, srv, "download", testURL, "-o", dst)
	require.NoError(t, err)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "video-720", string(b))
}

func TestDownloadCommand_audioToStdout(t *testing.T) {
	srv := newTestServer(t)

	out, err := run(t, srv, "download", testURL, "--audio", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "audio-128", out)
}

func TestDownloadCommand_explicitItag(t *testing.T) {
	srv := newTestServer(t)

	out, err := run(t, srv, "download", testURL, "--itag", "18", "-o", "-")
	require.NoError(t, err)
	assert.Equal(t, "video-360", out)
}

func TestDownloadCommand_itagOfOtherKind(t *testing.T) {
	srv := newTestServer(t)
	dst := filepath.Join(t.TempDir(), "x.mp4")

	_, err := run(t, srv, "download", testURL, "--itag", "140", "-o", dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a video format")
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}
