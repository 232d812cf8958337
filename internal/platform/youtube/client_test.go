package youtube

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	yt "github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airstream/internal/media"
)

func TestToDescriptor(t *testing.T) {
	tests := []struct {
		name   string
		format yt.Format
		want   media.RawStreamDescriptor
	}{
		{
			name: "muxed mp4",
			format: yt.Format{
				ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`,
				QualityLabel: "360p", FPS: 30, AudioChannels: 2, Bitrate: 500000, ContentLength: 1024,
			},
			want: media.RawStreamDescriptor{
				Identifier: "18", HasVideoTrack: true, HasAudioTrack: true,
				Container: "mp4", QualityLabel: "360p", FrameRate: 30,
			},
		},
		{
			name: "adaptive video only",
			format: yt.Format{
				ItagNo: 248, MimeType: `video/webm; codecs="vp9"`, QualityLabel: "1080p", FPS: 60,
			},
			want: media.RawStreamDescriptor{
				Identifier: "248", HasVideoTrack: true, Container: "webm", QualityLabel: "1080p", FrameRate: 60,
			},
		},
		{
			name: "audio only",
			format: yt.Format{
				ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2,
				Bitrate: 130685, AverageBitrate: 129478, QualityLabel: "ignored",
			},
			want: media.RawStreamDescriptor{
				Identifier: "140", HasAudioTrack: true, Container: "mp4", AudioBitrateKbps: 129,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toDescriptor(&tt.format)
			size := got.ApproxByteSize
			got.ApproxByteSize = nil
			assert.Equal(t, tt.want, got)
			if tt.format.ContentLength > 0 {
				require.NotNil(t, size)
				assert.EqualValues(t, tt.format.ContentLength, *size)
			}
		})
	}
}

func TestApproxSize_from_duration(t *testing.T) {
	f := yt.Format{Bitrate: 128000, ApproxDurationMs: "60000"}
	assert.EqualValues(t, 960000, approxSize(&f))

	f = yt.Format{Bitrate: 128000, ApproxDurationMs: "n/a"}
	assert.Zero(t, approxSize(&f))
}

func TestContainerOf(t *testing.T) {
	assert.Equal(t, "mp4", containerOf(`video/mp4; codecs="avc1"`))
	assert.Equal(t, "webm", containerOf("audio/webm"))
	assert.Equal(t, "", containerOf("garbage"))
}

func TestToVideoInfo(t *testing.T) {
	v := &yt.Video{
		Title:    "Never Gonna",
		Author:   "Rick",
		Duration: 213 * time.Second,
		Thumbnails: yt.Thumbnails{
			{URL: "https://i.ytimg.com/default.jpg", Width: 120, Height: 90},
			{URL: "https://i.ytimg.com/maxres.jpg", Width: 1280, Height: 720},
		},
		Formats: yt.FormatList{
			{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", AudioChannels: 2},
		},
	}

	info := toVideoInfo(v)
	assert.Equal(t, "Never Gonna", info.Title)
	assert.Equal(t, "Rick", info.Author)
	assert.Equal(t, 213, info.DurationSeconds)
	require.Len(t, info.Thumbnails, 2)
	assert.Equal(t, "https://i.ytimg.com/maxres.jpg", media.BestThumbnail(info.Thumbnails))
	require.Len(t, info.Formats, 1)
	assert.Equal(t, "22", info.Formats[0].Identifier)
}

func TestNew_default_client(t *testing.T) {
	e := New(nil)
	require.NotNil(t, e.client)
	assert.NotNil(t, e.client.HTTPClient)
	assert.Same(t, http.DefaultClient, e.http)
	assert.NotNil(t, e.streamURL)
}

func newTestExtractor(up http.RoundTripper) *Extractor {
	e := New(&http.Client{Transport: up})
	e.chunkSize = 1024
	e.streamURL = func(_ context.Context, _ *yt.Video, f *yt.Format) (string, error) {
		return f.URL, nil
	}
	return e
}

func testVideo() *yt.Video {
	return &yt.Video{
		ID: "dQw4w9WgXcQ",
		Formats: yt.FormatList{
			{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, QualityLabel: "360p", AudioChannels: 2,
				URL: "https://rr1.googlevideo.com/videoplayback?itag=18", ContentLength: 3000},
			{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, QualityLabel: "720p", AudioChannels: 2,
				URL: "https://rr1.googlevideo.com/videoplayback?itag=22", ContentLength: 3000},
			{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, AudioChannels: 2, AverageBitrate: 128000,
				URL: "https://rr1.googlevideo.com/videoplayback?itag=140", ContentLength: 3000},
		},
	}
}

func TestOpenFormat_resolution(t *testing.T) {
	tests := []struct {
		name     string
		opts     media.StreamOptions
		wantItag string
	}{
		{name: "explicit itag", opts: media.StreamOptions{Identifier: "18"}, wantItag: "18"},
		{name: "highest", opts: media.StreamOptions{Quality: media.QualityHighest}, wantItag: "22"},
		{name: "highest audio", opts: media.StreamOptions{Quality: media.QualityHighestAudio, AudioOnly: true}, wantItag: "140"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpstream{payload: newPayload(3000)}
			e := newTestExtractor(up)

			st, err := e.openFormat(context.Background(), testVideo(), tt.opts)
			require.NoError(t, err)
			defer st.Body.Close()

			assert.Equal(t, tt.wantItag, st.Format.Identifier)
			assert.EqualValues(t, 3000, st.Size)
			got, err := io.ReadAll(st.Body)
			require.NoError(t, err)
			assert.Equal(t, up.payload, got)
			assert.Equal(t, []string{"0-1023", "1024-2047", "2048-2999"}, up.requested())
		})
	}
}

func TestOpenFormat_stream_is_paced_by_reader(t *testing.T) {
	up := &fakeUpstream{payload: newPayload(3000)}
	e := newTestExtractor(up)

	st, err := e.openFormat(context.Background(), testVideo(), media.StreamOptions{Identifier: "22"})
	require.NoError(t, err)
	defer st.Body.Close()

	_, err = io.ReadFull(st.Body, make([]byte, 1))
	require.NoError(t, err)
	assert.Len(t, up.requested(), 1)
	assert.LessOrEqual(t, up.servedBytes(), int64(1024))
}

func TestOpenFormat_unknown_itag(t *testing.T) {
	up := &fakeUpstream{payload: newPayload(3000)}
	e := newTestExtractor(up)

	_, err := e.openFormat(context.Background(), testVideo(), media.StreamOptions{Identifier: "999"})
	assert.ErrorIs(t, err, media.ErrFormatUnavailable)
	assert.Empty(t, up.requested())
}

func TestOpenFormat_upstream_failures(t *testing.T) {
	up := &fakeUpstream{payload: newPayload(3000), status: http.StatusForbidden}
	e := newTestExtractor(up)

	_, err := e.openFormat(context.Background(), testVideo(), media.StreamOptions{Identifier: "22"})
	assert.ErrorIs(t, err, media.ErrUpstreamStream)

	e = newTestExtractor(&fakeUpstream{payload: newPayload(3000)})
	e.streamURL = func(context.Context, *yt.Video, *yt.Format) (string, error) {
		return "", errors.New("cipher not found")
	}
	_, err = e.openFormat(context.Background(), testVideo(), media.StreamOptions{Identifier: "22"})
	assert.ErrorIs(t, err, media.ErrUpstreamStream)
}
