// Package youtube adapts github.com/kkdai/youtube/v2 to the media.Extractor contract.
package youtube

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"

	"airstream/internal/media"
)

// Extractor fetches metadata and streams through the YouTube player API.
type Extractor struct {
	client    *yt.Client
	http      *http.Client
	chunkSize int64

	// streamURL resolves the playable URL of a format.
	streamURL func(ctx context.Context, video *yt.Video, format *yt.Format) (string, error)
}

// New returns an Extractor using httpClient for all upstream calls. A nil
// client falls back to http.DefaultClient.
func New(httpClient *http.Client) *Extractor {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	client := &yt.Client{HTTPClient: httpClient}
	return &Extractor{
		client:    client,
		http:      httpClient,
		chunkSize: yt.Size10Mb,
		streamURL: client.GetStreamURLContext,
	}
}

// GetInfo implements media.Extractor.GetInfo.
func (e *Extractor) GetInfo(ctx context.Context, url string) (*media.RawVideoInfo, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return toVideoInfo(video), nil
}

// OpenStream implements media.Extractor.OpenStream. The body fetches one
// range at a time as it is read and stops when ctx is cancelled.
func (e *Extractor) OpenStream(ctx context.Context, url string, opts media.StreamOptions) (*media.Stream, error) {
	video, err := e.client.GetVideoContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrExtraction, err)
	}
	return e.openFormat(ctx, video, opts)
}

func (e *Extractor) openFormat(ctx context.Context, video *yt.Video, opts media.StreamOptions) (*media.Stream, error) {
	d, err := media.ResolveStream(toDescriptors(video.Formats), opts)
	if err != nil {
		return nil, err
	}

	itag, err := strconv.Atoi(d.Identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: bad itag %q", media.ErrFormatUnavailable, d.Identifier)
	}
	matches := video.Formats.Itag(itag)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: itag %d not offered", media.ErrFormatUnavailable, itag)
	}
	format := &matches[0]

	streamURL, err := e.streamURL(ctx, video, format)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve stream url: %v", media.ErrUpstreamStream, err)
	}

	body := newRangeReader(ctx, e.http, streamURL, format.ContentLength, e.chunkSize)
	// The first request goes out now so a refused stream fails before any
	// response header is written.
	if err := body.open(); err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrUpstreamStream, err)
	}
	return &media.Stream{Body: body, Size: body.Size(), Format: d}, nil
}

func toVideoInfo(v *yt.Video) *media.RawVideoInfo {
	thumbs := make([]media.Thumbnail, 0, len(v.Thumbnails))
	for _, t := range v.Thumbnails {
		thumbs = append(thumbs, media.Thumbnail{URL: t.URL, Width: int(t.Width), Height: int(t.Height)})
	}
	return &media.RawVideoInfo{
		Title:           v.Title,
		Author:          v.Author,
		DurationSeconds: int(v.Duration / time.Second),
		Thumbnails:      thumbs,
		Formats:         toDescriptors(v.Formats),
	}
}

func toDescriptors(formats yt.FormatList) []media.RawStreamDescriptor {
	out := make([]media.RawStreamDescriptor, 0, len(formats))
	for i := range formats {
		out = append(out, toDescriptor(&formats[i]))
	}
	return out
}

func toDescriptor(f *yt.Format) media.RawStreamDescriptor {
	mime := strings.ToLower(f.MimeType)
	hasVideo := strings.HasPrefix(mime, "video/")
	hasAudio := f.AudioChannels > 0 || strings.HasPrefix(mime, "audio/")

	d := media.RawStreamDescriptor{
		Identifier:    strconv.Itoa(f.ItagNo),
		HasVideoTrack: hasVideo,
		HasAudioTrack: hasAudio,
		Container:     containerOf(mime),
		FrameRate:     f.FPS,
	}
	if hasVideo {
		d.QualityLabel = f.QualityLabel
	}
	// Muxed formats only report the combined bitrate, which says nothing
	// about the audio track.
	if hasAudio && !hasVideo {
		d.AudioBitrateKbps = kbps(bitrateOf(f))
	}
	if size := approxSize(f); size > 0 {
		d.ApproxByteSize = &size
	}
	return d
}

// containerOf returns the subtype of a mime type: `video/mp4; codecs="..."` -> "mp4".
func containerOf(mime string) string {
	_, sub, ok := strings.Cut(mime, "/")
	if !ok {
		return ""
	}
	sub, _, _ = strings.Cut(sub, ";")
	return strings.TrimSpace(sub)
}

func bitrateOf(f *yt.Format) int {
	if f.AverageBitrate > 0 {
		return f.AverageBitrate
	}
	return f.Bitrate
}

func kbps(bitsPerSecond int) int {
	if bitsPerSecond <= 0 {
		return 0
	}
	return int(math.Round(float64(bitsPerSecond) / 1000))
}

// approxSize prefers the reported content length and otherwise estimates it
// from bitrate and duration.
func approxSize(f *yt.Format) int64 {
	if f.ContentLength > 0 {
		return int64(f.ContentLength)
	}
	ms, err := strconv.ParseInt(f.ApproxDurationMs, 10, 64)
	if err != nil || ms <= 0 {
		return 0
	}
	return int64(bitrateOf(f)) * ms / 8000
}
