package media

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultFilename replaces titles that sanitize to nothing.
const DefaultFilename = "youtube-video"

// DefaultInfoTimeout bounds a single metadata fetch.
const DefaultInfoTimeout = 30 * time.Second

var nonWordOrSpace = regexp.MustCompile(`[^\w\s]`)

// Service implements the Info Service and the Download Proxy on top of an Extractor.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	extractor   Extractor
	validator   *Validator
	infoTimeout time.Duration
}

// NewService returns a Service. If validator is nil the default allow-list is
// used; if infoTimeout <= 0, DefaultInfoTimeout is used.
func NewService(extractor Extractor, validator *Validator, infoTimeout time.Duration) *Service {
	if validator == nil {
		validator = NewValidator(nil)
	}
	if infoTimeout <= 0 {
		infoTimeout = DefaultInfoTimeout
	}
	return &Service{extractor: extractor, validator: validator, infoTimeout: infoTimeout}
}

// FetchInfo validates url, fetches its metadata and returns the summary with
// normalized, sorted formats. Every call goes to the extractor.
func (s *Service) FetchInfo(ctx context.Context, url string) (*VideoInfo, error) {
	url = strings.TrimSpace(url)
	if !s.validator.Validate(url) {
		return nil, ErrInvalidURL
	}

	ctx, cancel := context.WithTimeout(ctx, s.infoTimeout)
	defer cancel()

	raw, err := s.extractor.GetInfo(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty response", ErrExtraction)
	}

	return &VideoInfo{
		VideoSummary: VideoSummary{
			Title:           raw.Title,
			ThumbnailURL:    BestThumbnail(raw.Thumbnails),
			DurationSeconds: raw.DurationSeconds,
			AuthorName:      raw.Author,
		},
		Formats: NormalizeFormats(raw.Formats),
	}, nil
}

// Download is an opened Download Proxy response: headers plus the upstream body.
type Download struct {
	Filename    string
	ContentType string
	Stream      *Stream
}

// ContentDisposition returns the attachment header value for d.
func (d *Download) ContentDisposition() string {
	return fmt.Sprintf("attachment; filename=%q", d.Filename)
}

// OpenDownload validates req and opens the upstream stream it names. The
// returned Download owns Stream.Body; callers must close it. ctx bounds the
// whole transfer, so cancelling it aborts the upstream read.
func (s *Service) OpenDownload(ctx context.Context, req DownloadRequest) (*Download, error) {
	url := strings.TrimSpace(req.SourceURL)
	if !s.validator.Validate(url) {
		return nil, ErrInvalidURL
	}

	opts := StreamOptions{
		Identifier: strings.TrimSpace(req.Identifier),
		AudioOnly:  req.Container == ContainerAudio,
	}
	if opts.Identifier == "" {
		opts.Quality = QualityHighest
		if opts.AudioOnly {
			opts.Quality = QualityHighestAudio
		}
	}

	stream, err := s.extractor.OpenStream(ctx, url, opts)
	if err != nil {
		return nil, classifyStreamErr(err)
	}

	return &Download{
		Filename:    SanitizeTitle(req.SuggestedTitle) + "." + req.Container.Extension(),
		ContentType: req.Container.ContentType(),
		Stream:      stream,
	}, nil
}

// classifyStreamErr keeps taxonomy errors and files everything else under ErrUpstreamStream.
func classifyStreamErr(err error) error {
	for _, known := range []error{ErrInvalidURL, ErrExtraction, ErrFormatUnavailable, ErrUpstreamStream} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", ErrUpstreamStream, err)
}

// SanitizeTitle strips everything except ASCII word characters and whitespace,
// collapses whitespace runs to single spaces, and falls back to DefaultFilename.
func SanitizeTitle(title string) string {
	clean := strings.Join(strings.Fields(nonWordOrSpace.ReplaceAllString(title, "")), " ")
	if clean == "" {
		return DefaultFilename
	}
	return clean
}
