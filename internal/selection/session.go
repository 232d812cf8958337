// Package selection holds the client-side state of one download session:
// the fetched formats, the media-kind tab and the single current selection.
package selection

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"airstream/internal/media"
)

// State is the phase of a Session.
type State string

const (
	Idle        State = "idle"
	Fetching    State = "fetching"
	Ready       State = "ready"
	FetchFailed State = "fetch_failed"
)

// DefaultFailureDisplay is how long FetchFailed lasts before falling back to Idle.
const DefaultFailureDisplay = 5 * time.Second

var (
	// ErrNoSelection is returned when a download is requested without both a
	// source URL and a selected identifier.
	ErrNoSelection = errors.New("select a quality to download")

	// ErrNotReady is returned by actions that need fetched formats.
	ErrNotReady = errors.New("no video information loaded")

	// ErrUnknownFormat is returned when selecting an identifier that is not
	// offered under the current tab.
	ErrUnknownFormat = errors.New("format not offered for this media kind")

	// ErrStaleFetch is returned when a fetch result arrives after a newer fetch started.
	ErrStaleFetch = errors.New("fetch superseded")
)

// Tab is the media-kind tab the user is browsing.
type Tab string

const (
	TabVideo Tab = "video"
	TabAudio Tab = "audio"
)

// Container returns the download container for the tab.
func (t Tab) Container() media.ContainerKind {
	if t == TabAudio {
		return media.ContainerAudio
	}
	return media.ContainerVideo
}

// Fetch identifies one in-flight info request.
type Fetch struct {
	ID  string
	URL string
	// Ctx is cancelled as soon as another fetch supersedes this one.
	Ctx context.Context
}

// Session is the single authoritative state of one UI session. It is safe
// for concurrent use so fetch results can land from another goroutine.
type Session struct {
	mu sync.Mutex

	state    State
	tab      Tab
	fetchID  string
	cancel   context.CancelFunc
	url      string
	info     *media.VideoInfo
	selected string
	lastErr  error
	failedAt time.Time

	failureDisplay time.Duration
	now            func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithFailureDisplay sets how long FetchFailed is shown before reverting to Idle.
func WithFailureDisplay(d time.Duration) Option {
	return func(s *Session) { s.failureDisplay = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession returns an Idle session on the video tab.
func NewSession(opts ...Option) *Session {
	s := &Session{
		state:          Idle,
		tab:            TabVideo,
		failureDisplay: DefaultFailureDisplay,
		now:            time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// State returns the current state. FetchFailed turns into Idle once the
// failure display window has passed.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireFailureLocked()
	return s.state
}

// Err returns the error of the last failed fetch while it is displayed.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireFailureLocked()
	if s.state != FetchFailed {
		return nil
	}
	return s.lastErr
}

// BeginFetch starts a fetch for rawURL. Formats and selection are cleared and
// any fetch still in flight is cancelled.
func (s *Session) BeginFetch(parent context.Context, rawURL string) Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)

	s.state = Fetching
	s.fetchID = uuid.NewString()
	s.cancel = cancel
	s.url = strings.TrimSpace(rawURL)
	s.info = nil
	s.selected = ""
	s.lastErr = nil

	return Fetch{ID: s.fetchID, URL: s.url, Ctx: ctx}
}

// CompleteFetch stores the result of fetch f and moves to Ready. Results of
// superseded fetches are dropped with ErrStaleFetch.
func (s *Session) CompleteFetch(f Fetch, info *media.VideoInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID != s.fetchID || s.state != Fetching {
		return ErrStaleFetch
	}
	s.finishLocked()
	s.state = Ready
	s.info = info
	return nil
}

// FailFetch records the failure of fetch f and moves to FetchFailed.
func (s *Session) FailFetch(f Fetch, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f.ID != s.fetchID || s.state != Fetching {
		return ErrStaleFetch
	}
	s.finishLocked()
	s.state = FetchFailed
	s.lastErr = err
	s.failedAt = s.now()
	return nil
}

// Info returns the fetched video while Ready.
func (s *Session) Info() (*media.VideoInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Ready {
		return nil, false
	}
	return s.info, true
}

// Tab returns the active media-kind tab.
func (s *Session) Tab() Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tab
}

// SelectKind switches the media-kind tab. Changing tabs clears the selection,
// since identifiers are not comparable across kinds.
func (s *Session) SelectKind(t Tab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != TabAudio {
		t = TabVideo
	}
	if t != s.tab {
		s.tab = t
		s.selected = ""
	}
}

// Formats returns the formats shown under the active tab, best first.
func (s *Session) Formats() []media.NormalizedFormat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formatsLocked()
}

// Select marks identifier as the current selection.
func (s *Session) Select(identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready {
		return ErrNotReady
	}
	for _, f := range s.formatsLocked() {
		if f.Identifier == identifier {
			s.selected = identifier
			return nil
		}
	}
	return ErrUnknownFormat
}

// Selected returns the selected identifier, or "" when nothing is selected.
func (s *Session) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// DownloadRequest builds the request for the current selection. It does not
// change state.
func (s *Session) DownloadRequest() (media.DownloadRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Ready || s.url == "" || s.selected == "" {
		return media.DownloadRequest{}, ErrNoSelection
	}
	return media.DownloadRequest{
		SourceURL:      s.url,
		Identifier:     s.selected,
		Container:      s.tab.Container(),
		SuggestedTitle: s.info.Title,
	}, nil
}

// DownloadURL returns the download proxy URL for the current selection,
// relative to base (e.g. "http://localhost:8080").
func (s *Session) DownloadURL(base string) (string, error) {
	req, err := s.DownloadRequest()
	if err != nil {
		return "", err
	}
	return BuildDownloadURL(base, req), nil
}

// BuildDownloadURL encodes req as query parameters of base + /api/download.
func BuildDownloadURL(base string, req media.DownloadRequest) string {
	q := url.Values{}
	q.Set("url", req.SourceURL)
	if req.Identifier != "" {
		q.Set("itag", req.Identifier)
	}
	q.Set("format", string(req.Container))
	q.Set("title", req.SuggestedTitle)
	return strings.TrimRight(base, "/") + "/api/download?" + q.Encode()
}

func (s *Session) formatsLocked() []media.NormalizedFormat {
	if s.state != Ready || s.info == nil {
		return nil
	}
	wantVideo := s.tab == TabVideo
	var out []media.NormalizedFormat
	for _, f := range s.info.Formats {
		if f.MediaKind.HasVideo() == wantVideo {
			out = append(out, f)
		}
	}
	return out
}

func (s *Session) finishLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) expireFailureLocked() {
	if s.state == FetchFailed && s.now().Sub(s.failedAt) >= s.failureDisplay {
		s.state = Idle
		s.lastErr = nil
	}
}
