package media

// MediaKind classifies a stream by the tracks it carries.
type MediaKind string

const (
	VideoOnly     MediaKind = "video"
	AudioOnly     MediaKind = "audio"
	VideoAndAudio MediaKind = "video+audio"
)

// HasVideo reports whether streams of this kind carry a video track.
func (k MediaKind) HasVideo() bool {
	return k == VideoOnly || k == VideoAndAudio
}

// ContainerKind is the container the client asked to save the download as.
type ContainerKind string

const (
	ContainerVideo ContainerKind = "mp4"
	ContainerAudio ContainerKind = "mp3"
)

// ParseContainerKind maps the "format" query value to a ContainerKind.
// Anything other than "mp3" is treated as a video download.
func ParseContainerKind(s string) ContainerKind {
	if s == string(ContainerAudio) {
		return ContainerAudio
	}
	return ContainerVideo
}

// Extension returns the file extension used for the download filename.
func (c ContainerKind) Extension() string {
	if c == ContainerAudio {
		return "mp3"
	}
	return "mp4"
}

// ContentType returns the Content-Type sent with the download.
// The proxy does not transcode, so this is a label chosen by the client, not the real container.
func (c ContainerKind) ContentType() string {
	if c == ContainerAudio {
		return "audio/mp3"
	}
	return "video/mp4"
}

// RawStreamDescriptor is one stream variant as reported by the extraction library.
// Zero values mean "not reported", except ApproxByteSize where nil means unknown.
type RawStreamDescriptor struct {
	Identifier       string
	HasVideoTrack    bool
	HasAudioTrack    bool
	Container        string
	QualityLabel     string
	AudioBitrateKbps int
	FrameRate        int
	ApproxByteSize   *int64
}

// Thumbnail is a preview image offered by the extraction library.
type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// RawVideoInfo is the metadata document returned by the extraction library.
type RawVideoInfo struct {
	Title           string
	Author          string
	DurationSeconds int
	Thumbnails      []Thumbnail
	Formats         []RawStreamDescriptor
}

// NormalizedFormat is the client-facing description of one downloadable stream.
type NormalizedFormat struct {
	Identifier   string    `json:"itag"`
	MediaKind    MediaKind `json:"mediaKind"`
	QualityLabel string    `json:"quality"`
	Container    string    `json:"container"`
	SizeLabel    string    `json:"size"`
	FrameRate    int       `json:"fps,omitempty"`

	// Ordering only; never sent to clients.
	SortKey    int  `json:"-"`
	hasSortKey bool
}

// VideoSummary is the per-fetch metadata shown next to the format picker.
type VideoSummary struct {
	Title           string `json:"title"`
	ThumbnailURL    string `json:"thumbnail"`
	DurationSeconds int    `json:"duration"`
	AuthorName      string `json:"author,omitempty"`
}

// VideoInfo is the Info Service response: the summary plus all formats,
// video-bearing entries first, then audio-only entries.
type VideoInfo struct {
	VideoSummary
	Formats []NormalizedFormat `json:"formats"`
}

// DownloadRequest is built by the client at click time and consumed by the Download Proxy.
type DownloadRequest struct {
	SourceURL      string
	Identifier     string
	Container      ContainerKind
	SuggestedTitle string
}

// Quality hints understood by StreamOptions when no identifier is given.
const (
	QualityHighest      = "highest"
	QualityHighestAudio = "highestaudio"
)

// StreamOptions selects the stream opened by Extractor.OpenStream.
// Identifier wins over Quality when both are set.
type StreamOptions struct {
	Identifier string
	Quality    string
	AudioOnly  bool
}
