package media

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const unknownLabel = "Unknown"

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// Classify derives the MediaKind of a descriptor. ok is false for descriptors
// carrying neither track; those are never surfaced.
func Classify(d RawStreamDescriptor) (kind MediaKind, ok bool) {
	switch {
	case d.HasVideoTrack && d.HasAudioTrack:
		return VideoAndAudio, true
	case d.HasVideoTrack:
		return VideoOnly, true
	case d.HasAudioTrack:
		return AudioOnly, true
	default:
		return "", false
	}
}

// QualityLabel returns the video quality label when present, "<bitrate>kbps"
// for streams with audio, and "Unknown" otherwise.
func QualityLabel(d RawStreamDescriptor) string {
	if l := strings.TrimSpace(d.QualityLabel); l != "" {
		return l
	}
	if d.HasAudioTrack && d.AudioBitrateKbps > 0 {
		return strconv.Itoa(d.AudioBitrateKbps) + "kbps"
	}
	return unknownLabel
}

// FormatSize renders a byte count using the largest unit of Bytes, KB, MB, GB
// that keeps the value at or above 1, rounded to two decimals with trailing
// zeros dropped: 0 -> "0 Bytes", 1024 -> "1 KB", 50000000 -> "47.68 MB".
func FormatSize(bytes int64) string {
	if bytes < 0 {
		return unknownLabel
	}
	if bytes == 0 {
		return "0 Bytes"
	}

	v := float64(bytes)
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[unit]
}

// SizeLabel formats an optional byte count.
func SizeLabel(size *int64) string {
	if size == nil {
		return unknownLabel
	}
	return FormatSize(*size)
}

// FormatDuration renders seconds as m:ss, or h:mm:ss for an hour or more.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// leadingNumber returns the first run of digits in s ("1080p60" -> 1080).
func leadingNumber(s string) (int, bool) {
	start := strings.IndexFunc(s, isDigit)
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(s) && isDigit(rune(s[end])) {
		end++
	}
	n, err := strconv.Atoi(s[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// sortKey is the resolution height for video-bearing entries and the bitrate
// for audio-only entries.
func sortKey(kind MediaKind, d RawStreamDescriptor) (int, bool) {
	if kind.HasVideo() {
		return leadingNumber(d.QualityLabel)
	}
	if d.AudioBitrateKbps > 0 {
		return d.AudioBitrateKbps, true
	}
	return 0, false
}

// Normalize classifies one descriptor. ok is false when the descriptor must
// be dropped: no tracks, or no identifier to request it by.
func Normalize(d RawStreamDescriptor) (f NormalizedFormat, ok bool) {
	if strings.TrimSpace(d.Identifier) == "" {
		return NormalizedFormat{}, false
	}
	kind, ok := Classify(d)
	if !ok {
		return NormalizedFormat{}, false
	}

	key, hasKey := sortKey(kind, d)
	container := strings.TrimSpace(d.Container)
	if container == "" {
		container = unknownLabel
	}

	return NormalizedFormat{
		Identifier:   d.Identifier,
		MediaKind:    kind,
		QualityLabel: QualityLabel(d),
		Container:    container,
		SizeLabel:    SizeLabel(d.ApproxByteSize),
		FrameRate:    d.FrameRate,
		SortKey:      key,
		hasSortKey:   hasKey,
	}, true
}

// SortFormats orders formats in place by SortKey descending. Entries without a
// parseable key go last; ties keep their input order.
func SortFormats(formats []NormalizedFormat) {
	sort.SliceStable(formats, func(i, j int) bool {
		a, b := formats[i], formats[j]
		if a.hasSortKey != b.hasSortKey {
			return a.hasSortKey
		}
		return a.SortKey > b.SortKey
	})
}

// NormalizeFormats classifies every descriptor, drops the unusable ones and
// returns video-bearing formats followed by audio-only formats, each group
// sorted with SortFormats. Duplicate identifiers keep their first occurrence.
func NormalizeFormats(raw []RawStreamDescriptor) []NormalizedFormat {
	seen := make(map[string]struct{}, len(raw))
	var video, audio []NormalizedFormat

	for _, d := range raw {
		f, ok := Normalize(d)
		if !ok {
			continue
		}
		if _, dup := seen[f.Identifier]; dup {
			continue
		}
		seen[f.Identifier] = struct{}{}

		if f.MediaKind.HasVideo() {
			video = append(video, f)
		} else {
			audio = append(audio, f)
		}
	}

	SortFormats(video)
	SortFormats(audio)

	out := make([]NormalizedFormat, 0, len(video)+len(audio))
	out = append(out, video...)
	return append(out, audio...)
}

// BestThumbnail returns the URL of the largest thumbnail by pixel area. When
// no dimensions are reported the last entry wins, matching the library's
// smallest-to-largest ordering.
func BestThumbnail(thumbs []Thumbnail) string {
	best := -1
	bestArea := -1
	for i, t := range thumbs {
		if t.URL == "" {
			continue
		}
		area := t.Width * t.Height
		if area >= bestArea {
			best, bestArea = i, area
		}
	}
	if best < 0 {
		return ""
	}
	return thumbs[best].URL
}
