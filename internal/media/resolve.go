package media

import "fmt"

// ResolveStream picks the descriptor to stream for opts.
//
// With an identifier, the descriptor must exist and, for audio-only requests,
// carry audio without video. Without one, QualityHighestAudio picks the
// highest-bitrate audio stream (audio-only preferred) and any other hint picks
// the highest-resolution stream, preferring those with both tracks.
func ResolveStream(formats []RawStreamDescriptor, opts StreamOptions) (RawStreamDescriptor, error) {
	candidates := make([]RawStreamDescriptor, 0, len(formats))
	for _, d := range formats {
		if d.Identifier == "" || (!d.HasVideoTrack && !d.HasAudioTrack) {
			continue
		}
		if opts.AudioOnly && (d.HasVideoTrack || !d.HasAudioTrack) {
			continue
		}
		candidates = append(candidates, d)
	}

	if opts.Identifier != "" {
		for _, d := range candidates {
			if d.Identifier == opts.Identifier {
				return d, nil
			}
		}
		return RawStreamDescriptor{}, fmt.Errorf("%w: no stream with itag %s", ErrFormatUnavailable, opts.Identifier)
	}

	var (
		best  RawStreamDescriptor
		found bool
	)
	better := betterVideo
	if opts.AudioOnly || opts.Quality == QualityHighestAudio {
		better = betterAudio
	}
	for _, d := range candidates {
		if !found || better(d, best) {
			best, found = d, true
		}
	}
	if !found {
		return RawStreamDescriptor{}, fmt.Errorf("%w: no stream matches quality %q", ErrFormatUnavailable, opts.Quality)
	}
	return best, nil
}

func betterVideo(a, b RawStreamDescriptor) bool {
	if a.HasVideoTrack != b.HasVideoTrack {
		return a.HasVideoTrack
	}
	if a.HasAudioTrack != b.HasAudioTrack {
		return a.HasAudioTrack
	}
	ha, _ := leadingNumber(a.QualityLabel)
	hb, _ := leadingNumber(b.QualityLabel)
	if ha != hb {
		return ha > hb
	}
	return a.AudioBitrateKbps > b.AudioBitrateKbps
}

func betterAudio(a, b RawStreamDescriptor) bool {
	if a.HasAudioTrack != b.HasAudioTrack {
		return a.HasAudioTrack
	}
	if a.HasVideoTrack != b.HasVideoTrack {
		return !a.HasVideoTrack
	}
	return a.AudioBitrateKbps > b.AudioBitrateKbps
}
