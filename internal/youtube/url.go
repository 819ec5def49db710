package youtube

import "regexp"

// Known YouTube URL shapes, checked in order. The first pattern covers the
// canonical watch URL, the youtu.be shortlink, and embed URLs; the second
// catches watch URLs where v= is not the first query parameter.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
	regexp.MustCompile(`youtube\.com/watch\?.*v=([^&\n?#]+)`),
}

// ExtractVideoID pulls the video identifier out of a YouTube URL.
// The second return is false when the URL matches no known shape;
// that is a client input problem, not an error.
func ExtractVideoID(url string) (string, bool) {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}
