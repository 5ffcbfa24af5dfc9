package logging

// TruncateURI shortens a URI for log output. Playback URIs can embed long
// query strings or data blobs that would swamp a log line.
func TruncateURI(uri string, max int) string {
	if len(uri) <= max {
		return uri
	}
	if max <= 3 {
		return uri[:max]
	}
	return uri[:max-3] + "..."
}
