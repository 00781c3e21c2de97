package api

import "github.com/gabriel-vasile/mimetype"

var acceptedUploadTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// detectUploadType sniffs the content and reports its MIME type when it is one
// of the accepted document formats. The client supplied Content-Type is ignored.
func detectUploadType(body []byte) (string, bool) {
	if len(body) == 0 {
		return "", false
	}
	detected := mimetype.Detect(body)
	for _, accepted := range acceptedUploadTypes {
		if detected.Is(accepted) {
			return accepted, true
		}
	}
	return "", false
}
