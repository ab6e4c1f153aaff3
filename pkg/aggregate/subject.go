package aggregate

import "strings"

const (
	asciiColon     = ":"
	fullwidthColon = "："
)

// SubjectCategory returns the trimmed text before the first colon of subject.
// The ASCII colon wins over the fullwidth one; NoneLabel when neither occurs.
func SubjectCategory(subject string) string {
	for _, sep := range []string{asciiColon, fullwidthColon} {
		if i := strings.Index(subject, sep); i >= 0 {
			return strings.TrimSpace(subject[:i])
		}
	}
	return NoneLabel
}
