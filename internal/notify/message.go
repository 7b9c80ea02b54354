package notify

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"dts-converter/internal/jobs"
)

const (
	// maxDetailRunes keeps long ffmpeg diagnostics well under the message limit.
	maxDetailRunes = 3000
	maxPathRunes   = 512
)

// Outcome formats the message announcing that the job for path reached
// state. Detail is appended for states that carry one. The result is valid
// Telegram HTML and never exceeds maxMessageRunes.
func Outcome(path string, state jobs.State, detail string) string {
	code := "<code>" + escapeRunes(path, maxPathRunes) + "</code>"

	switch state {
	case jobs.StateNotAVideoFile:
		return fmt.Sprintf("<b>Conversion finished</b> for %s: not a video file", code)
	case jobs.StateNoTargetTracks:
		return fmt.Sprintf("<b>Conversion finished</b> for %s: no track to convert", code)
	case jobs.StateConversionSucceeded:
		return fmt.Sprintf("<b>Conversion succeeded</b> for %s", code)
	case jobs.StateConversionFailed:
		return withDetail(fmt.Sprintf("<b>Conversion failed</b> for %s", code), detail)
	case jobs.StateInternalError:
		return withDetail(fmt.Sprintf("<b>Conversion error</b> for %s", code), detail)
	default:
		return fmt.Sprintf("<b>Conversion %s</b> for %s", html.EscapeString(state.String()), code)
	}
}

func withDetail(head, detail string) string {
	const open, closing = ": <pre>", "</pre>"
	if detail == "" {
		return head
	}
	budget := min(maxDetailRunes, maxMessageRunes-utf8.RuneCountInString(head)-len(open)-len(closing))
	if budget <= 0 {
		return head
	}
	return head + open + escapeRunes(detail, budget) + closing
}

// escapeRunes HTML-escapes s and shortens the escaped text to at most limit
// runes. An entity is never split.
func escapeRunes(s string, limit int) string {
	escaped := html.EscapeString(s)
	if utf8.RuneCountInString(escaped) <= limit {
		return escaped
	}
	cut := string([]rune(escaped)[:limit-1])
	if amp := strings.LastIndexByte(cut, '&'); amp >= 0 && !strings.Contains(cut[amp:], ";") {
		cut = cut[:amp]
	}
	return cut + "…"
}
