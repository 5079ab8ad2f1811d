package login

import "strings"

// cookieWarningPrefix opens every genuine .ROBLOSECURITY value.
const cookieWarningPrefix = "_|WARNING:-DO-NOT-SHARE-THIS"

const (
	previewHead = 50
	previewTail = 10
)

// NormalizeCookie cleans a pasted cookie and validates its shape. Surrounding
// whitespace and quotes survive most copy-paste routes, so they are stripped
// before the prefix check.
func NormalizeCookie(raw string) (string, error) {
	cookie := strings.TrimSpace(raw)
	cookie = strings.Trim(cookie, `"'`)

	if !strings.HasPrefix(cookie, cookieWarningPrefix) {
		return "", ErrInvalidCookie
	}

	return cookie, nil
}

// PreviewToken redacts a session token for display, keeping enough of both
// ends to recognize it without exposing the whole value.
func PreviewToken(token string) string {
	if len(token) <= previewHead+previewTail {
		return token
	}
	return token[:previewHead] + "..." + token[len(token)-previewTail:]
}
