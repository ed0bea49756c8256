package imageutils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	ProfilePhotoName        = "profile.jpg"
	ProfilePhotoContentType = "image/jpeg"
)

var ErrEmptyImage = errors.New("inline image is empty")

var dataURLPrefix = regexp.MustCompile(`^data:image/[\w.+-]+;base64,`)

// DecodeInlineImage turns a base64 image, optionally wrapped as a data URL,
// into raw bytes. Padded and unpadded encodings are both accepted.
func DecodeInlineImage(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	s = dataURLPrefix.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', ' ', '\t':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return nil, ErrEmptyImage
	}

	enc := base64.StdEncoding
	if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	if strings.ContainsAny(s, "-_") {
		enc = base64.URLEncoding
		if !strings.HasSuffix(s, "=") && len(s)%4 != 0 {
			enc = base64.RawURLEncoding
		}
	}
	data, err := enc.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode inline image: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return data, nil
}

// EncodeInlineImage is the inverse of DecodeInlineImage without the data URL prefix.
func EncodeInlineImage(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
