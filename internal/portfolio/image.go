package portfolio

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes caps the decoded size of an embedded profile image.
const MaxImageBytes = 5 << 20

var (
	ErrImageTooLarge   = errors.New("embedded image exceeds 5 MB")
	ErrNotAnImage      = errors.New("embedded data is not an image")
	ErrInvalidImageRef = errors.New("profile image must be an http(s) URL or a base64 image data URI")
)

// CheckProfileImage accepts an empty reference, an http(s) URL, or a
// "data:image/<type>;base64," URI whose payload decodes to an image of at
// most MaxImageBytes.
func CheckProfileImage(ref string) error {
	if ref == "" {
		return nil
	}
	if rest, ok := strings.CutPrefix(ref, "data:"); ok {
		return checkDataURI(rest)
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidImageRef
	}
	return nil
}

func checkDataURI(rest string) error {
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasPrefix(meta, "image/") || !strings.HasSuffix(meta, ";base64") {
		return ErrInvalidImageRef
	}
	// Padding makes DecodedLen overshoot by at most two bytes.
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return ErrImageTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidImageRef
	}
	if len(data) > MaxImageBytes {
		return ErrImageTooLarge
	}
	if !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return ErrNotAnImage
	}
	return nil
}
