// Package attach converts raw attachment bytes to and from the textual
// encoding embedded in persisted posts.
package attach

import (
	"encoding/base64"
	"errors"
)

// ErrMalformed is returned by Decode when the payload is not valid base64.
var ErrMalformed = errors.New("attach: malformed base64 payload")

// Encode returns the standard base64 encoding of content.
func Encode(content []byte) string {
	return base64.StdEncoding.EncodeToString(content)
}

// Decode is the exact inverse of Encode.
func Decode(encoded string) ([]byte, error) {
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformed
	}
	return content, nil
}

// DataURI builds a self-describing inline resource string for an already
// encoded payload, e.g. "data:image/png;base64,iVBOR...".
func DataURI(mimetype, encoded string) string {
	return "data:" + mimetype + ";base64," + encoded
}
