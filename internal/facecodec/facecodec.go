// Package facecodec converts face templates between their binary at-rest form and the
// Base64 text used on the wire to the recognizer.
package facecodec

import (
	"encoding/base64"
	"strings"

	"github.com/example/face-attendance/internal/apperror"
)

// DecodeTemplate turns a Base64 template into raw bytes.
func DecodeTemplate(encoded string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, apperror.Wrap(apperror.KindDecode, err, "face template is not valid base64")
	}
	return data, nil
}

// EncodeTemplate turns raw template bytes into Base64.
func EncodeTemplate(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
