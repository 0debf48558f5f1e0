package handlers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/example/face-attendance/internal/recognizer"
)

// MaxUploadSize is the default limit for an uploaded face photo.
const MaxUploadSize = 5 << 20

// multipartOverhead is the allowance for multipart boundaries and headers on top of the
// image itself.
const multipartOverhead = 64 << 10

const imageField = "image"

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

type uploadError struct {
	status  int
	message string
}

func (e *uploadError) Error() string { return e.message }

// readImage reads the image part of a multipart request, enforcing the size limit. Both
// the declared part type and the sniffed payload must be JPEG or PNG. The sniffed type is
// what gets forwarded.
func readImage(c *gin.Context, maxBytes int64) (recognizer.Image, *uploadError) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, err := c.FormFile(imageField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return recognizer.Image{}, tooLargeError()
		}
		return recognizer.Image{}, &uploadError{status: http.StatusBadRequest, message: "image file is required"}
	}
	if file.Size > maxBytes {
		return recognizer.Image{}, tooLargeError()
	}

	if !allowedImageTypes[declaredContentType(file)] {
		return recognizer.Image{}, unsupportedTypeError()
	}

	src, err := file.Open()
	if err != nil {
		return recognizer.Image{}, &uploadError{status: http.StatusBadRequest, message: "unable to open image"}
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return recognizer.Image{}, &uploadError{status: http.StatusInternalServerError, message: "failed to read image"}
	}

	contentType := sniffContentType(data)
	if !allowedImageTypes[contentType] {
		return recognizer.Image{}, unsupportedTypeError()
	}

	return recognizer.Image{Data: data, Filename: file.Filename, ContentType: contentType}, nil
}

func unsupportedTypeError() *uploadError {
	return &uploadError{status: http.StatusUnsupportedMediaType, message: "only JPEG and PNG images are supported"}
}

func tooLargeError() *uploadError {
	return &uploadError{status: http.StatusRequestEntityTooLarge, message: "image exceeds the maximum upload size"}
}

// sniffContentType looks at the first 512 bytes only, as http.DetectContentType does.
func sniffContentType(data []byte) string {
	if len(data) > 512 {
		data = data[:512]
	}
	mediaType, _, err := mime.ParseMediaType(http.DetectContentType(data))
	if err != nil {
		return ""
	}
	return mediaType
}

func declaredContentType(file *multipart.FileHeader) string {
	mediaType, _, err := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}
