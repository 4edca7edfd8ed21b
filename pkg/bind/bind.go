// Package bind decodes and validates request input.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// ErrNoFile is returned by File when the form has no such field.
var ErrNoFile = errors.New("no file uploaded")

// maxBodyBytes returns the configured request body size limit (default 4 MB).
func maxBodyBytes() int64 {
	return sizeSetting("MAX_BODY_BYTES", 4<<20)
}

// maxUploadBytes caps multipart uploads (default 5 MB).
func maxUploadBytes() int64 {
	return sizeSetting("MAX_UPLOAD_BYTES", 5<<20)
}

func sizeSetting(key string, def int64) int64 {
	n, err := strconv.ParseInt(config.Get(key, strconv.FormatInt(def, 10)), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// JSON decodes r.Body as JSON into dest and runs validation.
// Returns (errs, nil) when there are validation failures and (nil, err)
// when the body is malformed or larger than MAX_BODY_BYTES.
func JSON(r *http.Request, dest any) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err = json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

// File parses a multipart body capped at MAX_UPLOAD_BYTES and returns the
// named file field. The caller closes the file.
func File(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	limit := maxUploadBytes()
	r.Body = http.MaxBytesReader(nil, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, fmt.Errorf("upload too large (max %d bytes)", maxErr.Limit)
		}
		return nil, nil, fmt.Errorf("invalid multipart form: %w", err)
	}

	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, ErrNoFile
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", field, err)
	}
	return f, hdr, nil
}
