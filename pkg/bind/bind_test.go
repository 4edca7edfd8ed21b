package bind

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/config"
)

type loginBody struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestJSONValidationErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`))
	var in loginBody
	errs, err := JSON(req, &in)
	require.NoError(t, err)
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
}

func TestJSONMalformed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`))
	var in loginBody
	_, err := JSON(req, &in)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestJSONTooLarge(t *testing.T) {
	config.Set("MAX_BODY_BYTES", "16")
	t.Cleanup(func() { config.Set("MAX_BODY_BYTES", "") })

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"john@example.com","password":"x"}`))
	var in loginBody
	_, err := JSON(req, &in)
	assert.ErrorContains(t, err, "too large")
}

func multipartRequest(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestFile(t *testing.T) {
	req := multipartRequest(t, "image", "bowl.png", []byte("png-bytes"))
	f, hdr, err := File(req, "image")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "bowl.png", hdr.Filename)
}

func TestFileMissingField(t *testing.T) {
	req := multipartRequest(t, "other", "bowl.png", []byte("png-bytes"))
	_, _, err := File(req, "image")
	assert.ErrorIs(t, err, ErrNoFile)
}
