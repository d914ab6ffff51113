package validation

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the 8-byte PNG signature followed by an IHDR chunk start.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Ada <ada@example.com>"))
	assert.Error(t, ValidateEmail(strings.Repeat("a", 250)+"@b.co"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ada@example.com", NormalizeEmail("  Ada@Example.COM "))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("correct horse battery"))
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword(strings.Repeat("x", 73)))
	assert.Error(t, ValidatePassword("MyPassword2024"))
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Ada"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("é", 101)))
}

func TestProjectFields(t *testing.T) {
	assert.NoError(t, ValidateProjectTitle("Engine"))
	assert.Error(t, ValidateProjectTitle(" "))
	assert.Error(t, ValidateProjectTitle(strings.Repeat("t", 101)))
	assert.NoError(t, ValidateProjectDescription(strings.Repeat("d", 500)))
	assert.Error(t, ValidateProjectDescription(strings.Repeat("d", 501)))
	assert.Error(t, ValidateTechnologies(nil))
	assert.NoError(t, ValidateTechnologies([]string{"go"}))
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("githubUrl", "https://github.com/ada"))
	assert.Error(t, ValidateURL("githubUrl", "github.com/ada"))
	assert.Error(t, ValidateURL("liveUrl", "javascript:alert(1)"))
}

func TestValidateFile(t *testing.T) {
	mime, err := ValidateFile(fileHeader(t, "me.png", pngHeader), ImageConstraints)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidateFile(fileHeader(t, "me.txt", pngHeader), ImageConstraints)
	assert.ErrorContains(t, err, "extension")

	_, err = ValidateFile(fileHeader(t, "me.png", []byte("plain text pretending")), ImageConstraints)
	assert.ErrorContains(t, err, "invalid file type")

	small := ImageConstraints
	small.MaxSize = 4
	_, err = ValidateFile(fileHeader(t, "me.png", pngHeader), small)
	assert.ErrorContains(t, err, "too large")
}
