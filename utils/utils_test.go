package utils

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	tests := map[string]string{
		"Hello World":            "hello-world",
		"  Édition spéciale!! ":  "edition-speciale",
		"Video Editing / Motion": "video-editing-motion",
		"---":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, GenerateSlug(in), in)
	}
}

func TestMergeLists(t *testing.T) {
	got := MergeLists([]string{"a", "b", "c", "a"}, []string{"b"}, []string{"c", "d"})
	assert.Equal(t, []string{"a", "c", "d"}, got)
	assert.Equal(t, []string{"x"}, IntersectStrings([]string{"x", "y"}, []string{"x", "z"}))
}

func TestNormalizeLabels(t *testing.T) {
	got := NormalizeLabels([]string{" Go ", "go", "Motion  Graphics", "", "After Effects"})
	assert.Equal(t, []string{"go", "motion graphics", "after effects"}, got)
}

func TestParsePagination(t *testing.T) {
	limits := QueryLimits{Default: 20, Max: 50}
	p := ParsePagination("3", "10", limits)
	assert.Equal(t, Pagination{Page: 3, Limit: 10}, p)
	assert.Equal(t, int64(20), p.Skip())

	assert.Equal(t, Pagination{Page: 1, Limit: 20}, ParsePagination("-1", "500", limits))
	assert.Equal(t, Pagination{Page: 1, Limit: 20}, ParsePagination("x", "", limits))

	huge := ParsePagination("922337203685477581", "20", limits)
	assert.Equal(t, MaxPage, huge.Page)
	assert.Equal(t, int64(MaxPage-1)*20, huge.Skip())
	assert.Positive(t, huge.Skip())
}

func TestParseBoolQuery(t *testing.T) {
	b, err := ParseBoolQuery("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseBoolQuery("true")
	require.NoError(t, err)
	assert.True(t, *b)

	_, err = ParseBoolQuery("nope")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NoError(t, CheckPassword(hash, "s3cret-pass"))
	assert.Error(t, CheckPassword(hash, "wrong"))
}

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := GenerateAccessToken("secret", "user-1", "a@b.test", "ADMIN", time.Minute)
	require.NoError(t, err)

	claims, err := ValidateToken(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)

	_, err = ValidateToken(tok, "other-secret")
	assert.Error(t, err)

	expired, err := GenerateAccessToken("secret", "user-1", "a@b.test", "ADMIN", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateToken(expired, "secret")
	assert.Error(t, err)
}

func TestOpaqueToken(t *testing.T) {
	a, err := NewOpaqueToken()
	require.NoError(t, err)
	b, err := NewOpaqueToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, HashToken(a), 64)
	assert.Equal(t, HashToken(a), HashToken(a))

	keyed := HashTokenWithKey("k1", a)
	assert.Len(t, keyed, 64)
	assert.NotEqual(t, keyed, HashTokenWithKey("k2", a))
	assert.NotEqual(t, keyed, HashToken(a))
}

func TestParseBudget(t *testing.T) {
	lo, hi, err := ParseBudget("100", "250.5")
	require.NoError(t, err)
	assert.Equal(t, "100.00", lo)
	assert.Equal(t, "250.50", hi)

	lo, hi, err = ParseBudget("40", "")
	require.NoError(t, err)
	assert.Equal(t, lo, hi)

	_, _, err = ParseBudget("300", "200")
	assert.Error(t, err)
	_, _, err = ParseBudget("-1", "")
	assert.Error(t, err)
	_, _, err = ParseBudget("abc", "")
	assert.Error(t, err)

	assert.Equal(t, 12.5, AmountFloat("12.50"))
}

func TestParseAmountKeepsCents(t *testing.T) {
	for in, want := range map[string]string{"12.34": "12.34", " 7 ": "7.00", "12.340": "12.34", "0": "0.00"} {
		got, err := ParseAmount(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	for _, in := range []string{"0.004", "12.345", "1e-3"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, in)
	}
	_, _, err := ParseBudget("10", "10.999")
	assert.ErrorContains(t, err, "budgetMax")
}

func formFile(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(10<<20))
	return req.MultipartForm.File["file"][0]
}

func TestFileValidator(t *testing.T) {
	v := NewFileValidator([]string{".pdf", "png", ".mp4"}, []string{"application/pdf", "image/png"}, 1, 2)

	mime, err := v.ValidateFile(formFile(t, "doc.pdf", []byte("%PDF-1.4 test document")))
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", mime)

	_, err = v.ValidateFile(formFile(t, "doc.exe", []byte("MZ")))
	assert.EqualError(t, err, "invalid file extension")

	_, err = v.ValidateFile(formFile(t, "fake.png", []byte("plain text pretending")))
	assert.EqualError(t, err, "invalid file type")

	_, err = v.ValidateFile(formFile(t, "big.pdf", bytes.Repeat([]byte("a"), 2<<20)))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestIsVideo(t *testing.T) {
	assert.True(t, IsVideo("clip.mov", "application/octet-stream"))
	assert.True(t, IsVideo("clip.bin", "video/mp4"))
	assert.False(t, IsVideo("doc.pdf", "application/pdf"))
}

func TestRefreshCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SetRefreshCookie(c, CookieOptions{Secure: true}, "tok", time.Hour)
	cookie := w.Result().Cookies()[0]
	assert.Equal(t, RefreshCookieName, cookie.Name)
	assert.Equal(t, "tok", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 3600, cookie.MaxAge)
}
