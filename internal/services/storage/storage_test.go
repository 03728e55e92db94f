package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	assert.Equal(t, "1700000000123-report.pdf", ObjectKey(now, "report.pdf"))
	assert.Equal(t, "1700000000123-my_essay_v2.docx", ObjectKey(now, "my essay v2.docx"))
	assert.Equal(t, "1700000000123-passwd", ObjectKey(now, "../../etc/passwd"))
	assert.Equal(t, "1700000000123-file", ObjectKey(now, ""))
}

func TestLinks(t *testing.T) {
	t.Run("public", func(t *testing.T) {
		l := Links{PublicURL: "https://cdn.example.com/uploads/"}
		u, err := l.URLFor("1-a.pdf")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/uploads/1-a.pdf", u)
	})

	t.Run("sealed", func(t *testing.T) {
		l := Links{Secret: "s3cret"}
		u, err := l.URLFor("1-a.pdf")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(u, "/api/files/"))
		assert.NotContains(t, u, "a.pdf")

		key, err := l.KeyOf(strings.TrimPrefix(u, "/api/files/"))
		require.NoError(t, err)
		assert.Equal(t, "1-a.pdf", key)

		_, err = Links{Secret: "other"}.KeyOf(strings.TrimPrefix(u, "/api/files/"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
