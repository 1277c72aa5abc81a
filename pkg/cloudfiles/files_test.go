package cloudfiles_test

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutFileAndGetFile(t *testing.T) {
	c, m := newContainer(t, "docs")
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/report.json", []byte(`{"ok":true}`), 0o644))

	etag, err := c.PutFile(ctx, fs, "/src/report.json", "", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, etag)
	assert.Equal(t, "application/json", m.ContentType("docs", "report.json"))

	n, err := c.GetFile(ctx, fs, "report.json", "/dst/nested/report.json")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	data, err := afero.ReadFile(fs, "/dst/nested/report.json")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(data))
}

func TestPutFileMissingSource(t *testing.T) {
	c, m := newContainer(t, "docs")
	_, err := c.PutFile(context.Background(), afero.NewMemMapFs(), "/nope.txt", "nope.txt", nil)
	require.Error(t, err)
	assert.Empty(t, m.Requests())
}
