package html

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-dms/inkwell/internal/core/ports/driven"
)

func parse(t *testing.T, content string) *driven.ParseResult {
	t.Helper()
	result, err := New().Parse(context.Background(), &driven.ParseRequest{
		DocID:    "doc-a",
		FileName: "page.html",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	return result
}

func TestParse_SinglePageWithTagsStripped(t *testing.T) {
	result := parse(t, "<p>Hello <b>world</b></p>")
	require.Len(t, result.Pages, 1)
	assert.Equal(t, 1, result.Pages[0].Number)
	assert.Equal(t, "Hello world", result.Pages[0].Content)
}

func TestParse_ScriptAndStyleDropped(t *testing.T) {
	content := `<html><head><title>t</title></head><body>
<script>alert("x")</script>
<style>p { color: red }</style>
<p>visible text</p>
</body></html>`
	result := parse(t, content)
	assert.Contains(t, result.Content, "visible text")
	assert.NotContains(t, result.Content, "alert")
	assert.NotContains(t, result.Content, "color: red")
}

func TestParse_EntitiesUnescaped(t *testing.T) {
	result := parse(t, "<p>fish &amp; chips &lt;now&gt;</p>")
	assert.Equal(t, "fish & chips <now>", result.Content)
}

func TestParse_BlockElementsBecomeLineBreaks(t *testing.T) {
	result := parse(t, "<h1>Title</h1><p>first</p><p>second</p>")
	assert.Contains(t, result.Content, "Title")
	assert.Contains(t, result.Content, "first")
	assert.Contains(t, result.Content, "second")
	assert.NotContains(t, result.Content, "Titlefirst")
}

func TestParse_EmptyDocument(t *testing.T) {
	result := parse(t, "")
	require.Len(t, result.Pages, 1)
	assert.Empty(t, result.Content)
}
