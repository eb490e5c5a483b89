package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_SupportedMIMETypes(t *testing.T) {
	assert.Contains(t, New().SupportedMIMETypes(), "text/markdown")
}

func TestExtractor_Resume(t *testing.T) {
	md := "# Jane Doe\n\n" +
		"> Backend engineer, **10 years** of experience.\n\n" +
		"## Skills\n\n" +
		"* Go\n" +
		"* `PostgreSQL`\n\n" +
		"---\n\n" +
		"See [my blog](https://example.com) ![avatar](me.png)\n\n\n\n" +
		"```\nfmt.Println(\"hi\")\n```\n"

	text, err := New().Extract(context.Background(), []byte(md))
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe\n\nBackend engineer, 10 years of experience.\n\nSkills\n\n- Go\n- PostgreSQL\n\nSee my blog\n\nfmt.Println(\"hi\")", text)
}

func TestExtractor_KeepsSnakeCase(t *testing.T) {
	text, err := New().Extract(context.Background(), []byte("Worked on job_matcher and _italic_ text"))
	require.NoError(t, err)
	assert.Equal(t, "Worked on job_matcher and italic text", text)
}
