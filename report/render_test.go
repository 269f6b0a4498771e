package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yuga-i2/DOCUFORGE-AI/report"
)

func TestRenderHTML(t *testing.T) {
	t.Parallel()

	md := "# Findings\n\nRevenue grew **12%** this quarter.\n\n- north region\n- south region"
	html := report.RenderHTML(md)

	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "Findings")
	assert.Contains(t, html, "<strong>12%</strong>")
	assert.Contains(t, html, "<li>north region</li>")
}

func TestRenderHTMLSanitizesScripts(t *testing.T) {
	t.Parallel()

	md := "safe text\n\n<script>alert('xss')</script>\n\n<img src=x onerror=alert(1)>"
	html := report.RenderHTML(md)

	assert.NotContains(t, html, "<script")
	assert.NotContains(t, html, "onerror")
	assert.Contains(t, html, "safe text")
}

func TestRenderHTMLTables(t *testing.T) {
	t.Parallel()

	md := "| region | revenue |\n|---|---|\n| north | 120 |"
	html := report.RenderHTML(md)

	assert.Contains(t, html, "<table>")
	assert.Contains(t, html, "<td>north</td>")
}

func TestRenderHTMLLinksOpenInNewTab(t *testing.T) {
	t.Parallel()

	html := report.RenderHTML("[source](https://example.com/report)")
	assert.Contains(t, html, `href="https://example.com/report"`)
	assert.Contains(t, html, `target="_blank"`)
}
