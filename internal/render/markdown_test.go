package render

import (
	"strings"
	"testing"
)

func TestRenderMarkdown(t *testing.T) {
	r := New()

	out := r.Render("**bold** and `code`")
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("Expected strong tag, got %q", out)
	}
	if !strings.Contains(out, "<code>code</code>") {
		t.Errorf("Expected code tag, got %q", out)
	}
}

func TestRenderStripsScripts(t *testing.T) {
	r := New()

	out := r.Render("hi <script>alert(1)</script>")
	if strings.Contains(out, "<script") {
		t.Errorf("Expected script to be removed, got %q", out)
	}

	out = r.Render("[x](javascript:alert(1))")
	if strings.Contains(out, "javascript:") {
		t.Errorf("Expected javascript link to be removed, got %q", out)
	}
}

func TestRenderExternalLinks(t *testing.T) {
	r := New()

	out := r.Render("see https://example.com")
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Errorf("Expected autolink, got %q", out)
	}
	if !strings.Contains(out, "noreferrer") {
		t.Errorf("Expected noreferrer on external link, got %q", out)
	}
}

func TestRenderPlaceholder(t *testing.T) {
	r := New()

	out := r.Render("该评论已删除")
	if strings.TrimSpace(out) != "<p>该评论已删除</p>" {
		t.Errorf("Unexpected placeholder rendering: %q", out)
	}
}
