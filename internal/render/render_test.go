package render

import (
	"strings"
	"testing"
)

func TestMessage_StampSubstitution(t *testing.T) {
	out := Message(":stamp_3")
	if !strings.Contains(out, `<img src="/stamps/3.png"`) {
		t.Errorf("Message(:stamp_3) = %q, want img reference to stamp asset 3", out)
	}
	if strings.Contains(out, ":stamp_3") {
		t.Errorf("Message(:stamp_3) kept literal token: %q", out)
	}
}

func TestMessage_UnknownStampStaysLiteral(t *testing.T) {
	out := Message(":stamp_99")
	if strings.Contains(out, "<img") {
		t.Errorf("unknown stamp rendered as image: %q", out)
	}
	if !strings.Contains(out, ":stamp_99") {
		t.Errorf("unknown stamp token lost: %q", out)
	}
}

func TestMessage_StampInsideText(t *testing.T) {
	out := Message("good morning :stamp_1 everyone")
	if !strings.Contains(out, `/stamps/1.png`) {
		t.Errorf("inline stamp not substituted: %q", out)
	}
	if !strings.Contains(out, "good morning") {
		t.Errorf("surrounding text lost: %q", out)
	}
}

func TestMessage_MarkdownRendered(t *testing.T) {
	out := Message("hello **world**")
	if !strings.Contains(out, "<strong>world</strong>") {
		t.Errorf("bold markup not rendered: %q", out)
	}
}

// Raw HTML in user text must be escaped, not passed through: message
// text is untrusted and rendering it unescaped would be an injection
// vector.
func TestMessage_RawHTMLEscaped(t *testing.T) {
	out := Message(`<script>alert("x")</script>`)
	if strings.Contains(out, "<script>") {
		t.Errorf("raw HTML passed through unescaped: %q", out)
	}
}

func TestStampAsset(t *testing.T) {
	src, ok := StampAsset("poop")
	if !ok || src != "/stamps/poop.png" {
		t.Errorf("StampAsset(poop) = %q, %v", src, ok)
	}
	if _, ok := StampAsset("nope"); ok {
		t.Error("StampAsset accepted a name outside the allow-list")
	}
}
