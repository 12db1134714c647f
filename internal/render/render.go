// Package render 把用户输入的消息正文转成可安全展示的 HTML：
// 轻量标记走 markdown 渲染（原始 HTML 一律转义），:stamp_<name> 形式的
// 贴图引用只对固定白名单内的资源名生效，其余保持字面文本。
package render

import (
	"bytes"
	"fmt"
	"html"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"
)

// stampAssets 是允许引用的贴图资源名白名单，与 /stamps 下的静态资源对应。
var stampAssets = map[string]struct{}{
	"1": {}, "2": {}, "3": {}, "4": {},
	"5": {}, "6": {}, "7": {}, "8": {},
	"poop": {},
}

var stampToken = regexp.MustCompile(`:stamp_([a-zA-Z0-9]+)`)

// md 不开启 WithUnsafe，用户正文里的原始 HTML 会被转义而不是透传。
var md = goldmark.New(
	goldmark.WithExtensions(extension.Strikethrough),
	goldmark.WithRendererOptions(ghtml.WithHardWraps()),
)

// StampAsset 返回贴图资源的引用路径，名字不在白名单内时返回 false。
func StampAsset(name string) (string, bool) {
	if _, ok := stampAssets[name]; !ok {
		return "", false
	}
	return "/stamps/" + name + ".png", true
}

// Message 渲染一条消息正文。先过 markdown（转义原始 HTML），
// 再把渲染结果里残留的贴图 token 替换为 img 引用。token 不含
// markdown 特殊字符，能原样穿过渲染器，所以后置替换是安全的。
func Message(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return substituteStamps(buf.String())
}

func substituteStamps(rendered string) string {
	return stampToken.ReplaceAllStringFunc(rendered, func(tok string) string {
		name := stampToken.FindStringSubmatch(tok)[1]
		src, ok := StampAsset(name)
		if !ok {
			return tok
		}
		return fmt.Sprintf(`<img src="%s" alt="stamp %s" class="stamp">`, src, name)
	})
}
