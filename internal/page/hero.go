package page

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

const heroID = "hero"

var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// HeroStyle 首屏背景图的内联样式
func HeroStyle(imageURL string) string {
	u := strings.ReplaceAll(imageURL, "'", "%27")
	return fmt.Sprintf("background-image: url('%s'); background-size: cover; background-position: center;", u)
}

// InjectHero 给第一个 id="hero"（不区分大小写）的元素的开始标签加上背景图样式。
// 已有 style 时以分号追加；只重写这一个标签，其余内容按原始字节输出。
func InjectHero(body, imageURL string) string {
	if imageURL == "" || body == "" {
		return body
	}

	z := html.NewTokenizer(strings.NewReader(body))
	var b strings.Builder
	b.Grow(len(body) + 128)
	injected := false

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				return body
			}
			break
		}

		// Token() 会原地改写缓冲区里的标签名大小写，先拷贝原始字节
		raw := append([]byte(nil), z.Raw()...)

		if !injected && (tt == html.StartTagToken || tt == html.SelfClosingTagToken) {
			tok := z.Token()
			if isHero(tok) {
				b.WriteString(renderWithStyle(tok, HeroStyle(imageURL)))
				injected = true
				continue
			}
		}
		b.Write(raw)
	}

	if !injected {
		return body
	}
	return b.String()
}

func isHero(tok html.Token) bool {
	for _, a := range tok.Attr {
		if a.Key == "id" && strings.EqualFold(a.Val, heroID) {
			return true
		}
	}
	return false
}

func renderWithStyle(tok html.Token, style string) string {
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(tok.Data)

	styled := false
	for _, a := range tok.Attr {
		val := a.Val
		if a.Key == "style" && !styled {
			val = appendStyle(val, style)
			styled = true
		}
		writeAttr(&b, a.Key, val)
	}
	if !styled {
		writeAttr(&b, "style", style)
	}

	if tok.Type == html.SelfClosingTagToken {
		b.WriteString(" />")
	} else {
		b.WriteByte('>')
	}
	return b.String()
}

func writeAttr(b *strings.Builder, key, val string) {
	b.WriteByte(' ')
	b.WriteString(key)
	if val == "" {
		return
	}
	b.WriteString(`="`)
	b.WriteString(attrEscaper.Replace(val))
	b.WriteByte('"')
}

func appendStyle(existing, extra string) string {
	existing = strings.TrimSpace(existing)
	if existing == "" {
		return extra
	}
	if !strings.HasSuffix(existing, ";") {
		existing += ";"
	}
	return existing + " " + extra
}
