// Package page 把 HTML/CSS/JS 片段拼成完整的 HTML 文档
package page

import (
	"html"
	"strings"

	"webweaver/internal/classify"
)

const (
	StyleFile  = "style.css"
	ScriptFile = "script.js"
)

// Mode 决定样式和脚本是外链还是内联
type Mode int

const (
	// Linked 写文件时使用，引用 style.css / script.js
	Linked Mode = iota
	// Inline 预览历史记录时使用
	Inline
)

type Spec struct {
	Title        string
	Body         string
	CSS          string
	JS           string
	NavLinks     string
	HeroImageURL string
}

// Assemble 生成完整文档：恰好一个样式、一个脚本，导航为空时不输出 <nav>
func Assemble(spec Spec, mode Mode) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"UTF-8\" />\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	b.WriteString("  <title>" + html.EscapeString(spec.Title) + "</title>\n")

	switch mode {
	case Inline:
		b.WriteString("  <style>\n" + spec.CSS + "\n  </style>\n")
	default:
		b.WriteString("  <link rel=\"stylesheet\" href=\"" + StyleFile + "\">\n")
	}

	b.WriteString("</head>\n<body>\n")
	if spec.NavLinks != "" {
		b.WriteString("  <nav>" + spec.NavLinks + "</nav>\n")
	}
	b.WriteString("  " + InjectHero(spec.Body, spec.HeroImageURL) + "\n")

	switch mode {
	case Inline:
		b.WriteString("  <script>\n" + spec.JS + "\n  </script>\n")
	default:
		b.WriteString("  <script src=\"" + ScriptFile + "\"></script>\n")
	}

	b.WriteString("</body>\n</html>\n")
	return b.String()
}

// NavLinks 首页链接总是存在，其后是提示词里提到的附加页面
func NavLinks(pages []classify.Page) string {
	var b strings.Builder
	writeLink(&b, classify.PageHome)
	for _, p := range pages {
		writeLink(&b, p)
	}
	return b.String()
}

func writeLink(b *strings.Builder, p classify.Page) {
	b.WriteString(`<a href="` + p.FileName + `">` + p.Title + `</a> `)
}
