// Package fence 从模型回复中切出 ``` 代码块，并按语言归类
package fence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const marker = "```"

type Key string

const (
	KeyHTML   Key = "html"
	KeyCSS    Key = "css"
	KeyJS     Key = "js"
	KeyJSX    Key = "jsx"
	KeyOthers Key = "others"
)

// Keys 固定的归类集合，顺序即展示顺序
var Keys = []Key{KeyHTML, KeyCSS, KeyJS, KeyJSX, KeyOthers}

// FragmentSet 按 Key 分组的代码片段，每组内保持出现顺序
type FragmentSet map[Key][]string

// NewFragmentSet 返回包含全部 Key 的空集合
func NewFragmentSet() FragmentSet {
	s := make(FragmentSet, len(Keys))
	for _, k := range Keys {
		s[k] = []string{}
	}
	return s
}

func (s FragmentSet) Add(key Key, body string) {
	s[key] = append(s[key], body)
}

// Join 按出现顺序拼接某一组片段
func (s FragmentSet) Join(key Key, sep string) string {
	return strings.Join(s[key], sep)
}

func (s FragmentSet) Counts() map[string]int {
	counts := make(map[string]int, len(Keys))
	for _, k := range Keys {
		counts[string(k)] = len(s[k])
	}
	return counts
}

// Total 所有片段数量
func (s FragmentSet) Total() int {
	n := 0
	for _, k := range Keys {
		n += len(s[k])
	}
	return n
}

// Normalize 把代码块标签映射到固定集合：空标签视为 html，javascript 视为 js
func Normalize(tag string) Key {
	tag = strings.ToLower(strings.TrimSpace(tag))
	switch tag {
	case "":
		return KeyHTML
	case "javascript":
		return KeyJS
	case string(KeyHTML), string(KeyCSS), string(KeyJS), string(KeyJSX):
		return Key(tag)
	default:
		return KeyOthers
	}
}

// Extract 从原始回复中提取所有代码块。
// 一个块也没有时，整段回复去掉零散的 ``` 后作为唯一的 html 片段。
// 不会返回错误，结果总是包含全部 Key。
func Extract(raw string) FragmentSet {
	set := NewFragmentSet()

	blocks := scan(raw)
	if len(blocks) == 0 {
		set.Add(KeyHTML, clean(raw))
		return set
	}

	for _, b := range blocks {
		set.Add(Normalize(b.tag), clean(b.body))
	}
	return set
}

type block struct {
	tag  string
	body string
}

type scanState int

const (
	outsideFence scanState = iota
	capturingTag
	capturingBody
)

// scan 逐段推进的状态机：
// outsideFence 找开头的 ```，capturingTag 读紧随其后的单词并跳过空白，
// capturingBody 读到下一个 ``` 为止。未闭合的块直接丢弃。
func scan(raw string) []block {
	var blocks []block
	var cur block
	state := outsideFence
	pos := 0

	for pos <= len(raw) {
		switch state {
		case outsideFence:
			idx := strings.Index(raw[pos:], marker)
			if idx < 0 {
				return blocks
			}
			pos += idx + len(marker)
			state = capturingTag

		case capturingTag:
			end := skipWhile(raw, pos, isWordRune)
			cur.tag = raw[pos:end]
			pos = skipWhile(raw, end, unicode.IsSpace)
			state = capturingBody

		case capturingBody:
			idx := strings.Index(raw[pos:], marker)
			if idx < 0 {
				return blocks
			}
			cur.body = raw[pos : pos+idx]
			blocks = append(blocks, cur)
			cur = block{}
			pos += idx + len(marker)
			state = outsideFence
		}
	}
	return blocks
}

func skipWhile(s string, pos int, pred func(rune) bool) int {
	for pos < len(s) {
		r, size := utf8.DecodeRuneInString(s[pos:])
		if !pred(r) {
			break
		}
		pos += size
	}
	return pos
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// clean 去掉片段首部残留的 ``` 加语言标签、尾部残留的 ```，再去掉首尾空白
func clean(body string) string {
	body = stripLeadingMarker(body)
	body = stripTrailingMarker(body)
	return strings.TrimSpace(body)
}

func stripLeadingMarker(s string) string {
	n := countRun(s, '`', 3)
	if n == 0 {
		return s
	}
	pos := skipWhile(s, n, unicode.IsSpace)
	pos = skipWhile(s, pos, isWordRune)
	return s[pos:]
}

// stripTrailingMarker 末尾单个换行之前的 ``` 也算作尾部
func stripTrailingMarker(s string) string {
	body, nl := s, ""
	if strings.HasSuffix(body, "\n") {
		body, nl = body[:len(body)-1], "\n"
	}
	n := 0
	for n < 3 && n < len(body) && body[len(body)-1-n] == '`' {
		n++
	}
	if n == 0 {
		return s
	}
	return body[:len(body)-n] + nl
}

func countRun(s string, c byte, limit int) int {
	n := 0
	for n < limit && n < len(s) && s[n] == c {
		n++
	}
	return n
}
