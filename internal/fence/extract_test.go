package fence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_ThreeBlocks(t *testing.T) {
	raw := "```html\n<h1>Hi</h1>\n``` ```css\nh1{color:red}\n``` ```js\nconsole.log(1)\n```"

	set := Extract(raw)

	assert.Equal(t, []string{"<h1>Hi</h1>"}, set[KeyHTML])
	assert.Equal(t, []string{"h1{color:red}"}, set[KeyCSS])
	assert.Equal(t, []string{"console.log(1)"}, set[KeyJS])
	assert.Empty(t, set[KeyJSX])
	assert.Empty(t, set[KeyOthers])
}

func TestExtract_AlwaysHasEveryKey(t *testing.T) {
	for _, raw := range []string{"", "plain", "```css\na{}\n```"} {
		set := Extract(raw)
		for _, k := range Keys {
			_, ok := set[k]
			assert.True(t, ok, "key %s missing for %q", k, raw)
		}
	}
}

func TestExtract_TagNormalization(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  Key
		body string
	}{
		{"no tag defaults to html", "```\n<p>x</p>\n```", KeyHTML, "<p>x</p>"},
		{"javascript becomes js", "```javascript\nlet a = 1\n```", KeyJS, "let a = 1"},
		{"upper case tag", "```CSS\nbody{}\n```", KeyCSS, "body{}"},
		{"jsx kept", "```jsx\n<App />\n```", KeyJSX, "<App />"},
		{"unknown tag goes to others", "```python\nprint(1)\n```", KeyOthers, "print(1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := Extract(tt.raw)
			require.Len(t, set[tt.key], 1)
			assert.Equal(t, tt.body, set[tt.key][0])
			assert.Equal(t, 1, set.Total())
		})
	}
}

func TestExtract_NoFenceFallsBackToHTML(t *testing.T) {
	set := Extract("  <div>whole reply</div>  ")

	assert.Equal(t, []string{"<div>whole reply</div>"}, set[KeyHTML])
	assert.Equal(t, 1, set.Total())
}

func TestExtract_FallbackStripsStrayMarkers(t *testing.T) {
	set := Extract("``html <p>a</p>``")

	assert.Equal(t, []string{"<p>a</p>"}, set[KeyHTML])
}

func TestExtract_UnclosedFenceIsDropped(t *testing.T) {
	set := Extract("```css\nbody{}\n``` trailing ```js\nnever closed")

	assert.Equal(t, []string{"body{}"}, set[KeyCSS])
	assert.Empty(t, set[KeyJS])
	assert.Equal(t, 1, set.Total())
}

func TestExtract_OnlyUnclosedFenceUsesWholeText(t *testing.T) {
	set := Extract("```html\n<p>open</p>")

	assert.Equal(t, []string{"<p>open</p>"}, set[KeyHTML])
}

func TestExtract_KeepsOrderWithinKey(t *testing.T) {
	raw := "```css\na{}\n```\ntext\n```html\n<p>1</p>\n```\n```css\nb{}\n```"

	set := Extract(raw)

	assert.Equal(t, []string{"a{}", "b{}"}, set[KeyCSS])
	assert.Equal(t, "a{}\n\nb{}", set.Join(KeyCSS, "\n\n"))
}

func TestExtract_EmptyBlock(t *testing.T) {
	set := Extract("``````")

	assert.Equal(t, []string{""}, set[KeyHTML])
}

func TestExtract_TagDirectlyClosed(t *testing.T) {
	set := Extract("```css```")

	assert.Equal(t, []string{""}, set[KeyCSS])
}

func TestClean(t *testing.T) {
	assert.Equal(t, "body", clean("`` js body"))
	assert.Equal(t, "body", clean("body``"))
	assert.Equal(t, "body", clean("body```\n"))
	assert.Equal(t, "a ` b", clean("  a ` b  "))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, KeyHTML, Normalize(""))
	assert.Equal(t, KeyJS, Normalize(" JavaScript "))
	assert.Equal(t, KeyOthers, Normalize("ts"))
}

func TestFragmentSet_Counts(t *testing.T) {
	set := Extract("```html\na\n``` ```html\nb\n``` ```css\nc\n```")

	assert.Equal(t, map[string]int{"html": 2, "css": 1, "js": 0, "jsx": 0, "others": 0}, set.Counts())
}
