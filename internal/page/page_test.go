package page

import (
	"strings"
	"testing"

	"webweaver/internal/classify"

	"github.com/stretchr/testify/assert"
)

const heroURL = "https://images.example.com/a.jpg?w=800&h=400"

func TestAssemble_Linked(t *testing.T) {
	doc := Assemble(Spec{
		Title:    "Home",
		Body:     "<h1>Hi</h1>",
		CSS:      "h1{color:red}",
		JS:       "console.log(1)",
		NavLinks: NavLinks(nil),
	}, Linked)

	assert.True(t, strings.HasPrefix(doc, "<!DOCTYPE html>"))
	assert.Contains(t, doc, `<meta charset="UTF-8" />`)
	assert.Contains(t, doc, `name="viewport"`)
	assert.Contains(t, doc, "<title>Home</title>")
	assert.Contains(t, doc, "<h1>Hi</h1>")
	assert.Equal(t, 1, strings.Count(doc, `<link rel="stylesheet" href="style.css">`))
	assert.Equal(t, 1, strings.Count(doc, `<script src="script.js"></script>`))
	assert.NotContains(t, doc, "<style>")
	assert.NotContains(t, doc, "h1{color:red}")
	assert.Contains(t, doc, `<nav><a href="index.html">Home</a> </nav>`)
}

func TestAssemble_Inline(t *testing.T) {
	doc := Assemble(Spec{
		Title: "Web Preview",
		Body:  "<p>x</p>",
		CSS:   "p{margin:0}",
		JS:    "alert(1)",
	}, Inline)

	assert.Equal(t, 1, strings.Count(doc, "<style>"))
	assert.Equal(t, 1, strings.Count(doc, "<script>"))
	assert.Contains(t, doc, "p{margin:0}")
	assert.Contains(t, doc, "alert(1)")
	assert.NotContains(t, doc, "style.css")
	assert.NotContains(t, doc, "script.js")
	assert.NotContains(t, doc, "<nav>")
}

func TestAssemble_EscapesTitle(t *testing.T) {
	doc := Assemble(Spec{Title: "<b>&</b>"}, Linked)

	assert.Contains(t, doc, "<title>&lt;b&gt;&amp;&lt;/b&gt;</title>")
}

func TestAssemble_InjectsHero(t *testing.T) {
	doc := Assemble(Spec{
		Title:        "Home",
		Body:         `<section class="big" id="Hero" data-x="1"><h1>T</h1></section>`,
		HeroImageURL: heroURL,
	}, Linked)

	assert.Contains(t, doc,
		`<section class="big" id="Hero" data-x="1" style="background-image: url('https://images.example.com/a.jpg?w=800&amp;h=400'); background-size: cover; background-position: center;">`)
	assert.Contains(t, doc, "<h1>T</h1></section>")
}

func TestInjectHero_AnyTagName(t *testing.T) {
	out := InjectHero(`<div id="hero"></div>`, heroURL)

	assert.Equal(t, `<div id="hero" style="`+attrEscaper.Replace(HeroStyle(heroURL))+`"></div>`, out)
}

func TestInjectHero_AppendsToExistingStyle(t *testing.T) {
	out := InjectHero(`<header style="color: red" id="HERO">x</header>`, "https://img/1.png")

	assert.Equal(t,
		`<header style="color: red; background-image: url('https://img/1.png'); background-size: cover; background-position: center;" id="HERO">x</header>`,
		out)
	assert.Equal(t, 1, strings.Count(out, "style="))
}

func TestInjectHero_ExistingStyleWithSemicolon(t *testing.T) {
	out := InjectHero(`<section id="hero" style="padding:0;">`, "u")

	assert.Contains(t, out, `style="padding:0; background-image: url('u');`)
}

func TestInjectHero_OnlyFirstMatchAndRestUntouched(t *testing.T) {
	body := "<!-- c --><P CLASS=a>one</P>\n<section id=hero>a</section><section id=\"hero\">b</section><script>if (a<b) {}</script>"

	out := InjectHero(body, "u")

	assert.Equal(t, 1, strings.Count(out, "background-image"))
	assert.True(t, strings.HasPrefix(out, "<!-- c --><P CLASS=a>one</P>\n<section id=\"hero\" style="))
	assert.True(t, strings.HasSuffix(out, `a</section><section id="hero">b</section><script>if (a<b) {}</script>`))
}

func TestInjectHero_NoHeroOrNoURL(t *testing.T) {
	body := `<section id="heroic">x</section>`

	assert.Equal(t, body, InjectHero(body, "u"))
	assert.Equal(t, `<div id="hero"></div>`, InjectHero(`<div id="hero"></div>`, ""))
}

func TestInjectHero_SelfClosing(t *testing.T) {
	out := InjectHero(`<img id="hero" src="a.png"/>`, "u")

	assert.True(t, strings.HasPrefix(out, `<img id="hero" src="a.png" style="`))
	assert.True(t, strings.HasSuffix(out, ` />`))
}

func TestNavLinks(t *testing.T) {
	links := NavLinks(classify.SecondaryPages("about and contact"))

	assert.Equal(t,
		`<a href="index.html">Home</a> <a href="about.html">About</a> <a href="contact.html">Contact</a> `,
		links)
}
