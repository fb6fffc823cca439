// Package classify 关键词分类：站点领域、输出目标、附加页面和主题
package classify

import (
	"fmt"
	"strings"
)

type Domain string

const (
	DomainRestaurant Domain = "restaurant"
	DomainPortfolio  Domain = "portfolio"
	DomainBlog       Domain = "blog"
	DomainEcommerce  Domain = "ecommerce"
	DomainAgency     Domain = "agency"
	DomainGeneric    Domain = "generic"
)

type rule[T any] struct {
	result   T
	keywords []string
}

// 按顺序匹配，先命中的生效
var domainRules = []rule[Domain]{
	{DomainRestaurant, []string{"restaurant", "cafe"}},
	{DomainPortfolio, []string{"portfolio"}},
	{DomainBlog, []string{"blog"}},
	{DomainEcommerce, []string{"ecommerce", "shop"}},
	{DomainAgency, []string{"agency"}},
}

func match[T any](text string, rules []rule[T], fallback T) T {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.result
			}
		}
	}
	return fallback
}

// DetectDomain 未命中任何关键词时返回 generic
func DetectDomain(text string) Domain {
	return match(text, domainRules, DomainGeneric)
}

// ParseDomain 把任意字符串收敛到已知领域
func ParseDomain(s string) Domain {
	d := Domain(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case DomainRestaurant, DomainPortfolio, DomainBlog, DomainEcommerce, DomainAgency:
		return d
	default:
		return DomainGeneric
	}
}

type Target string

const (
	TargetHTML  Target = "html"
	TargetReact Target = "react"
)

var targetRules = []rule[Target]{
	{TargetReact, []string{"react"}},
}

// DetectTarget 提到 react 时输出组件源码，否则输出静态站点
func DetectTarget(prompt string) Target {
	return match(prompt, targetRules, TargetHTML)
}

type Page struct {
	Name     string
	Title    string
	FileName string
	Body     string
}

var (
	PageHome    = Page{Name: "home", Title: "Home", FileName: "index.html"}
	PageAbout   = Page{Name: "about", Title: "About", FileName: "about.html", Body: "<h1>About Us</h1><p>This is the about page.</p>"}
	PageContact = Page{Name: "contact", Title: "Contact", FileName: "contact.html", Body: "<h1>Contact Us</h1><p>Email: contact@example.com</p>"}
)

var secondaryPages = []Page{PageAbout, PageContact}

// SecondaryPages 按固定顺序返回提示词里提到的附加页面
func SecondaryPages(prompt string) []Page {
	lower := strings.ToLower(prompt)
	var pages []Page
	for _, p := range secondaryPages {
		if strings.Contains(lower, p.Name) {
			pages = append(pages, p)
		}
	}
	return pages
}

type Theme string

const (
	ThemeLight      Theme = "Light"
	ThemeDark       Theme = "Dark"
	ThemeModernBlue Theme = "Modern Blue"
	ThemeMinimal    Theme = "Minimal"
)

var Themes = []Theme{ThemeLight, ThemeDark, ThemeModernBlue, ThemeMinimal}

// ParseTheme 忽略大小写，空值为 Light
func ParseTheme(s string) (Theme, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ThemeLight, nil
	}
	for _, t := range Themes {
		if strings.EqualFold(string(t), s) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown theme %q", s)
}

type Placeholder struct {
	Header string `json:"header"`
	Hero   string `json:"hero"`
	Footer string `json:"footer"`
}

var placeholders = map[Domain]Placeholder{
	DomainRestaurant: {
		Header: "Brand or site name (e.g. Fresh Bites | Premium Food Delivery)",
		Hero:   "Main message (e.g. Delicious meals delivered fresh to your door. Order now!)",
		Footer: "Contact info (e.g. © 2025 Fresh Bites | info@freshbites.com)",
	},
	DomainPortfolio: {
		Header: "Your name or role (e.g. Jane Doe | Full Stack Developer)",
		Hero:   "Personal intro (e.g. Building elegant, scalable web apps.)",
		Footer: "Email/social (e.g. jane@example.com | © 2025 Jane Doe)",
	},
	DomainEcommerce: {
		Header: "Shop name (e.g. UrbanStyle | Fashion for Everyone)",
		Hero:   "Sales headline (e.g. Up to 50% off on all summer wear!)",
		Footer: "Support info (e.g. help@urbanstyle.com | Refund Policy)",
	},
	DomainAgency: {
		Header: "Agency name (e.g. Pixel Perfect | Creative Studio)",
		Hero:   "Value proposition (e.g. We craft beautiful, user-first digital solutions.)",
		Footer: "Legal/contact (e.g. © 2025 Pixel Perfect | contact@agency.com)",
	},
	DomainBlog: {
		Header: "Blog name (e.g. MindSparks | Thoughts & Stories)",
		Hero:   "Tagline (e.g. Sharing insights on tech, life, and more.)",
		Footer: "Author info (e.g. © 2025 MindSparks by Alex Smith)",
	},
	DomainGeneric: {
		Header: "Website name (e.g. WebNova | Modern Solutions)",
		Hero:   "Hero tagline (e.g. Unlock powerful digital tools in one click)",
		Footer: "Footer info (e.g. contact@webnova.com | © 2025 WebNova)",
	},
}

// Placeholders 返回某领域的页眉/首屏/页脚填写提示
func Placeholders(d Domain) Placeholder {
	if p, ok := placeholders[d]; ok {
		return p
	}
	return placeholders[DomainGeneric]
}
