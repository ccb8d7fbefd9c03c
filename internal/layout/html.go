package layout

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"jsa/api/internal/jsa"
	"jsa/api/internal/signature"
)

// PageElementID is the id of the fixed-size page root in every rendered page.
const PageElementID = "jsa-page"

// Typed names are rendered to an image this large before they go on paper,
// so the rasterizing browser needs no script font.
const (
	typedWidth  = 240
	typedHeight = 64
)

//go:embed templates/page.html templates/page.css
var templateFS embed.FS

var (
	pageTemplate *template.Template
	stylesheet   template.CSS
)

func init() {
	css, err := templateFS.ReadFile("templates/page.css")
	if err != nil {
		panic(fmt.Sprintf("layout: read stylesheet: %v", err))
	}
	stylesheet = template.CSS(css)

	funcMap := template.FuncMap{
		"orBlank":   orBlank,
		"riskClass": func(level jsa.RiskLevel) string { return "risk-" + strings.ToLower(string(level)) },
		"inc":       func(i int) int { return i + 1 },
		"riskPanel": func(root pageView, key string, score *jsa.RiskScore) riskView {
			return riskView{Root: root, Key: key, Score: score}
		},
	}
	content, err := templateFS.ReadFile("templates/page.html")
	if err != nil {
		panic(fmt.Sprintf("layout: read template: %v", err))
	}
	pageTemplate = template.Must(template.New("page").Funcs(funcMap).Parse(string(content)))
}

type signerView struct {
	Label string
	Name  string
	Date  string
	Image template.URL
	Kind  SignatureKind
}

type pageView struct {
	Page
	Geometry    Geometry
	ElementID   string
	Dir         string
	Style       template.CSS
	SignerViews []signerView
}

type riskView struct {
	Root  pageView
	Key   string
	Score *jsa.RiskScore
}

func (pageView) FireNumber() string { return FireNumber }

// T translates a label into the page language.
func (v pageView) T(key string) string { return label(v.Language, key) }

// RenderHTML renders one page as a complete HTML document whose page root is
// exactly Geometry.WidthPx x Geometry.HeightPx.
func RenderHTML(p Page, g Geometry) (string, error) {
	if err := g.Validate(); err != nil {
		return "", err
	}
	lang := p.Language
	dir := "ltr"
	if p.RTL() {
		dir = "rtl"
	}
	view := pageView{
		Page:      p,
		Geometry:  g,
		ElementID: PageElementID,
		Dir:       dir,
		Style:     stylesheet,
	}
	for _, s := range p.Signers {
		view.SignerViews = append(view.SignerViews, signerViewOf(lang, s))
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render page %d: %w", p.Number, err)
	}
	return buf.String(), nil
}

func signerViewOf(lang jsa.Language, s Signer) signerView {
	v := signerView{
		Label: label(lang, string(s.Slot)),
		Name:  s.Signature.Name,
		Date:  s.Signature.Date,
		Kind:  s.Signature.Kind,
	}
	switch s.Signature.Kind {
	case SignatureImage:
		if strings.HasPrefix(s.Signature.Image, "data:image/") {
			v.Image = template.URL(s.Signature.Image)
		} else {
			v.Kind = SignatureBlank
		}
	case SignatureTyped:
		uri, err := signature.RenderTypedName(s.Signature.Name, typedWidth, typedHeight, signature.DefaultColor)
		if err != nil {
			v.Kind = SignatureBlank
			break
		}
		v.Image = template.URL(uri)
	}
	return v
}

func orBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return blank
	}
	return value
}
