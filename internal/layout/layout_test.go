package layout

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"jsa/api/internal/jsa"
	"jsa/api/internal/signature"
)

func document(tools, steps int) jsa.Document {
	initial, _ := jsa.NewRiskScore(4, 4)
	residual, _ := jsa.NewRiskScore(1, 3)
	doc := jsa.Document{
		ID:    "seed-1",
		Title: jsa.Title{EN: "Working at Height", FR: "Travail en hauteur", AR: "العمل في المرتفعات"},
		Metadata: jsa.Metadata{
			Company:     "JESA",
			Project:     "Jorf Lasfar phosphate hub",
			TeamLeader:  "A. Benali",
			TeamMembers: []string{"K. Idrissi", "S. Alaoui"},
		},
		Locations: []jsa.Location{
			{Name: "Jorf Lasfar", EmergencyPhone: "+212 523 34 50 00", MusterPoint: "Gate 3"},
			{Name: "Safi", EmergencyPhone: "+212 524 46 20 00", MusterPoint: "Main gate"},
		},
		Hazards:         []jsa.Hazard{{ID: "h1", Description: "Fall from height", Limit: "> 1.8 m"}},
		Controls:        []jsa.Control{{ID: "c1", Description: "Full body harness", Type: jsa.ControlPPE, StandardRef: "EN 361"}},
		InitialRisk:     initial,
		ResidualRisk:    residual,
		RequiredPermits: []string{"Work at height permit"},
	}
	for i := 0; i < tools; i++ {
		doc.Tools = append(doc.Tools, jsa.Tool{ID: fmt.Sprintf("t%d", i), Name: fmt.Sprintf("Tool %d", i)})
	}
	for i := 0; i < steps; i++ {
		doc.Steps = append(doc.Steps, jsa.Step{ID: i + 1, Description: fmt.Sprintf("Step %d", i+1)})
	}
	return doc
}

func TestPaginateTwoPages(t *testing.T) {
	name := "Ahmed Benali"
	pages, err := Paginate(Input{
		Document: document(10, 5),
		Language: jsa.LangFR,
		Creator:  jsa.SignatureRecord{Name: name},
		Date:     "2026-10-14",
		Limits:   DefaultLimits,
	})
	if err != nil {
		t.Fatalf("Paginate failed: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}

	first := pages[0]
	if first.Kind != KindOverview || first.Number != 1 || first.Total != 2 {
		t.Errorf("unexpected first page %+v", first)
	}
	if first.Header.JobTitle != "Travail en hauteur" || first.Header.Location != "Jorf Lasfar" || first.Header.Light {
		t.Errorf("unexpected header %+v", first.Header)
	}
	if len(first.Tools) != 8 || first.HiddenTools != 2 {
		t.Errorf("expected 8 tools with 2 hidden, got %d/%d", len(first.Tools), first.HiddenTools)
	}
	if first.InitialRisk == nil || first.InitialRisk.Score != 16 || first.ResidualRisk.Score != 3 {
		t.Errorf("expected both risk panels, got %+v %+v", first.InitialRisk, first.ResidualRisk)
	}
	if len(first.Steps) != 0 || len(first.Signers) != 0 {
		t.Error("overview page must not carry steps or signers")
	}

	second := pages[1]
	if second.Kind != KindSteps || !second.Header.Light || len(second.Steps) != 5 || second.HiddenSteps != 0 {
		t.Errorf("unexpected second page %+v", second)
	}
	if second.Emergency == nil || second.Emergency.MusterPoint != "Gate 3" {
		t.Errorf("expected emergency block from first location, got %+v", second.Emergency)
	}
	if len(second.Signers) != 2 || second.Signers[0].Slot != jsa.SignerCreator || second.Signers[1].Slot != jsa.SignerSupervisor {
		t.Fatalf("expected creator and supervisor slots, got %+v", second.Signers)
	}
	if second.Signers[0].Signature.Kind != SignatureTyped || second.Signers[1].Signature.Kind != SignatureBlank {
		t.Errorf("unexpected signature kinds %+v", second.Signers)
	}
}

func TestPaginateStepOverflow(t *testing.T) {
	doc := document(3, 30)

	pages, err := Paginate(Input{Document: doc, Language: jsa.LangEN, Limits: DefaultLimits})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 || len(pages[1].Steps) != 12 || pages[1].HiddenSteps != 18 {
		t.Fatalf("expected truncation to 12 with 18 hidden, got %d pages", len(pages))
	}

	limits := DefaultLimits
	limits.Overflow = OverflowPaginate
	pages, err = Paginate(Input{Document: doc, Language: jsa.LangEN, Limits: limits})
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	if pages[1].HiddenSteps != 0 || len(pages[2].Steps) != 12 || len(pages[3].Steps) != 6 {
		t.Errorf("unexpected continuation split: %d %d %d", len(pages[1].Steps), len(pages[2].Steps), len(pages[3].Steps))
	}
	if pages[3].Kind != KindContinuation || pages[3].Steps[0].ID != 25 || pages[3].Total != 4 {
		t.Errorf("unexpected last page %+v", pages[3])
	}
	if len(pages[3].Signers) != 0 {
		t.Error("continuation pages carry no signature block")
	}
}

func TestPaginateRejects(t *testing.T) {
	if _, err := Paginate(Input{Document: document(1, 1), Language: jsa.LangEN, Limits: Limits{MaxTools: 0, MaxSteps: 12}}); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("expected ErrInvalidLimits, got %v", err)
	}
	if _, err := Paginate(Input{Document: document(1, 1), Language: "de", Limits: DefaultLimits}); !errors.Is(err, jsa.ErrInvalidLanguage) {
		t.Errorf("expected ErrInvalidLanguage, got %v", err)
	}
	if _, err := ParseOverflow("scroll"); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("expected ErrInvalidLimits for overflow, got %v", err)
	}
}

func TestPaginateWithoutLocations(t *testing.T) {
	doc := document(1, 1)
	doc.Locations = nil
	pages, err := Paginate(Input{Document: doc, Language: jsa.LangEN, Limits: DefaultLimits})
	if err != nil {
		t.Fatal(err)
	}
	if pages[1].Emergency != nil || pages[0].Header.Location != "" {
		t.Errorf("expected no emergency block, got %+v", pages[1].Emergency)
	}
	if _, err := RenderHTML(pages[1], A4); err != nil {
		t.Errorf("RenderHTML failed without locations: %v", err)
	}
}

func TestEffectiveSignature(t *testing.T) {
	img := "data:image/png;base64,AAAA"
	empty := ""
	cases := []struct {
		name string
		rec  jsa.SignatureRecord
		want SignatureKind
	}{
		{"image wins", jsa.SignatureRecord{Name: "A", Image: &img}, SignatureImage},
		{"typed name", jsa.SignatureRecord{Name: "A"}, SignatureTyped},
		{"empty image falls back", jsa.SignatureRecord{Name: "A", Image: &empty}, SignatureTyped},
		{"blank name", jsa.SignatureRecord{Name: "   "}, SignatureBlank},
		{"nothing", jsa.SignatureRecord{}, SignatureBlank},
	}
	for _, tc := range cases {
		if got := EffectiveSignature(tc.rec); got.Kind != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got.Kind)
		}
	}
}

func TestPageAt(t *testing.T) {
	pages := []Page{{Number: 1}, {Number: 2}}
	if p, err := PageAt(pages, 2); err != nil || p.Number != 2 {
		t.Errorf("expected page 2, got %+v (%v)", p, err)
	}
	for _, n := range []int{0, 3} {
		if _, err := PageAt(pages, n); !errors.Is(err, jsa.ErrIndexOutOfRange) {
			t.Errorf("PageAt(%d): expected ErrIndexOutOfRange, got %v", n, err)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	typed := "Ahmed Benali"
	drawn, err := signature.RenderTypedName("S. Alaoui", 200, 60, signature.DefaultColor)
	if err != nil {
		t.Fatal(err)
	}
	pages, err := Paginate(Input{
		Document:   document(2, 3),
		Language:   jsa.LangEN,
		Creator:    jsa.SignatureRecord{Name: typed, Date: "2026-10-14"},
		Supervisor: jsa.SignatureRecord{Name: "S. Alaoui", Image: &drawn},
		Limits:     DefaultLimits,
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := RenderHTML(pages[0], A4)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	for _, want := range []string{
		`id="jsa-page"`,
		"width: 794px",
		"height: 1123px",
		"Working at Height",
		"Fall from height",
		"EN 361",
		"risk-extreme",
		"Page 1/2",
	} {
		if !strings.Contains(first, want) {
			t.Errorf("page 1 missing %q", want)
		}
	}
	if strings.Contains(first, "Step 1") {
		t.Error("page 1 must not render steps")
	}

	second, err := RenderHTML(pages[1], A4)
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	for _, want := range []string{"Step 3", "Gate 3", FireNumber, "Work at height permit", typed, `src="data:image/png;base64,`} {
		if !strings.Contains(second, want) {
			t.Errorf("page 2 missing %q", want)
		}
	}
	if strings.Contains(second, "ZgotmplZ") {
		t.Error("signature image was filtered as unsafe")
	}
	if strings.Count(second, `<img src="data:image/png`) != 2 {
		t.Errorf("expected typed and drawn signatures as images")
	}
}

func TestRenderHTMLArabic(t *testing.T) {
	pages, err := Paginate(Input{Document: document(1, 1), Language: jsa.LangAR, Limits: DefaultLimits})
	if err != nil {
		t.Fatal(err)
	}
	out, err := RenderHTML(pages[0], A4)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `dir="rtl"`) || !strings.Contains(out, "العمل في المرتفعات") || !strings.Contains(out, "المخاطر") {
		t.Error("expected right-to-left Arabic page")
	}
}

func TestRenderHTMLEscapes(t *testing.T) {
	doc := document(0, 1)
	doc.Steps[0].Description = `<script>alert(1)</script>`
	bad := "javascript:alert(1)"
	pages, err := Paginate(Input{Document: doc, Language: jsa.LangEN, Limits: DefaultLimits, Creator: jsa.SignatureRecord{Image: &bad}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := RenderHTML(pages[1], A4)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "<script>") || strings.Contains(out, "javascript:") {
		t.Error("expected user content to be escaped")
	}
	if _, err := RenderHTML(pages[0], Geometry{}); !errors.Is(err, ErrInvalidLimits) {
		t.Errorf("expected ErrInvalidLimits for zero geometry, got %v", err)
	}
}

func TestSignerViewFallsBackToBlank(t *testing.T) {
	cases := []Signature{
		{Kind: SignatureTyped, Name: "   "},
		{Kind: SignatureImage, Image: "javascript:alert(1)"},
	}
	for _, sig := range cases {
		v := signerViewOf(jsa.LangEN, Signer{Slot: jsa.SignerCreator, Signature: sig})
		if v.Kind != SignatureBlank || v.Image != "" {
			t.Errorf("expected a blank slot for %+v, got kind=%s image=%q", sig, v.Kind, v.Image)
		}
	}

	v := signerViewOf(jsa.LangEN, Signer{Slot: jsa.SignerCreator, Signature: Signature{Kind: SignatureTyped, Name: "Nadia Amrani"}})
	if v.Kind != SignatureTyped || !strings.HasPrefix(string(v.Image), "data:image/png;base64,") {
		t.Errorf("expected a rendered typed name, got kind=%s", v.Kind)
	}
}
