package mailmark

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// detectAll normalizes then detects, mirroring the ingestion order.
func detectAll(t *testing.T, rawHTML string) []Annotation {
	t.Helper()

	n := &structuralNormalization{}
	canonical, err := n.Normalize(context.Background(), rawHTML)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}

	d := newAnnotationDetection(zap.NewNop())
	annotations, err := d.Detect(context.Background(), canonical)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	return annotations
}

func filterKind(annotations []Annotation, kind Kind) []Annotation {
	var out []Annotation
	for _, a := range annotations {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func TestDetectFormFieldLabels(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantLabel string
	}{
		{
			name:      "text input with name",
			html:      `<input type="text" name="email">`,
			wantLabel: "Input (text): email",
		},
		{
			name:      "input without type defaults to text",
			html:      `<input name="email">`,
			wantLabel: "Input (text): email",
		},
		{
			name:      "input falls back to id",
			html:      `<input type="checkbox" id="optin">`,
			wantLabel: "Input (checkbox): optin",
		},
		{
			name:      "input falls back to placeholder",
			html:      `<input type="text" placeholder="Your email">`,
			wantLabel: "Input (text): Your email",
		},
		{
			name:      "input with nothing is unnamed",
			html:      `<input type="text">`,
			wantLabel: "Input (text): unnamed",
		},
		{
			name:      "button uses visible text",
			html:      `<button>Subscribe Now</button>`,
			wantLabel: "Button: Subscribe Now",
		},
		{
			name:      "submit input uses value",
			html:      `<input type="submit" value="Send">`,
			wantLabel: "Button: Send",
		},
		{
			name:      "submit input without value",
			html:      `<input type="submit">`,
			wantLabel: "Button: Submit",
		},
		{
			name:      "select with options",
			html:      `<select name="country"><option>FR</option><option>US</option></select>`,
			wantLabel: "Dropdown: country (2 options)",
		},
		{
			name:      "select without options",
			html:      `<select name="country"></select>`,
			wantLabel: "Dropdown: country",
		},
		{
			name:      "textarea with name",
			html:      `<textarea name="message"></textarea>`,
			wantLabel: "Textarea: message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterKind(detectAll(t, "<html><body>"+tt.html+"</body></html>"), KindFormField)
			if len(got) != 1 {
				t.Fatalf("got %d form field annotations, want 1", len(got))
			}
			if got[0].Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got[0].Label, tt.wantLabel)
			}
			if got[0].FormField == nil {
				t.Error("form field metadata missing")
			}
			if got[0].ID == "" {
				t.Error("annotation id missing")
			}
		})
	}
}

func TestDetectSkipsHiddenInputs(t *testing.T) {
	got := filterKind(detectAll(t,
		`<html><body><input type="hidden" name="token"><input type="text" name="email"></body></html>`),
		KindFormField)

	if len(got) != 1 {
		t.Fatalf("got %d form field annotations, want 1", len(got))
	}
	if got[0].FormField.Name != "email" {
		t.Errorf("kept field = %q, want email", got[0].FormField.Name)
	}
}

func TestDetectFormFieldMetadata(t *testing.T) {
	got := filterKind(detectAll(t,
		`<html><body><input type="email" name="addr" placeholder="you@example.test" value="x" required></body></html>`),
		KindFormField)
	if len(got) != 1 {
		t.Fatalf("got %d annotations, want 1", len(got))
	}

	meta := got[0].FormField
	if meta.Name != "addr" || meta.InputType != "email" ||
		meta.Placeholder != "you@example.test" || meta.Value != "x" || !meta.Required {
		t.Errorf("unexpected metadata: %+v", meta)
	}
}

func TestDetectHashPlaceholders(t *testing.T) {
	got := filterKind(detectAll(t,
		"<html><body><p>Use ##code## today. Again: ##code##. Also ##promo.id##</p></body></html>"),
		KindTemplateVariable)

	if len(got) != 3 {
		t.Fatalf("got %d annotations, want 3", len(got))
	}

	// Duplicate occurrences are separate annotations with instance ordinals.
	if got[0].Label != "Variable: code" {
		t.Errorf("first label = %q", got[0].Label)
	}
	if got[1].Label != "Variable: code (#2)" {
		t.Errorf("second label = %q", got[1].Label)
	}
	if got[0].Variable.Instance != 1 || got[1].Variable.Instance != 2 {
		t.Errorf("instances = %d, %d, want 1, 2", got[0].Variable.Instance, got[1].Variable.Instance)
	}
	if got[0].Variable.Syntax != SyntaxHashDelimited {
		t.Errorf("syntax = %q", got[0].Variable.Syntax)
	}
	if got[2].Variable.VariableName != "promo.id" {
		t.Errorf("dotted name = %q", got[2].Variable.VariableName)
	}

	// Occurrences are re-found by text search, not element identity.
	for _, a := range got {
		if !a.Locator.IsTextMatch() {
			t.Errorf("locator strategy = %q, want text-match", a.Locator.Strategy)
		}
	}
}

func TestDetectBracketPlaceholders(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantCount int
	}{
		{
			name:      "plain candidate",
			html:      "<p>Dear [Recipient Name],</p>",
			wantCount: 1,
		},
		{
			name:      "outlook conditional inside comment",
			html:      "<!--[if mso]><table></table><![endif]--><p>hi</p>",
			wantCount: 0,
		},
		{
			name:      "denylist word outside comment",
			html:      "<p>[if you can read this]</p>",
			wantCount: 0,
		},
		{
			name:      "mso substring denied",
			html:      "<p>[msoFoo]</p>",
			wantCount: 0,
		},
		{
			name:      "attribute fragment guard",
			html:      "<p>[width=600]</p>",
			wantCount: 0,
		},
		{
			name:      "legitimate verify is denied by substring heuristic",
			html:      "<p>[verify]</p>",
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterKind(detectAll(t, "<html><body>"+tt.html+"</body></html>"), KindTemplateVariable)
			if len(got) != tt.wantCount {
				t.Fatalf("got %d annotations, want %d: %+v", len(got), tt.wantCount, got)
			}
			if tt.wantCount == 1 && got[0].Variable.Syntax != SyntaxBracketed {
				t.Errorf("syntax = %q", got[0].Variable.Syntax)
			}
		})
	}
}

func TestDetectBracketSkipsStructuralContent(t *testing.T) {
	got := filterKind(detectAll(t,
		"<html><body><p>Dear [Recipient Name], {{customText[Add a holiday note]}}</p></body></html>"),
		KindTemplateVariable)

	if len(got) != 2 {
		t.Fatalf("got %d annotations, want 2: %+v", len(got), got)
	}
	for _, a := range got {
		if a.Variable.Syntax == SyntaxBracketed && a.Variable.VariableName != "Recipient Name" {
			t.Errorf("customText content re-counted as bracket candidate: %q", a.Variable.VariableName)
		}
	}
	if got[0].Variable.Syntax != SyntaxBracketed || got[1].Variable.Syntax != SyntaxCustomTextBlock {
		t.Errorf("syntaxes = %q, %q; want bracket then custom-text-block",
			got[0].Variable.Syntax, got[1].Variable.Syntax)
	}
}

func TestDetectHashSkipsStructuralContent(t *testing.T) {
	got := filterKind(detectAll(t,
		"<html><body><p>Code ##promo##. {{customText[Mention ##promo## again]}}</p></body></html>"),
		KindTemplateVariable)

	var hashes []Annotation
	for _, a := range got {
		if a.Variable.Syntax == SyntaxHashDelimited {
			hashes = append(hashes, a)
		}
	}
	if len(hashes) != 1 {
		t.Fatalf("got %d hash annotations, want 1: %+v", len(hashes), hashes)
	}
	if hashes[0].Variable.Instance != 1 || hashes[0].Label != "Variable: promo" {
		t.Errorf("hash annotation = %q (instance %d), want first and only occurrence",
			hashes[0].Label, hashes[0].Variable.Instance)
	}
}

func TestDetectStructuralPlaceholders(t *testing.T) {
	got := filterKind(detectAll(t,
		"<html><body><p>Hello {{firstName}}, {{customText[Write a personal greeting for the customer here]}}</p></body></html>"),
		KindTemplateVariable)

	if len(got) != 2 {
		t.Fatalf("got %d annotations, want 2", len(got))
	}

	variable := got[0]
	if variable.Label != "Variable: firstName" {
		t.Errorf("variable label = %q", variable.Label)
	}
	if variable.Variable.Syntax != SyntaxDoubleBrace {
		t.Errorf("variable syntax = %q", variable.Variable.Syntax)
	}
	if variable.Locator.Strategy != StrategyID {
		t.Errorf("variable locator strategy = %q, want id", variable.Locator.Strategy)
	}
	if !strings.HasPrefix(variable.Locator.Value, markerIDPrefix) {
		t.Errorf("variable locator value = %q", variable.Locator.Value)
	}

	custom := got[1]
	if custom.Variable.Syntax != SyntaxCustomTextBlock {
		t.Errorf("customText syntax = %q", custom.Variable.Syntax)
	}
	if !strings.HasPrefix(custom.Label, "Custom text: ") {
		t.Errorf("customText label = %q", custom.Label)
	}
	// Labels truncate long content; raw text keeps everything.
	if !strings.HasSuffix(custom.Label, "…") {
		t.Errorf("long customText label not truncated: %q", custom.Label)
	}
	if custom.Variable.VariableName != "Write a personal greeting for the customer here" {
		t.Errorf("customText raw content = %q", custom.Variable.VariableName)
	}
}

func TestDetectHyperlinks(t *testing.T) {
	got := filterKind(detectAll(t, `<html><body>
		<a href="https://shop.test/sale">Shop the sale</a>
		<a href="mailto:support@shop.test">Contact us</a>
		<a href="#section">Jump</a>
		<a>No href</a>
	</body></html>`), KindHyperlink)

	if len(got) != 2 {
		t.Fatalf("got %d annotations, want 2: %+v", len(got), got)
	}

	if got[0].Label != "Link: Shop the sale" {
		t.Errorf("label = %q", got[0].Label)
	}
	if got[0].Hyperlink.IsEmailLink {
		t.Error("https link flagged as email")
	}
	if !got[1].Hyperlink.IsEmailLink {
		t.Error("mailto link not flagged as email")
	}
}

func TestDetectHyperlinkDeduplication(t *testing.T) {
	got := filterKind(detectAll(t, `<html><body>
		<a href="https://shop.test/sale">Shop now</a>
		<p>middle</p>
		<a href="https://shop.test/sale">Shop now</a>
		<a href="https://shop.test/sale">Different text</a>
	</body></html>`), KindHyperlink)

	// Identical (href, text) pairs collapse; different text stays separate.
	if len(got) != 2 {
		t.Fatalf("got %d annotations, want 2: %+v", len(got), got)
	}
}

func TestDetectDynamicHyperlinks(t *testing.T) {
	tests := []struct {
		name      string
		html      string
		wantLabel string
		wantURL   bool
		wantText  bool
	}{
		{
			name:      "dynamic URL",
			html:      `<a href="https://shop.test/u/{{userId}}">Account</a>`,
			wantLabel: "Link: Account (dynamic URL)",
			wantURL:   true,
		},
		{
			name:      "dynamic text",
			html:      `<a href="https://shop.test/x">Hi {{firstName}}</a>`,
			wantLabel: "Link: Hi {{firstName}} (dynamic text)",
			wantText:  true,
		},
		{
			name:      "dynamic URL and text",
			html:      `<a href="https://shop.test/u/{{userId}}">Hi {{firstName}}</a>`,
			wantLabel: "Link: Hi {{firstName}} (dynamic URL and text)",
			wantURL:   true,
			wantText:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterKind(detectAll(t, "<html><body>"+tt.html+"</body></html>"), KindHyperlink)
			if len(got) != 1 {
				t.Fatalf("got %d annotations, want 1", len(got))
			}
			if got[0].Label != tt.wantLabel {
				t.Errorf("label = %q, want %q", got[0].Label, tt.wantLabel)
			}
			if got[0].Hyperlink.HasDynamicURL != tt.wantURL {
				t.Errorf("HasDynamicURL = %v, want %v", got[0].Hyperlink.HasDynamicURL, tt.wantURL)
			}
			if got[0].Hyperlink.HasDynamicText != tt.wantText {
				t.Errorf("HasDynamicText = %v, want %v", got[0].Hyperlink.HasDynamicText, tt.wantText)
			}
		})
	}
}

func TestDetectPassOrder(t *testing.T) {
	annotations := detectAll(t, `<html><body>
		<input type="text" name="email">
		<p>##code## and [Recipient] and {{firstName}}</p>
		<a href="https://shop.test">Shop</a>
	</body></html>`)

	wantKinds := []Kind{KindFormField, KindTemplateVariable, KindTemplateVariable, KindTemplateVariable, KindHyperlink}
	if len(annotations) != len(wantKinds) {
		t.Fatalf("got %d annotations, want %d: %+v", len(annotations), len(wantKinds), annotations)
	}
	for i, want := range wantKinds {
		if annotations[i].Kind != want {
			t.Errorf("annotation %d kind = %q, want %q", i, annotations[i].Kind, want)
		}
	}
}

func TestDetectCanceledContext(t *testing.T) {
	d := newAnnotationDetection(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, "<p>hi</p>"); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestBracketDenied(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"if mso", true},
		{"endif", true},
		{"ELSE", true},
		{"gte mso 9", true},
		{"vml", true},
		{"Recipient Name", false},
		{"unsubscribe link", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if got := bracketDenied(tt.content); got != tt.want {
				t.Errorf("bracketDenied(%q) = %v, want %v", tt.content, got, tt.want)
			}
		})
	}
}

// Two runs over the same template must agree on every field except the
// generated IDs: annotation order, locators, labels, and metadata.
func TestDetectDeterministic(t *testing.T) {
	const input = `<html><body>
		<p>Dear [Recipient Name],</p>
		<p>Your code is ##promo## for {{firstName}}.</p>
		<p>{{customText[Add a holiday note]}}</p>
		<form>
			<input type="text" name="email" placeholder="Email">
			<textarea name="message"></textarea>
			<select name="plan"><option>Basic</option></select>
			<button type="submit">Subscribe</button>
		</form>
		<p><a href="https://example.com/verify">Verify your account</a></p>
		<p><a href="https://example.com/help">Need help?</a></p>
	</body></html>`

	first := detectAll(t, input)
	second := detectAll(t, input)

	if len(first) == 0 {
		t.Fatal("expected annotations from the fixture")
	}
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}

	for i := range first {
		a, b := first[i], second[i]
		a.ID, b.ID = "", ""
		if !reflect.DeepEqual(a, b) {
			t.Errorf("annotation %d differs between runs:\n  first:  %+v\n  second: %+v", i, a, b)
		}
	}
}

func TestTruncateLabel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "short string unchanged", input: "hello", max: 10, want: "hello"},
		{name: "exact length unchanged", input: "hello", max: 5, want: "hello"},
		{name: "long string truncated", input: "hello world", max: 5, want: "hello…"},
		{name: "multibyte runes counted as runes", input: "héllo wörld", max: 5, want: "héllo…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateLabel(tt.input, tt.max); got != tt.want {
				t.Errorf("truncateLabel(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
		})
	}
}
