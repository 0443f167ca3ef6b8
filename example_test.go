package mailmark_test

import (
	"context"
	"fmt"
	"strings"

	mailmark "github.com/alnah/go-mailmark"
)

// Example demonstrates ingesting a template and reading its annotations.
func Example() {
	svc := mailmark.New()
	defer svc.Close()

	doc, err := svc.Ingest(context.Background(), mailmark.Input{
		Name: "welcome",
		Raw: []byte(`<html><body>
			<p>Hello {{firstName}}, your code is ##code##.</p>
			<a href="https://example.com/verify">Verify your account</a>
		</body></html>`),
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("annotations:", len(doc.Annotations))
	for _, a := range doc.Annotations {
		fmt.Println(a.Label)
	}
	// Output:
	// annotations: 3
	// Variable: code
	// Variable: firstName
	// Link: Verify your account
}

// Example_preview demonstrates rendering a highlighted preview.
func Example_preview() {
	svc := mailmark.New()
	defer svc.Close()

	ctx := context.Background()
	doc, err := svc.Ingest(ctx, mailmark.Input{
		Raw: []byte(`<html><body><a href="https://example.com">Shop now</a></body></html>`),
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	preview, err := svc.Preview(ctx, doc)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	if strings.Contains(preview, "annotation-highlight") {
		fmt.Println("preview highlights injected")
	}
	// Output: preview highlights injected
}

// Example_manualAnnotation demonstrates adding and editing annotations.
func Example_manualAnnotation() {
	svc := mailmark.New()
	defer svc.Close()

	doc, err := svc.Ingest(context.Background(), mailmark.Input{
		Raw: []byte(`<html><body><a href="https://example.com">Shop now</a></body></html>`),
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	added, err := doc.AddManual(mailmark.Annotation{
		Kind:  mailmark.KindHyperlink,
		Label: "Link: Footer",
		Hyperlink: &mailmark.HyperlinkMeta{
			URL:         "https://example.com/unsubscribe",
			DisplayText: "Unsubscribe",
		},
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	comment := "Points to the **production** unsubscribe flow."
	if err := doc.Update(added.ID, mailmark.AnnotationPatch{UserComment: &comment}); err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("annotations:", len(doc.Annotations))
	// Output: annotations: 2
}
