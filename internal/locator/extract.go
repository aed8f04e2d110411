package locator

// InteractableSelector matches the elements the structured path considers.
const InteractableSelector = `input, button, a, select, textarea, ` +
	`[role="button"], [role="link"], [role="tab"], [role="checkbox"], [role="radio"], ` +
	`[data-testid]`

// extractStructured walks the interactable elements of doc in document order.
// Every match is kept, up to max elements.
func extractStructured(doc Document, fw Framework, max int) []Element {
	nodes := doc.FindAll(InteractableSelector)
	if len(nodes) > max {
		nodes = nodes[:max]
	}

	names := NewNameRegistry()
	elements := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		class, _ := n.Attr("class")
		suffix := elementSuffix(n.Tag(), attr(n, "role"), attr(n, "type"))
		elements = append(elements, Element{
			ElementName: names.Assign(structuredNameHint(n), suffix),
			TagName:     n.Tag(),
			ClassName:   class,
			Locators:    rankStructured(n, fw),
		})
	}
	return elements
}
