package render

// ExtractVariables lists every name tpl references (substitutions, block
// conditions, loop sources, loop-body fields and helper arguments) in
// first-seen order without duplicates. "this" is not a variable.
// Malformed templates are scanned as far as their tags go.
func ExtractVariables(tpl string) []string {
	seen := make(map[string]struct{})
	var names []string

	for _, tok := range tokenize(tpl) {
		switch tok.kind {
		case tokVar, tokHelper, tokOpen:
		default:
			continue
		}
		if tok.name == "this" {
			continue
		}
		if _, dup := seen[tok.name]; dup {
			continue
		}
		seen[tok.name] = struct{}{}
		names = append(names, tok.name)
	}
	return names
}
