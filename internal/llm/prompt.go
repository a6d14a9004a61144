package llm

// StructuredSuffix is appended to the prompt in structured-output mode.
const StructuredSuffix = "\nYour response MUST be a valid JSON object."

// BuildPrompt joins instructions and content into one user turn.
func BuildPrompt(instructions, content string, structured bool) string {
	p := instructions + "\n\n" + content
	if structured {
		p += StructuredSuffix
	}
	return p
}
