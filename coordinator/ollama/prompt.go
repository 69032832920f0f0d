package ollama

const defaultSystemPrompt = `You are one step of a meal planning service.
Each request starts with a ROLE line and KEY: value constraints.
Answer with ONLY the JSON object the request describes. Never use an ingredient listed under RESTRICTIONS.
Numbers are plain numbers without units or thousands separators.`

// buildMessages converts a single prompt into Ollama chat messages, with the
// client's system prompt first when it is set.
func (c *Client) buildMessages(prompt string) []Message {
	messages := make([]Message, 0, 2)
	if c.systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: c.systemPrompt})
	}
	return append(messages, Message{Role: "user", Content: prompt})
}
