package prompt

import "strings"

const articleIntro = "Here's an article:\n\n"

// Assemble embeds the article and then the question in a single prompt.
// It is pure; the same inputs always produce the same prompt.
func Assemble(article, question string) string {
	var b strings.Builder
	b.Grow(len(articleIntro) + len(article) + 2 + len(question))
	b.WriteString(articleIntro)
	b.WriteString(article)
	b.WriteString("\n\n")
	b.WriteString(question)
	return b.String()
}
