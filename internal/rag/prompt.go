package rag

import (
	"fmt"
	"strings"
)

// FallbackAnswer is returned instead of calling the model when there is
// nothing to ground an answer on.
const FallbackAnswer = "I don't have enough information to answer that question."

const SummarizeSystemPrompt = "You are a helpful search assistant. Answer the user's question based ONLY on the provided sources. Be concise and accurate."

const ChatSystemPrompt = "You are a helpful search assistant. Answer the user's question based on the provided context. If the context doesn't contain enough information, say so. Always cite your sources."

var languageNames = map[string]string{
	"en": "English",
	"sk": "Slovak",
	"de": "German",
}

// LanguageName maps a supported language code to the name used in prompts.
// Unknown codes fall back to English.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

// SupportedLanguages lists the accepted language codes.
func SupportedLanguages() []string {
	return []string{"en", "sk", "de"}
}

// SummarizePrompt grounds the question in context and pins the answer
// language.
func SummarizePrompt(query, context, language string) string {
	var b strings.Builder
	b.WriteString("You are a helpful search assistant. Answer the user's question based ONLY on the provided sources.\n\n")
	b.WriteString("Sources:\n")
	b.WriteString(context)
	fmt.Fprintf(&b, "\nUser Question: %s\n\n", query)
	b.WriteString("Instructions:\n")
	fmt.Fprintf(&b, "- Answer in %s\n", LanguageName(language))
	b.WriteString("- Use only information from the sources\n")
	b.WriteString("- Be concise and accurate (2-3 paragraphs maximum)\n")
	b.WriteString("- If sources don't contain the answer, say so\n")
	b.WriteString("- Do not make up information\n\n")
	b.WriteString("Answer:")
	return b.String()
}

// ChatPrompt is the prompt of the legacy combined endpoint.
func ChatPrompt(query, context string) string {
	var b strings.Builder
	b.WriteString("Context from search results:\n")
	b.WriteString(context)
	fmt.Fprintf(&b, "\nUser question: %s\n\n", query)
	b.WriteString("Please provide a helpful answer based on the context above.")
	return b.String()
}
