package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"cardsage/internal/llm"
)

// CardContext is the best-effort classification of one query: which card
// it concerns and what kind of information is requested. Never persisted.
type CardContext struct {
	Name     string `json:"entityName"`
	Slug     string `json:"entitySlug"`
	Category string `json:"requestedInfoCategory"`
}

// detectCardContext issues one low-temperature auxiliary model call and
// parses the first JSON object in the reply. Any failure, or an all-null
// result, means "no detection" and is never surfaced to the user.
func detectCardContext(ctx context.Context, provider llm.Provider, query string) *CardContext {
	resp, err := provider.Chat(ctx, &llm.ChatRequest{
		Messages:    []llm.Message{{Role: "user", Content: classifierPrompt(query)}},
		Temperature: 0.1,
		MaxTokens:   256,
	})
	if err != nil {
		log.Printf("[classify] model call failed: %v", err)
		return nil
	}

	obj := firstJSONObject(resp.Content)
	if obj == "" {
		return nil
	}

	var cc CardContext
	if err := json.Unmarshal([]byte(obj), &cc); err != nil {
		log.Printf("[classify] unparseable reply: %v", err)
		return nil
	}
	if cc == (CardContext{}) {
		return nil
	}
	return &cc
}

func classifierPrompt(query string) string {
	names := make([]string, 0, len(cardCatalog))
	for name := range cardCatalog {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Classify the user question below about credit card products.\n")
	b.WriteString("Known cards and their slugs:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "- %s: %s\n", name, cardCatalog[name])
	}
	b.WriteString("Information categories: ")
	b.WriteString(strings.Join(append(append([]string{}, baseCategories...), CategoryLinks), ", "))
	b.WriteString("\n\nRespond with a single JSON object of the form ")
	b.WriteString(`{"entityName": ..., "entitySlug": ..., "requestedInfoCategory": ...}`)
	b.WriteString(" using null for anything you cannot determine. No other text.\n\nQuestion: ")
	b.WriteString(query)
	return b.String()
}

// firstJSONObject extracts the first balanced {...} block from s,
// tolerating prose around it.
func firstJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
