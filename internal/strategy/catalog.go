package strategy

import "strings"

// Retrieval content categories. Every indexed chunk carries exactly one.
const (
	CategoryOverview    = "overview"
	CategoryBenefits    = "benefits"
	CategoryFees        = "fees"
	CategoryEligibility = "eligibility"
	CategoryLinks       = "links"
)

// baseCategories is the fixed set queried on every targeted retrieval.
var baseCategories = []string{
	CategoryOverview,
	CategoryBenefits,
	CategoryFees,
	CategoryEligibility,
}

// cardCatalog maps known card names to their retrieval slugs. The
// classifier prompt embeds this mapping as guidance.
var cardCatalog = map[string]string{
	"Platinum Rewards": "platinum-rewards",
	"Cashback Plus":    "cashback-plus",
	"Voyager Miles":    "voyager-miles",
	"Everyday Saver":   "everyday-saver",
	"Business Prime":   "business-prime",
	"Student Start":    "student-start",
}

// linkKeywords trigger the extra "links" retrieval category when the
// user appears to want reference links or documents.
var linkKeywords = []string{
	"link", "url", "website", "document", "apply", "application",
	"form", "pdf", "download", "site",
}

// wantsLinks reports whether a query suggests the user is after
// reference links or documents.
func wantsLinks(query string) bool {
	lower := strings.ToLower(query)
	for _, kw := range linkKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// retrievalCategories returns the category set for one query.
func retrievalCategories(query string) []string {
	cats := make([]string, len(baseCategories))
	copy(cats, baseCategories)
	if wantsLinks(query) {
		cats = append(cats, CategoryLinks)
	}
	return cats
}
