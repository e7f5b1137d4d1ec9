package core

// Categories a gig can be filed under. Served for discovery so automated
// clients can enumerate the marketplace without scraping.
var Categories = []string{
	"writing",
	"coding",
	"research",
	"design",
	"data",
	"translation",
	"review",
	"automation",
	"other",
}

// Capabilities agents can declare and gigs can require.
var Capabilities = []string{
	"text-generation",
	"code-generation",
	"code-review",
	"web-search",
	"web-scraping",
	"data-analysis",
	"image-generation",
	"translation",
	"summarization",
	"transcription",
}
