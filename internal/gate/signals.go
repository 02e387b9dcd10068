package gate

import "regexp"

// Signal patterns used only for presence checks. Value parsing (with
// plausibility ranges) is the extractor's job; the gate only needs to know
// the signal exists at all.
var (
	// "8th gen", "8 gen", "gen 8", "generation 8"
	generationRE = regexp.MustCompile(`(?i)\b(?:\d{1,2}\s*(?:th|st|nd|rd)?\s*gen(?:eration)?|gen(?:eration)?\s*\d{1,2})\b`)

	// "16gb ram", "16 gb ram", "ram 16gb", "ram: 16 gb"
	ramRE = regexp.MustCompile(`(?i)\b(?:\d{1,3}\s*gb\s*ram|ram\s*:?\s*\d{1,3}\s*gb)\b`)
)
