package discovery

import "strings"

// synonyms maps an industry label to the search phrases that find its
// businesses. Labels not listed here are searched as-is.
var synonyms = map[string][]string{
	"hvac":                {"hvac", "heating", "air conditioning", "mechanical contractor"},
	"plumbing":            {"plumbing", "drain cleaning", "water heater repair"},
	"electrical":          {"electrical contractor", "electrician", "electrical service"},
	"roofing":             {"roofing", "roof repair", "commercial roofing"},
	"landscaping":         {"landscaping", "lawn care", "landscape maintenance", "tree service"},
	"commercial cleaning": {"commercial cleaning", "janitorial", "office cleaning"},
	"cleaning":            {"cleaning", "janitorial", "maid service"},
	"pest control":        {"pest control", "exterminator", "termite control"},
	"auto repair":         {"auto repair", "auto body", "transmission repair"},
	"painting":            {"painting contractor", "commercial painting", "house painting"},
	"fire protection":     {"fire protection", "fire sprinkler", "fire alarm"},
	"garage doors":        {"garage door repair", "overhead door"},
	"pool service":        {"pool service", "pool cleaning", "pool repair"},
	"fencing":             {"fence", "fencing contractor"},
	"concrete":            {"concrete", "concrete contractor", "paving"},
	"flooring":            {"flooring", "floor installation", "carpet installation"},
	"septic":              {"septic service", "septic pumping"},
	"appliance repair":    {"appliance repair"},
	"welding":             {"welding", "metal fabrication"},
	"restoration":         {"water damage restoration", "fire damage restoration", "mold remediation"},
}

// typeWords mark a phrase that already names a kind of business.
var typeWords = map[string]bool{
	"service": true, "services": true,
	"contractor": true, "contractors": true,
	"company": true, "companies": true,
}

var cleaningWords = []string{"clean", "janitor", "maid", "custodial"}

// ExpandKeywords turns industry labels into search keywords: synonyms first
// (capped at maxBase), then one "service"/"contractor" variant for each
// keyword that lacks a business-type word. The result never drops a base
// keyword and otherwise stops at maxTotal.
func ExpandKeywords(industries []string, maxBase, maxTotal int) []string {
	seen := map[string]bool{}
	add := func(dst []string, kw string) []string {
		kw = strings.Join(strings.Fields(strings.ToLower(kw)), " ")
		if kw == "" || seen[kw] {
			return dst
		}
		seen[kw] = true
		return append(dst, kw)
	}

	var base []string
	for _, ind := range industries {
		key := strings.Join(strings.Fields(strings.ToLower(ind)), " ")
		if key == "" {
			continue
		}
		syns, ok := synonyms[key]
		if !ok {
			syns = []string{key}
		}
		for _, s := range syns {
			if len(base) >= maxBase {
				break
			}
			base = add(base, s)
		}
	}

	out := append([]string(nil), base...)
	for _, kw := range base {
		if hasTypeWord(kw) {
			continue
		}
		out = add(out, withModifier(kw))
	}

	limit := max(maxTotal, len(base))
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func hasTypeWord(kw string) bool {
	for _, w := range strings.Fields(kw) {
		if typeWords[w] {
			return true
		}
	}
	return false
}

func withModifier(kw string) string {
	for _, w := range cleaningWords {
		if strings.Contains(kw, w) {
			return kw + " service"
		}
	}
	return kw + " contractor"
}
