package poi

import "strings"

// convenienceChains are name substrings that mark a place as a
// convenience store regardless of its shop tag. Matched
// case-insensitively against the display name.
var convenienceChains = []string{
	"7-eleven",
	"7-11",
	"familymart",
	"family mart",
	"lawson",
	"ministop",
	"mini big c",
	"lotus",
	"cj express",
}

// classificationRule pairs a category with its predicate.
type classificationRule struct {
	category string
	matches  func(tags map[string]string, name string) bool
}

// classificationRules is evaluated top to bottom; the first match
// wins, so a place is never counted in two categories. Unmatched
// places are dropped.
var classificationRules = []classificationRule{
	{CategoryResidential, func(tags map[string]string, _ string) bool {
		return tags["landuse"] == "residential" || tags["building"] == "apartments"
	}},
	{CategoryConvenience, func(tags map[string]string, name string) bool {
		if tags["shop"] == "convenience" {
			return true
		}
		lower := strings.ToLower(name)
		for _, chain := range convenienceChains {
			if strings.Contains(lower, chain) {
				return true
			}
		}
		return false
	}},
	{CategoryShopping, func(tags map[string]string, _ string) bool {
		switch tags["shop"] {
		case "supermarket", "mall", "department_store":
			return true
		}
		return tags["amenity"] == "marketplace"
	}},
	{CategoryFood, func(tags map[string]string, _ string) bool {
		switch tags["amenity"] {
		case "restaurant", "cafe", "fast_food", "food_court":
			return true
		}
		return false
	}},
	{CategoryTransport, func(tags map[string]string, _ string) bool {
		if _, ok := tags["public_transport"]; ok {
			return true
		}
		return tags["railway"] == "station" ||
			tags["highway"] == "bus_stop" ||
			tags["amenity"] == "bus_station"
	}},
	{CategoryRecreation, func(tags map[string]string, _ string) bool {
		switch tags["leisure"] {
		case "park", "fitness_centre", "fitness_station", "sports_centre", "playground":
			return true
		}
		return false
	}},
	{CategoryPublicService, func(tags map[string]string, _ string) bool {
		switch tags["amenity"] {
		case "post_office", "police", "hospital", "clinic":
			return true
		}
		return tags["office"] == "government"
	}},
}

// Classify assigns a tagged place to exactly one category, or returns
// "" when no rule matches. The name participates because convenience
// chains are often tagged as supermarkets or left untagged.
func Classify(tags map[string]string, name string) string {
	for _, rule := range classificationRules {
		if rule.matches(tags, name) {
			return rule.category
		}
	}
	return ""
}
