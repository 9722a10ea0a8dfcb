package planner

import "strings"

// DefaultStaples are pantry basics assumed to be on hand. They are never planned or bought.
// "ice" is left out: as a substring it would also drop rice and juice.
var DefaultStaples = []string{
	"salt", "pepper", "black pepper", "white pepper",
	"olive oil", "vegetable oil", "canola oil", "cooking oil", "butter",
	"garlic powder", "onion powder", "paprika", "cumin", "oregano", "basil", "thyme",
	"rosemary", "bay leaves", "cinnamon", "nutmeg", "cayenne pepper", "red pepper flakes",
	"water", "flour", "sugar", "brown sugar", "baking soda", "baking powder", "vanilla extract",
	"soy sauce", "vinegar", "apple cider vinegar", "white vinegar", "balsamic vinegar",
	"worcestershire sauce", "hot sauce", "mustard", "ketchup", "mayonnaise",
}

// StapleSet matches canonical ingredient names against a staple list.
type StapleSet struct {
	terms []string
}

func NewStapleSet(staples []string) StapleSet {
	seen := map[string]bool{}
	var terms []string
	for _, s := range staples {
		c := CanonicalName(s)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		terms = append(terms, c)
	}
	return StapleSet{terms: terms}
}

// Contains reports whether name is a staple or has one as a substring.
func (s StapleSet) Contains(name string) bool {
	name = CanonicalName(name)
	for _, t := range s.terms {
		if strings.Contains(name, t) {
			return true
		}
	}
	return false
}

// CanonicalName lower-cases a name and joins its words with underscores: "Garlic Powder " -> "garlic_powder".
func CanonicalName(name string) string {
	fields := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '-' || r == '_'
	})
	return strings.Join(fields, "_")
}
