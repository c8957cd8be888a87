package classify

import "slices"

const (
	UnknownCategory = "Unknown"
	Uncategorized   = "Uncategorized"
)

// Taxonomy is the fixed category enumeration plus the tag literals that only
// describe an image's resolution.
type Taxonomy struct {
	Categories       []string `json:"categories"`
	ResolutionLabels []string `json:"resolution_labels"`
}

func Default() Taxonomy {
	return Taxonomy{
		Categories:       []string{"Items", "Blocks", "Mobs", "GUI", "Particles", "Weapons", "Paintings"},
		ResolutionLabels: []string{"1024x1024", "512x512"},
	}
}

// Classify picks (main, sub) from tags in the order the detail view lists them.
// main is the first tag in the category set; sub is the first remaining tag
// that is neither a resolution label nor main.
func (t Taxonomy) Classify(tags []string) (main, sub string) {
	main = UnknownCategory
	for _, tag := range tags {
		if slices.Contains(t.Categories, tag) {
			main = tag
			break
		}
	}

	sub = Uncategorized
	for _, tag := range tags {
		if tag == main || slices.Contains(t.ResolutionLabels, tag) {
			continue
		}
		sub = tag
		break
	}
	return main, sub
}

// Classify uses the default taxonomy.
func Classify(tags []string) (main, sub string) {
	return Default().Classify(tags)
}
