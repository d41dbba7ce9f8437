package facet

// DefaultCatalog is the fixed set of object names the detector recognizes.
// It seeds the options panel so the user can pick an object manually when
// detection is skipped or wrong.
var DefaultCatalog = []string{
	"candy", "cereal", "chips", "chocolate", "coffee",
	"corn", "fish", "flour", "jam", "milk",
	"pasta", "soda", "spices", "tea", "water",
}
