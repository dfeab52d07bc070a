package extract

// Default extraction field sets per product type. These are the field names
// the rest of the system recognizes; anything else an extractor returns
// lands in the record's extra bag.

var commonFields = []string{
	"name", "brand", "producer", "description",
	"country", "region", "abv", "volume_ml",
	"nose", "palate", "finish",
	"awards", "price",
}

var schemaByType = map[string][]string{
	"wine": append([]string{
		"vintage", "grape_varieties", "style", "sweetness", "color",
	}, commonFields...),
	"whiskey": append([]string{
		"age_statement", "cask_type", "mash_bill",
	}, commonFields...),
	"spirits": append([]string{
		"style", "botanicals", "cask_type",
	}, commonFields...),
}

// DefaultSchema returns the full field set for a product type. Unknown
// types fall back to the common field set.
func DefaultSchema(productType string) []string {
	if s, ok := schemaByType[productType]; ok {
		return s
	}
	return commonFields
}

// KnownFields returns the default schema as a set, for coercing extractor
// output into typed records.
func KnownFields(productType string) map[string]bool {
	schema := DefaultSchema(productType)
	set := make(map[string]bool, len(schema))
	for _, f := range schema {
		set[f] = true
	}
	return set
}
