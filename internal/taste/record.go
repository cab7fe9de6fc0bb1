// Package taste holds the taste-record entity, the codec between raw documents
// and vector index entries, and the prompt augmentation formatter.
package taste

import (
	"fmt"
	"strconv"
)

// Metadata field names as stored in the vector index.
const (
	FieldUserID         = "user_id"
	FieldIngredient     = "ingredient"
	FieldAmount         = "amount"
	FieldUnit           = "unit"
	FieldServings       = "servings"
	FieldCuisine        = "cuisine"
	FieldFeedbackWeight = "feedback_weight"
	FieldOriginalText   = "original_text"
)

// DefaultFeedbackWeight is the confidence score assigned to freshly ingested records.
const DefaultFeedbackWeight = 1.0

// Record is one user's observed ingredient-quantity preference. ID is the join
// key with the source document store and the vector index's primary key; it
// never changes once the record is created.
type Record struct {
	ID             string
	UserID         string
	Ingredient     string
	Amount         float64
	Unit           string
	Servings       int
	Cuisine        string
	FeedbackWeight float64
	// OriginalText is the derived text the stored embedding was computed from.
	OriginalText string
}

// ScoredRecord is a record together with its similarity score from a query.
type ScoredRecord struct {
	Record Record
	Score  float64
}

// DerivedText renders the canonical embedding input for the record's current
// fields: "{ingredient} {amount}{unit} for {servings} servings in {cuisine} cuisine".
// This text is the sole input to the embedding function; the stored embedding
// must always correspond to it.
func (r Record) DerivedText() string {
	return DerivedText(r.Ingredient, r.Amount, r.Unit, r.Servings, r.Cuisine)
}

// DerivedText renders the canonical embedding input from individual fields.
func DerivedText(ingredient string, amount float64, unit string, servings int, cuisine string) string {
	return fmt.Sprintf("%s %s%s for %d servings in %s cuisine",
		ingredient, FormatAmount(amount), unit, servings, cuisine)
}

// Metadata projects the record into the loosely-typed metadata map stored in
// the vector index.
func (r Record) Metadata() map[string]any {
	return map[string]any{
		FieldUserID:         r.UserID,
		FieldIngredient:     r.Ingredient,
		FieldAmount:         r.Amount,
		FieldUnit:           r.Unit,
		FieldServings:       r.Servings,
		FieldCuisine:        r.Cuisine,
		FieldFeedbackWeight: r.FeedbackWeight,
		FieldOriginalText:   r.OriginalText,
	}
}

// FormatAmount renders an amount without trailing zeros (110 not 110.000000),
// matching how derived texts were rendered at ingestion time.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
