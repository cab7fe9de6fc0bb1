package taste

import (
	"fmt"
	"math"
)

// Display fallbacks for records with missing metadata. These are display-only;
// the codec never indexes records without the real values.
const (
	fallbackIngredient = "an ingredient"
	fallbackCuisine    = "a specific"
)

// FormatPreference renders the top retrieved preference, scaled to the
// requested serving count, as natural-language text for prompt augmentation.
//
// When the stored serving count allows it, the amount is scaled by
// requestedServings/storedServings and rounded to two decimals. When it does
// not (stored servings missing or non-positive), the raw stored amount is
// reported with its own serving count instead. Missing display fields get
// neutral defaults; this function never fails.
func FormatPreference(match *ScoredRecord, ingredient string, requestedServings int) string {
	if match == nil {
		return fmt.Sprintf("No preference found for %s.", displayIngredient(ingredient))
	}

	record := match.Record
	name := displayIngredient(ingredient)
	cuisine := record.Cuisine

	if cuisine == "" {
		cuisine = fallbackCuisine
	}

	if record.Servings > 0 && requestedServings > 0 {
		scalingFactor := float64(requestedServings) / float64(record.Servings)
		adjusted := roundTo2(record.Amount * scalingFactor)

		return fmt.Sprintf(
			"Based on your taste history, use %s%s of %s for %d servings in %s cuisine (similarity %.2f, feedback weight %.1f).",
			FormatAmount(adjusted), record.Unit, name, requestedServings, cuisine,
			match.Score, record.FeedbackWeight,
		)
	}

	return fmt.Sprintf(
		"Based on your taste history, you previously used %s%s of %s for %d servings in %s cuisine (similarity %.2f, feedback weight %.1f).",
		FormatAmount(record.Amount), record.Unit, name, record.Servings, cuisine,
		match.Score, record.FeedbackWeight,
	)
}

// FormatLookupError renders the per-ingredient line for a lookup that failed
// mid-flight (embedding or index outage). Deliberately distinct from the
// no-preference line so callers can tell an outage from an absent preference.
func FormatLookupError(ingredient string) string {
	return fmt.Sprintf("Error processing %s.", displayIngredient(ingredient))
}

func displayIngredient(ingredient string) string {
	if ingredient == "" {
		return fallbackIngredient
	}

	return fmt.Sprintf("'%s'", ingredient)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
