package taste

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

// ErrRejected marks a document that failed codec validation. Batch callers
// count these and continue; they are never raised as batch failures.
var ErrRejected = errors.New("taste: record rejected")

// Codec converts loosely-typed taste documents into vector index entries and
// back. Encode computes the derived text and invokes the embedding function, so
// an entry's vector always corresponds to its own derived text.
type Codec struct {
	embedder embeddings.Client
	logger   *slog.Logger
}

// NewCodec creates a codec using the given embedding client. Logger may be nil.
func NewCodec(embedder embeddings.Client, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}

	return &Codec{embedder: embedder, logger: logger}
}

// Encode validates and coerces a raw field bag into an index write entry.
//
// Required fields (non-nil, non-empty): id, user_id, ingredient, amount,
// servings, cuisine. unit defaults to "" and feedback_weight to 1.0 when
// absent; an uncoercible feedback_weight falls back to 1.0 with a warning
// rather than failing the record. Missing or uncoercible required fields
// reject the document with ErrRejected.
func (c *Codec) Encode(ctx context.Context, fields map[string]any) (*vectorindex.Entry, error) {
	id := documentID(fields)
	if id == "" {
		return nil, fmt.Errorf("%w: missing id", ErrRejected)
	}

	userID, ok := nonEmptyString(fields[FieldUserID])
	if !ok {
		return nil, fmt.Errorf("%w: missing user_id (id=%s)", ErrRejected, id)
	}

	ingredient, ok := nonEmptyString(fields[FieldIngredient])
	if !ok {
		return nil, fmt.Errorf("%w: missing ingredient (id=%s)", ErrRejected, id)
	}

	cuisine, ok := nonEmptyString(fields[FieldCuisine])
	if !ok {
		return nil, fmt.Errorf("%w: missing cuisine (id=%s)", ErrRejected, id)
	}

	amount, ok := toFloat(fields[FieldAmount])
	if !ok {
		return nil, fmt.Errorf("%w: amount %v is not numeric (id=%s)", ErrRejected, fields[FieldAmount], id)
	}

	servings, ok := toInt(fields[FieldServings])
	if !ok || servings <= 0 {
		return nil, fmt.Errorf("%w: servings %v is not a positive integer (id=%s)", ErrRejected, fields[FieldServings], id)
	}

	unit := ""
	if u, ok := fields[FieldUnit].(string); ok {
		unit = u
	}

	weight := DefaultFeedbackWeight

	if raw, present := fields[FieldFeedbackWeight]; present && raw != nil {
		if w, ok := toFloat(raw); ok {
			weight = w
		} else {
			c.logger.Warn("taste codec: feedback_weight not numeric, using default",
				"id", id, "feedback_weight", raw)
		}
	}

	record := Record{
		ID:             id,
		UserID:         userID,
		Ingredient:     ingredient,
		Amount:         amount,
		Unit:           unit,
		Servings:       servings,
		Cuisine:        cuisine,
		FeedbackWeight: weight,
	}
	record.OriginalText = record.DerivedText()

	vector, err := c.embedder.CreateEmbedding(ctx, record.OriginalText)
	if err != nil {
		return nil, fmt.Errorf("embed derived text (id=%s): %w", id, err)
	}

	return &vectorindex.Entry{
		ID:       record.ID,
		Vector:   vector,
		Metadata: record.Metadata(),
	}, nil
}

// EncodeRecord builds an index entry from an already-structured record,
// recomputing the derived text and its embedding in one step. Used by the
// feedback path so amount, derived text, and vector can never diverge.
func (c *Codec) EncodeRecord(ctx context.Context, record Record) (*vectorindex.Entry, error) {
	record.OriginalText = record.DerivedText()

	vector, err := c.embedder.CreateEmbedding(ctx, record.OriginalText)
	if err != nil {
		return nil, fmt.Errorf("embed derived text (id=%s): %w", record.ID, err)
	}

	return &vectorindex.Entry{
		ID:       record.ID,
		Vector:   vector,
		Metadata: record.Metadata(),
	}, nil
}

// Decode projects stored index metadata back into a structured record for
// display and update use. Missing or mistyped fields decode to zero values;
// display-only gaps are tolerated here and handled by the formatter.
func Decode(id string, metadata map[string]any) Record {
	record := Record{ID: id}

	if v, ok := metadata[FieldUserID].(string); ok {
		record.UserID = v
	}

	if v, ok := metadata[FieldIngredient].(string); ok {
		record.Ingredient = v
	}

	if v, ok := toFloat(metadata[FieldAmount]); ok {
		record.Amount = v
	}

	if v, ok := metadata[FieldUnit].(string); ok {
		record.Unit = v
	}

	if v, ok := toInt(metadata[FieldServings]); ok {
		record.Servings = v
	}

	if v, ok := metadata[FieldCuisine].(string); ok {
		record.Cuisine = v
	}

	if v, ok := toFloat(metadata[FieldFeedbackWeight]); ok {
		record.FeedbackWeight = v
	}

	if v, ok := metadata[FieldOriginalText].(string); ok {
		record.OriginalText = v
	}

	return record
}

// documentID returns the document's id, accepting both "id" and the source
// store's "_id" key.
func documentID(fields map[string]any) string {
	if id, ok := nonEmptyString(fields["id"]); ok {
		return id
	}

	if id, ok := nonEmptyString(fields["_id"]); ok {
		return id
	}

	return ""
}

func nonEmptyString(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// toFloat coerces the numeric shapes that JSON decoding and callers produce.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(val, 64)

		return f, err == nil
	default:
		return 0, false
	}
}

// toInt coerces to int, accepting whole-valued floats (JSON numbers).
func toInt(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}

	n := int(f)
	if float64(n) != f {
		return 0, false
	}

	return n, true
}
