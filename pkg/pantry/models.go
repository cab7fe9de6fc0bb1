package pantry

// Document is one taste observation document as stored in the pantry service.
// Field names match the wire format the indexer expects (user_id, ingredient,
// amount, unit, servings, cuisine, feedback_weight).
type Document map[string]any

// ID returns the document identifier, checking "id" then "_id".
func (d Document) ID() string {
	if id, ok := d["id"].(string); ok {
		return id
	}

	if id, ok := d["_id"].(string); ok {
		return id
	}

	return ""
}

// DocumentsResponse wraps a page of taste documents.
type DocumentsResponse struct {
	Data       []Document `json:"data"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// Change is one entry in the pantry change feed.
type Change struct {
	Operation  string   `json:"operation"`
	DocumentID string   `json:"document_id"`
	Document   Document `json:"document,omitempty"`
}

// ChangesResponse wraps a page of the change feed.
type ChangesResponse struct {
	Data       []Change `json:"data"`
	NextCursor string   `json:"next_cursor,omitempty"`
}
