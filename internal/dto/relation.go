package dto

// Wire format of the generic relations gateway consumed by field
// devices. Rows are schemaless maps; the server validates relation
// names, filter columns and conflict keys against a whitelist.

// RelationQuery carries an equality filter for select/delete/count.
type RelationQuery struct {
	Filter map[string]interface{} `json:"filter,omitempty"`
}

// RelationWrite carries rows for insert/upsert. ConflictKey names the
// columns the upsert is keyed on; ignored for plain inserts.
type RelationWrite struct {
	Rows        []map[string]interface{} `json:"rows" binding:"required"`
	ConflictKey []string                 `json:"conflict_key,omitempty"`
}

// RelationRows is the select result.
type RelationRows struct {
	Rows []map[string]interface{} `json:"rows"`
}

// RelationCount is the count result.
type RelationCount struct {
	Count int64 `json:"count"`
}

// RelationAffected reports rows touched by insert/upsert/delete.
type RelationAffected struct {
	Affected int64 `json:"affected"`
}
