package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationRepository executes generic operations on whitelisted
// relations. This is the server half of the contract field devices
// consume: upserts are atomic per row and idempotent when replayed with
// an identical payload, inserts never dedupe.
type RelationRepository interface {
	Select(ctx context.Context, relation string, filter map[string]interface{}) ([]map[string]interface{}, error)
	Insert(ctx context.Context, relation string, rows []map[string]interface{}) (int64, error)
	Upsert(ctx context.Context, relation string, rows []map[string]interface{}, conflictKey []string) (int64, error)
	Delete(ctx context.Context, relation string, filter map[string]interface{}) (int64, error)
	Count(ctx context.Context, relation string, filter map[string]interface{}) (int64, error)
}

// ErrUnknownRelation rejects relation names outside the whitelist.
var ErrUnknownRelation = errors.New("unknown relation")

// ErrUnknownColumn rejects filter/payload columns outside the relation schema.
var ErrUnknownColumn = errors.New("unknown column")

// ErrEmptyFilter rejects unfiltered deletes.
var ErrEmptyFilter = errors.New("filter must not be empty")

// ErrEmptyConflictKey rejects upserts with no inference target; gorm
// would otherwise render ON CONFLICT DO UPDATE without columns, which
// postgres refuses.
var ErrEmptyConflictKey = errors.New("conflict key must not be empty")

// relationSchemas whitelists the relations reachable through the
// gateway and the columns writable on each.
var relationSchemas = map[string]map[string]bool{
	"members": cols("member_id", "first_name", "surname", "trabajadera", "role",
		"season_year", "phone", "email", "height_cm", "shoe_height_cm",
		"created_at", "updated_at"),
	"events": cols("event_id", "name", "location", "start_at", "end_at",
		"season_year", "created_at", "updated_at"),
	"attendance": cols("attendance_id", "event_id", "member_id", "status",
		"marked_at", "member_name", "height_pre_cm", "height_post_cm",
		"created_at", "updated_at"),
	"notices": cols("notice_id", "member_id", "event_id", "type", "title",
		"message", "reason", "is_read", "created_at", "updated_at"),
	"season_config": cols("config_key", "config_value", "updated_at"),
}

func cols(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

type relationRepo struct {
	db *gorm.DB
}

// NewRelationRepo creates the gorm-backed RelationRepository.
func NewRelationRepo(db *gorm.DB) RelationRepository {
	return &relationRepo{db: db}
}

func validate(relation string, keys ...map[string]interface{}) error {
	schema, ok := relationSchemas[relation]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRelation, relation)
	}
	for _, m := range keys {
		for k := range m {
			if !schema[k] {
				return fmt.Errorf("%w: %s.%s", ErrUnknownColumn, relation, k)
			}
		}
	}
	return nil
}

func (r *relationRepo) Select(ctx context.Context, relation string, filter map[string]interface{}) ([]map[string]interface{}, error) {
	if err := validate(relation, filter); err != nil {
		return nil, err
	}
	var rows []map[string]interface{}
	q := r.db.WithContext(ctx).Table(relation)
	if len(filter) > 0 {
		q = q.Where(filter)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *relationRepo) Insert(ctx context.Context, relation string, rows []map[string]interface{}) (int64, error) {
	if err := validate(relation, rows...); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Table(relation).Create(rows)
	return result.RowsAffected, result.Error
}

func (r *relationRepo) Upsert(ctx context.Context, relation string, rows []map[string]interface{}, conflictKey []string) (int64, error) {
	if err := validate(relation, rows...); err != nil {
		return 0, err
	}
	if len(conflictKey) == 0 {
		return 0, ErrEmptyConflictKey
	}
	if len(rows) == 0 {
		return 0, nil
	}
	schema := relationSchemas[relation]

	conflictCols := make([]clause.Column, 0, len(conflictKey))
	conflictSet := make(map[string]bool, len(conflictKey))
	for _, k := range conflictKey {
		if !schema[k] {
			return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, relation, k)
		}
		conflictCols = append(conflictCols, clause.Column{Name: k})
		conflictSet[k] = true
	}

	// update every payload column that is not part of the key
	updateCols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		if !conflictSet[k] {
			updateCols = append(updateCols, k)
		}
	}

	result := r.db.WithContext(ctx).Table(relation).
		Clauses(clause.OnConflict{
			Columns:   conflictCols,
			DoUpdates: clause.AssignmentColumns(updateCols),
		}).
		Create(rows)
	return result.RowsAffected, result.Error
}

func (r *relationRepo) Delete(ctx context.Context, relation string, filter map[string]interface{}) (int64, error) {
	if err := validate(relation, filter); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	result := r.db.WithContext(ctx).Table(relation).Where(filter).Delete(nil)
	return result.RowsAffected, result.Error
}

func (r *relationRepo) Count(ctx context.Context, relation string, filter map[string]interface{}) (int64, error) {
	if err := validate(relation, filter); err != nil {
		return 0, err
	}
	var total int64
	q := r.db.WithContext(ctx).Table(relation)
	if len(filter) > 0 {
		q = q.Where(filter)
	}
	err := q.Count(&total).Error
	return total, err
}
