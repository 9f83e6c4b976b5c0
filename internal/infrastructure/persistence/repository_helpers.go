package persistence

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// versioned is implemented by persistence models embedding models.AggregateModel
type versioned interface {
	SetVersion(v int)
}

// saveVersioned inserts the model when no row with the ID exists. Otherwise it
// updates every column, guarded by the expected version, and bumps the version.
// Associations are written by the caller. It returns the stored version.
func saveVersioned(tx *gorm.DB, model versioned, id uuid.UUID, expected int) (int, error) {
	var versions []int
	if err := tx.Model(model).Where("id = ?", id).Pluck("version", &versions).Error; err != nil {
		return 0, err
	}

	if len(versions) == 0 {
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			return 0, translateError(err)
		}
		return expected, nil
	}

	if versions[0] != expected {
		return 0, shared.ErrConcurrencyConflict
	}

	next := expected + 1
	model.SetVersion(next)
	result := tx.Model(model).
		Where("version = ?", expected).
		Select("*").
		Omit(clause.Associations, "created_at").
		Updates(model)
	if result.Error != nil {
		return 0, translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrConcurrencyConflict
	}
	return next, nil
}

// translateError maps driver errors onto domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	}
	return err
}

// paginate applies offset and limit from a normalised filter
func paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	filter.Normalize()
	return query.Offset(filter.Offset()).Limit(filter.PageSize)
}

// orderBy applies a whitelisted sort. sortFields maps API sort keys to columns.
func orderBy(query *gorm.DB, filter shared.Filter, sortFields map[string]string, defaultColumn string) *gorm.DB {
	column, ok := sortFields[strings.TrimSpace(filter.OrderBy)]
	if !ok {
		column = defaultColumn
	}
	return query.Order(column + " " + ValidateSortOrder(filter.OrderDir))
}

// likePattern builds a case-insensitive LIKE pattern; use with LOWER(column)
func likePattern(search string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(strings.TrimSpace(search)))
	return "%" + escaped + "%"
}
