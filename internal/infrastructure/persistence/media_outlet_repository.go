package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/linkmarket/backend/internal/domain/catalog"
	"github.com/linkmarket/backend/internal/domain/shared"
	"github.com/linkmarket/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMediaOutletRepository implements catalog.MediaOutletRepository using GORM
type GormMediaOutletRepository struct {
	db *gorm.DB
}

// NewGormMediaOutletRepository creates a new GormMediaOutletRepository
func NewGormMediaOutletRepository(db *gorm.DB) *GormMediaOutletRepository {
	return &GormMediaOutletRepository{db: db}
}

// FindByID finds an outlet with its niche rules
func (r *GormMediaOutletRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.MediaOutlet, error) {
	var model models.MediaOutletModel
	if err := r.db.WithContext(ctx).
		Preload("NicheRules").
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several outlets at once; missing IDs are skipped
func (r *GormMediaOutletRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.MediaOutlet, error) {
	if len(ids) == 0 {
		return []*catalog.MediaOutlet{}, nil
	}
	var rows []models.MediaOutletModel
	if err := r.db.WithContext(ctx).
		Preload("NicheRules").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toOutlets(rows), nil
}

// FindByDomain finds an outlet by its normalised domain
func (r *GormMediaOutletRepository) FindByDomain(ctx context.Context, domain string) (*catalog.MediaOutlet, error) {
	var model models.MediaOutletModel
	if err := r.db.WithContext(ctx).
		Preload("NicheRules").
		Where("domain = ?", domain).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns outlets matching the browse filters plus the total count
func (r *GormMediaOutletRepository) FindAll(ctx context.Context, filter catalog.OutletFilter) ([]*catalog.MediaOutlet, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.MediaOutletModel{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.MediaOutletModel
	query = orderBy(query, filter.Filter, OutletSortFields, "created_at")
	if err := paginate(query, filter.Filter).Preload("NicheRules").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toOutlets(rows), total, nil
}

func (r *GormMediaOutletRepository) applyFilter(query *gorm.DB, filter catalog.OutletFilter) *gorm.DB {
	if filter.PublisherID != nil {
		query = query.Where("publisher_id = ?", *filter.PublisherID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Language != "" {
		query = query.Where("language = ?", filter.Language)
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.LinkType != nil {
		query = query.Where("link_type = ?", *filter.LinkType)
	}
	if filter.MinPrice != nil {
		query = query.Where("base_price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("base_price <= ?", *filter.MaxPrice)
	}
	if filter.MinDomainAuthority != nil {
		query = query.Where("domain_authority >= ?", *filter.MinDomainAuthority)
	}
	if filter.Niche != nil {
		// general is accepted unless explicitly refused; other niches need an explicit acceptance
		if *filter.Niche == catalog.NicheGeneral {
			query = query.Where("NOT EXISTS (SELECT 1 FROM niche_rules nr WHERE nr.outlet_id = media_outlets.id AND nr.niche = ? AND nr.accepted = ?)",
				catalog.NicheGeneral, false)
		} else {
			query = query.Where("EXISTS (SELECT 1 FROM niche_rules nr WHERE nr.outlet_id = media_outlets.id AND nr.niche = ? AND nr.accepted = ?)",
				*filter.Niche, true)
		}
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR domain LIKE ?", pattern, pattern)
	}
	return query
}

// Save creates or updates an outlet and replaces its niche rules without a version check
func (r *GormMediaOutletRepository) Save(ctx context.Context, outlet *catalog.MediaOutlet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.MediaOutletModelFromDomain(outlet)
		if err := tx.Omit("NicheRules").Save(model).Error; err != nil {
			return translateDomainError(err)
		}
		return r.replaceRules(tx, outlet)
	})
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormMediaOutletRepository) SaveWithLock(ctx context.Context, outlet *catalog.MediaOutlet) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.MediaOutletModelFromDomain(outlet)
		version, err := saveVersioned(tx, model, outlet.ID, outlet.Version)
		if err != nil {
			return translateDomainError(err)
		}
		if err := r.replaceRules(tx, outlet); err != nil {
			return err
		}
		outlet.Version = version
		return nil
	})
}

// replaceRules makes the stored rules equal to the aggregate's rules
func (r *GormMediaOutletRepository) replaceRules(tx *gorm.DB, outlet *catalog.MediaOutlet) error {
	if err := tx.Where("outlet_id = ?", outlet.ID).Delete(&models.NicheRuleModel{}).Error; err != nil {
		return err
	}
	if len(outlet.NicheRules) == 0 {
		return nil
	}
	rules := make([]models.NicheRuleModel, len(outlet.NicheRules))
	for i, rule := range outlet.NicheRules {
		rules[i] = models.NicheRuleModelFromDomain(outlet.ID, rule)
		outlet.NicheRules[i].ID = rules[i].ID
		outlet.NicheRules[i].OutletID = outlet.ID
	}
	return tx.Create(&rules).Error
}

// translateDomainError reports a duplicate domain as DOMAIN_TAKEN
func translateDomainError(err error) error {
	err = translateError(err)
	if errors.Is(err, shared.ErrAlreadyExists) {
		return catalog.ErrDomainTaken
	}
	return err
}

func toOutlets(rows []models.MediaOutletModel) []*catalog.MediaOutlet {
	outlets := make([]*catalog.MediaOutlet, len(rows))
	for i := range rows {
		outlets[i] = rows[i].ToDomain()
	}
	return outlets
}

// Ensure GormMediaOutletRepository implements MediaOutletRepository
var _ catalog.MediaOutletRepository = (*GormMediaOutletRepository)(nil)
