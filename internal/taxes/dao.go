package taxes

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TaxClassEntity struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	LocalSiteID int  `gorm:"not null;index"`
	Name        string
	Slug        string
}

func (TaxClassEntity) TableName() string { return "tax_classes" }

type TaxRateEntity struct {
	ID          uint  `gorm:"primaryKey;autoIncrement"`
	LocalSiteID int   `gorm:"not null;uniqueIndex:idx_tax_rates_site_rate"`
	RateID      int64 `gorm:"not null;uniqueIndex:idx_tax_rates_site_rate"`
	Country     string
	State       string
	Postcode    string
	City        string
	Rate        string
	Name        string
	Priority    int
	Compound    bool
	Shipping    bool
	SortOrder   int
	TaxClass    string
}

func (TaxRateEntity) TableName() string { return "tax_rates" }

func rateEntity(localSiteID int, r TaxRate) TaxRateEntity {
	return TaxRateEntity{
		LocalSiteID: localSiteID,
		RateID:      r.ID,
		Country:     r.Country,
		State:       r.State,
		Postcode:    r.Postcode,
		City:        r.City,
		Rate:        r.Rate,
		Name:        r.Name,
		Priority:    r.Priority,
		Compound:    r.Compound,
		Shipping:    r.Shipping,
		SortOrder:   r.Order,
		TaxClass:    r.TaxClass,
	}
}

func (e TaxRateEntity) toModel() TaxRate {
	return TaxRate{
		ID:       e.RateID,
		Country:  e.Country,
		State:    e.State,
		Postcode: e.Postcode,
		City:     e.City,
		Rate:     e.Rate,
		Name:     e.Name,
		Priority: e.Priority,
		Compound: e.Compound,
		Shipping: e.Shipping,
		Order:    e.SortOrder,
		TaxClass: e.TaxClass,
	}
}

var rateUpsert = clause.OnConflict{
	Columns: []clause.Column{{Name: "local_site_id"}, {Name: "rate_id"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"country", "state", "postcode", "city", "rate", "name",
		"priority", "compound", "shipping", "sort_order", "tax_class",
	}),
}

type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

// ReplaceTaxClasses borra las clases del sitio e inserta las nuevas.
func (d *DAO) ReplaceTaxClasses(ctx context.Context, localSiteID int, classes []TaxClass) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ?", localSiteID).Delete(&TaxClassEntity{}).Error; err != nil {
			return fmt.Errorf("clear tax classes: %w", err)
		}
		if len(classes) == 0 {
			return nil
		}
		entities := make([]TaxClassEntity, 0, len(classes))
		for _, c := range classes {
			entities = append(entities, TaxClassEntity{LocalSiteID: localSiteID, Name: c.Name, Slug: c.Slug})
		}
		if err := tx.Create(&entities).Error; err != nil {
			return fmt.Errorf("insert tax classes: %w", err)
		}
		return nil
	})
}

// InsertTaxClass agrega una clase sin tocar las existentes (misma slug -> se reemplaza).
func (d *DAO) InsertTaxClass(ctx context.Context, localSiteID int, class TaxClass) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ? AND slug = ?", localSiteID, class.Slug).Delete(&TaxClassEntity{}).Error; err != nil {
			return fmt.Errorf("clear tax class %s: %w", class.Slug, err)
		}
		entity := TaxClassEntity{LocalSiteID: localSiteID, Name: class.Name, Slug: class.Slug}
		if err := tx.Create(&entity).Error; err != nil {
			return fmt.Errorf("insert tax class %s: %w", class.Slug, err)
		}
		return nil
	})
}

func (d *DAO) GetTaxClasses(ctx context.Context, localSiteID int) ([]TaxClass, error) {
	var entities []TaxClassEntity
	if err := d.db.WithContext(ctx).Where("local_site_id = ?", localSiteID).Order("id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list tax classes: %w", err)
	}
	classes := make([]TaxClass, 0, len(entities))
	for _, e := range entities {
		classes = append(classes, TaxClass{Name: e.Name, Slug: e.Slug})
	}
	return classes, nil
}

// UpsertTaxRates inserta o actualiza por (sitio, rate id). clearFirst vacía las tasas del sitio antes.
func (d *DAO) UpsertTaxRates(ctx context.Context, localSiteID int, rates []TaxRate, clearFirst bool) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if clearFirst {
			if err := tx.Where("local_site_id = ?", localSiteID).Delete(&TaxRateEntity{}).Error; err != nil {
				return fmt.Errorf("clear tax rates: %w", err)
			}
		}
		if len(rates) == 0 {
			return nil
		}
		entities := make([]TaxRateEntity, 0, len(rates))
		for _, r := range rates {
			entities = append(entities, rateEntity(localSiteID, r))
		}
		if err := tx.Clauses(rateUpsert).Create(&entities).Error; err != nil {
			return fmt.Errorf("upsert tax rates: %w", err)
		}
		return nil
	})
}

func (d *DAO) GetTaxRate(ctx context.Context, localSiteID int, rateID int64) (*TaxRate, error) {
	var entity TaxRateEntity
	err := d.db.WithContext(ctx).Where("local_site_id = ? AND rate_id = ?", localSiteID, rateID).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tax rate %d: %w", rateID, err)
	}
	model := entity.toModel()
	return &model, nil
}

// GetTaxRates lista las tasas del sitio; class vacío no filtra.
func (d *DAO) GetTaxRates(ctx context.Context, localSiteID int, class string) ([]TaxRate, error) {
	query := d.db.WithContext(ctx).Where("local_site_id = ?", localSiteID)
	if class != "" {
		query = query.Where("tax_class = ?", class)
	}
	var entities []TaxRateEntity
	if err := query.Order("sort_order, rate_id").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list tax rates: %w", err)
	}
	rates := make([]TaxRate, 0, len(entities))
	for _, e := range entities {
		rates = append(rates, e.toModel())
	}
	return rates, nil
}

func (d *DAO) DeleteForSite(ctx context.Context, localSiteID int) (int64, error) {
	var total int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("local_site_id = ?", localSiteID).Delete(&TaxClassEntity{})
		if res.Error != nil {
			return fmt.Errorf("delete tax classes: %w", res.Error)
		}
		total += res.RowsAffected
		res = tx.Where("local_site_id = ?", localSiteID).Delete(&TaxRateEntity{})
		if res.Error != nil {
			return fmt.Errorf("delete tax rates: %w", res.Error)
		}
		total += res.RowsAffected
		return nil
	})
	return total, err
}
