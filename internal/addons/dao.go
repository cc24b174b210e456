package addons

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type AddonGroupEntity struct {
	ID                    uint  `gorm:"primaryKey;autoIncrement"`
	LocalSiteID           int   `gorm:"not null;index"`
	RemoteGroupID         int64 `gorm:"not null"`
	Name                  string
	Priority              int
	RestrictedCategoryIDs string
	Addons                string
}

func (AddonGroupEntity) TableName() string { return "addon_groups" }

type ProductAddonsEntity struct {
	ID            uint  `gorm:"primaryKey;autoIncrement"`
	LocalSiteID   int   `gorm:"not null;uniqueIndex:idx_product_addons_site_product"`
	ProductID     int64 `gorm:"not null;uniqueIndex:idx_product_addons_site_product"`
	ExcludeGlobal bool
	Addons        string
}

func (ProductAddonsEntity) TableName() string { return "product_addons" }

type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

// ReplaceGlobalGroups deja sólo los grupos dados para el sitio.
func (d *DAO) ReplaceGlobalGroups(ctx context.Context, localSiteID int, groups []AddonGroup) error {
	entities := make([]AddonGroupEntity, 0, len(groups))
	for _, g := range groups {
		addons, err := EncodeAddons(g.Addons)
		if err != nil {
			return fmt.Errorf("encoding addons of group %d: %w", g.ID, err)
		}
		categories, err := json.Marshal(g.RestrictedCategoryIDs)
		if err != nil {
			return fmt.Errorf("encoding categories of group %d: %w", g.ID, err)
		}
		entities = append(entities, AddonGroupEntity{
			LocalSiteID:           localSiteID,
			RemoteGroupID:         g.ID,
			Name:                  g.Name,
			Priority:              g.Priority,
			RestrictedCategoryIDs: string(categories),
			Addons:                addons,
		})
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ?", localSiteID).Delete(&AddonGroupEntity{}).Error; err != nil {
			return fmt.Errorf("clear addon groups: %w", err)
		}
		if len(entities) == 0 {
			return nil
		}
		if err := tx.Create(&entities).Error; err != nil {
			return fmt.Errorf("insert addon groups: %w", err)
		}
		return nil
	})
}

// GetGlobalGroups devuelve los grupos ordenados por prioridad.
func (d *DAO) GetGlobalGroups(ctx context.Context, localSiteID int) ([]AddonGroup, error) {
	var entities []AddonGroupEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ?", localSiteID).
		Order("priority, remote_group_id").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list addon groups: %w", err)
	}

	groups := make([]AddonGroup, 0, len(entities))
	for _, e := range entities {
		addons, err := DecodeAddons(e.Addons)
		if err != nil {
			return nil, fmt.Errorf("decoding addons of group %d: %w", e.RemoteGroupID, err)
		}
		categories := []int64{}
		if e.RestrictedCategoryIDs != "" {
			if err := json.Unmarshal([]byte(e.RestrictedCategoryIDs), &categories); err != nil {
				return nil, fmt.Errorf("decoding categories of group %d: %w", e.RemoteGroupID, err)
			}
		}
		groups = append(groups, AddonGroup{
			ID:                    e.RemoteGroupID,
			Name:                  e.Name,
			Priority:              e.Priority,
			RestrictedCategoryIDs: categories,
			Addons:                addons,
		})
	}
	return groups, nil
}

func (d *DAO) UpsertProductAddons(ctx context.Context, localSiteID int, product ProductAddons) error {
	addons, err := EncodeAddons(product.Addons)
	if err != nil {
		return fmt.Errorf("encoding addons of product %d: %w", product.ProductID, err)
	}
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ? AND product_id = ?", localSiteID, product.ProductID).
			Delete(&ProductAddonsEntity{}).Error; err != nil {
			return fmt.Errorf("clear product addons: %w", err)
		}
		entity := ProductAddonsEntity{
			LocalSiteID:   localSiteID,
			ProductID:     product.ProductID,
			ExcludeGlobal: product.ExcludeGlobal,
			Addons:        addons,
		}
		if err := tx.Create(&entity).Error; err != nil {
			return fmt.Errorf("insert product addons: %w", err)
		}
		return nil
	})
}

// GetProductAddons devuelve nil si el producto no fue traído todavía.
func (d *DAO) GetProductAddons(ctx context.Context, localSiteID int, productID int64) (*ProductAddons, error) {
	var entity ProductAddonsEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ? AND product_id = ?", localSiteID, productID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product addons %d: %w", productID, err)
	}
	addons, err := DecodeAddons(entity.Addons)
	if err != nil {
		return nil, fmt.Errorf("decoding addons of product %d: %w", productID, err)
	}
	return &ProductAddons{ProductID: entity.ProductID, ExcludeGlobal: entity.ExcludeGlobal, Addons: addons}, nil
}

func (d *DAO) DeleteForSite(ctx context.Context, localSiteID int) (int64, error) {
	var total int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("local_site_id = ?", localSiteID).Delete(&AddonGroupEntity{})
		if res.Error != nil {
			return fmt.Errorf("delete addon groups: %w", res.Error)
		}
		total += res.RowsAffected
		res = tx.Where("local_site_id = ?", localSiteID).Delete(&ProductAddonsEntity{})
		if res.Error != nil {
			return fmt.Errorf("delete product addons: %w", res.Error)
		}
		total += res.RowsAffected
		return nil
	})
	return total, err
}
