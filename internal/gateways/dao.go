package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GatewayEntity es la fila persistida; (local_site_id, gateway_id) es único.
type GatewayEntity struct {
	ID                uint   `gorm:"primaryKey;autoIncrement"`
	LocalSiteID       int    `gorm:"not null;uniqueIndex:idx_gateways_site_gateway"`
	GatewayID         string `gorm:"not null;uniqueIndex:idx_gateways_site_gateway"`
	Title             string
	Description       string
	SortOrder         int
	Enabled           bool
	MethodTitle       string
	MethodDescription string
	Features          string // JSON
}

func (GatewayEntity) TableName() string { return "gateways" }

func toEntity(localSiteID int, g Gateway) (GatewayEntity, error) {
	features, err := json.Marshal(g.Features)
	if err != nil {
		return GatewayEntity{}, fmt.Errorf("encoding features: %w", err)
	}
	return GatewayEntity{
		LocalSiteID:       localSiteID,
		GatewayID:         g.GatewayID,
		Title:             g.Title,
		Description:       g.Description,
		SortOrder:         g.Order,
		Enabled:           g.IsEnabled,
		MethodTitle:       g.MethodTitle,
		MethodDescription: g.MethodDescription,
		Features:          string(features),
	}, nil
}

func (e GatewayEntity) toModel() (Gateway, error) {
	features := []string{}
	if e.Features != "" && e.Features != "null" {
		if err := json.Unmarshal([]byte(e.Features), &features); err != nil {
			return Gateway{}, fmt.Errorf("decoding features of gateway %s: %w", e.GatewayID, err)
		}
	}
	return Gateway{
		GatewayID:         e.GatewayID,
		Title:             e.Title,
		Description:       e.Description,
		Order:             e.SortOrder,
		IsEnabled:         e.Enabled,
		MethodTitle:       e.MethodTitle,
		MethodDescription: e.MethodDescription,
		Features:          features,
	}, nil
}

var upsertClause = clause.OnConflict{
	Columns: []clause.Column{{Name: "local_site_id"}, {Name: "gateway_id"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"title", "description", "sort_order", "enabled", "method_title", "method_description", "features",
	}),
}

type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

// Upsert inserta o actualiza un gateway del sitio.
func (d *DAO) Upsert(ctx context.Context, localSiteID int, g Gateway) error {
	entity, err := toEntity(localSiteID, g)
	if err != nil {
		return err
	}
	if err := d.db.WithContext(ctx).Clauses(upsertClause).Create(&entity).Error; err != nil {
		return fmt.Errorf("upsert gateway %s: %w", g.GatewayID, err)
	}
	return nil
}

// UpsertAll reemplaza el conjunto de gateways del sitio en una transacción.
func (d *DAO) UpsertAll(ctx context.Context, localSiteID int, gateways []Gateway) error {
	entities := make([]GatewayEntity, 0, len(gateways))
	for _, g := range gateways {
		entity, err := toEntity(localSiteID, g)
		if err != nil {
			return err
		}
		entities = append(entities, entity)
	}

	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ?", localSiteID).Delete(&GatewayEntity{}).Error; err != nil {
			return fmt.Errorf("clear gateways: %w", err)
		}
		if len(entities) == 0 {
			return nil
		}
		if err := tx.Clauses(upsertClause).Create(&entities).Error; err != nil {
			return fmt.Errorf("insert gateways: %w", err)
		}
		return nil
	})
}

// Get devuelve nil si el gateway no está guardado.
func (d *DAO) Get(ctx context.Context, localSiteID int, gatewayID string) (*Gateway, error) {
	var entity GatewayEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ? AND gateway_id = ?", localSiteID, gatewayID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get gateway %s: %w", gatewayID, err)
	}
	model, err := entity.toModel()
	if err != nil {
		return nil, err
	}
	return &model, nil
}

func (d *DAO) GetAll(ctx context.Context, localSiteID int) ([]Gateway, error) {
	var entities []GatewayEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ?", localSiteID).
		Order("sort_order, gateway_id").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list gateways: %w", err)
	}
	gateways := make([]Gateway, 0, len(entities))
	for _, e := range entities {
		g, err := e.toModel()
		if err != nil {
			return nil, err
		}
		gateways = append(gateways, g)
	}
	return gateways, nil
}

func (d *DAO) DeleteForSite(ctx context.Context, localSiteID int) (int64, error) {
	res := d.db.WithContext(ctx).Where("local_site_id = ?", localSiteID).Delete(&GatewayEntity{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete gateways: %w", res.Error)
	}
	return res.RowsAffected, nil
}
