package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustomerEntity struct {
	ID               uint  `gorm:"primaryKey;autoIncrement"`
	LocalSiteID      int   `gorm:"not null;uniqueIndex:idx_customers_site_remote"`
	RemoteCustomerID int64 `gorm:"not null;uniqueIndex:idx_customers_site_remote"`
	DateCreated      string
	Email            string `gorm:"index"`
	FirstName        string
	LastName         string
	Username         string
	Role             string
	AvatarURL        string
	IsPayingCustomer bool
	Billing          woo.Address `gorm:"embedded;embeddedPrefix:billing_"`
	Shipping         woo.Address `gorm:"embedded;embeddedPrefix:shipping_"`
}

func (CustomerEntity) TableName() string { return "customers" }

func toEntity(localSiteID int, c Customer) CustomerEntity {
	return CustomerEntity{
		LocalSiteID:      localSiteID,
		RemoteCustomerID: c.RemoteCustomerID,
		DateCreated:      c.DateCreated,
		Email:            c.Email,
		FirstName:        c.FirstName,
		LastName:         c.LastName,
		Username:         c.Username,
		Role:             c.Role,
		AvatarURL:        c.AvatarURL,
		IsPayingCustomer: c.IsPayingCustomer,
		Billing:          c.Billing,
		Shipping:         c.Shipping,
	}
}

func (e CustomerEntity) toModel() Customer {
	return Customer{
		RemoteCustomerID: e.RemoteCustomerID,
		DateCreated:      e.DateCreated,
		Email:            e.Email,
		FirstName:        e.FirstName,
		LastName:         e.LastName,
		Username:         e.Username,
		Role:             e.Role,
		AvatarURL:        e.AvatarURL,
		IsPayingCustomer: e.IsPayingCustomer,
		Billing:          e.Billing,
		Shipping:         e.Shipping,
	}
}

var upsertClause = clause.OnConflict{
	Columns:   []clause.Column{{Name: "local_site_id"}, {Name: "remote_customer_id"}},
	UpdateAll: true,
}

type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

func (d *DAO) InsertOrUpdate(ctx context.Context, localSiteID int, customers ...Customer) error {
	if len(customers) == 0 {
		return nil
	}
	entities := make([]CustomerEntity, 0, len(customers))
	for _, c := range customers {
		entities = append(entities, toEntity(localSiteID, c))
	}
	if err := d.db.WithContext(ctx).Clauses(upsertClause).Create(&entities).Error; err != nil {
		return fmt.Errorf("upsert customers: %w", err)
	}
	return nil
}

// Replace deja sólo los clientes dados para el sitio.
func (d *DAO) Replace(ctx context.Context, localSiteID int, customers []Customer) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ?", localSiteID).Delete(&CustomerEntity{}).Error; err != nil {
			return fmt.Errorf("clear customers: %w", err)
		}
		return NewDAO(tx).InsertOrUpdate(ctx, localSiteID, customers...)
	})
}

func (d *DAO) Get(ctx context.Context, localSiteID int, remoteID int64) (*Customer, error) {
	var entity CustomerEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ? AND remote_customer_id = ?", localSiteID, remoteID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", remoteID, err)
	}
	model := entity.toModel()
	return &model, nil
}

func (d *DAO) GetForSite(ctx context.Context, localSiteID int) ([]Customer, error) {
	var entities []CustomerEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ?", localSiteID).
		Order("remote_customer_id DESC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	customers := make([]Customer, 0, len(entities))
	for _, e := range entities {
		customers = append(customers, e.toModel())
	}
	return customers, nil
}

func (d *DAO) DeleteForSite(ctx context.Context, localSiteID int) (int64, error) {
	res := d.db.WithContext(ctx).Where("local_site_id = ?", localSiteID).Delete(&CustomerEntity{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete customers: %w", res.Error)
	}
	return res.RowsAffected, nil
}
