package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/juancollazo-ch/woo-fluxc-service/internal/woo"
	"gorm.io/gorm"
)

// OrderEntity: ID es el id local. Los borradores locales tienen remote_order_id = 0.
type OrderEntity struct {
	ID                 int64 `gorm:"primaryKey;autoIncrement"`
	LocalSiteID        int   `gorm:"not null;index:idx_orders_site_remote"`
	RemoteOrderID      int64 `gorm:"not null;index:idx_orders_site_remote"`
	Number             string
	Status             string `gorm:"index"`
	Currency           string
	DateCreated        string `gorm:"index"`
	DateModified       string
	DatePaid           string
	Total              string
	TotalTax           string
	ShippingTotal      string
	DiscountTotal      string
	CustomerID         int64
	CustomerNote       string
	PaymentMethod      string
	PaymentMethodTitle string
	Billing            woo.Address      `gorm:"embedded;embeddedPrefix:billing_"`
	Shipping           woo.Address      `gorm:"embedded;embeddedPrefix:shipping_"`
	LineItems          []LineItemEntity `gorm:"foreignKey:OrderLocalID;constraint:OnDelete:CASCADE"`
}

func (OrderEntity) TableName() string { return "orders" }

type LineItemEntity struct {
	ID           uint  `gorm:"primaryKey;autoIncrement"`
	OrderLocalID int64 `gorm:"not null;index"`
	RemoteItemID int64
	ProductID    int64
	VariationID  int64
	Name         string
	SKU          string
	Quantity     int
	Subtotal     string
	Total        string
	TotalTax     string
	Price        string
}

func (LineItemEntity) TableName() string { return "order_line_items" }

func toEntity(o Order) OrderEntity {
	entity := OrderEntity{
		ID:                 o.LocalID,
		LocalSiteID:        o.LocalSiteID,
		RemoteOrderID:      o.RemoteOrderID,
		Number:             o.Number,
		Status:             o.Status,
		Currency:           o.Currency,
		DateCreated:        o.DateCreated,
		DateModified:       o.DateModified,
		DatePaid:           o.DatePaid,
		Total:              convert.AmountString(o.Total),
		TotalTax:           convert.AmountString(o.TotalTax),
		ShippingTotal:      convert.AmountString(o.ShippingTotal),
		DiscountTotal:      convert.AmountString(o.DiscountTotal),
		CustomerID:         o.CustomerID,
		CustomerNote:       o.CustomerNote,
		PaymentMethod:      o.PaymentMethod,
		PaymentMethodTitle: o.PaymentMethodTitle,
		Billing:            o.Billing,
		Shipping:           o.Shipping,
	}
	return entity
}

func lineItemEntities(orderLocalID int64, items []LineItem) []LineItemEntity {
	entities := make([]LineItemEntity, 0, len(items))
	for _, item := range items {
		entities = append(entities, LineItemEntity{
			OrderLocalID: orderLocalID,
			RemoteItemID: item.RemoteItemID,
			ProductID:    item.ProductID,
			VariationID:  item.VariationID,
			Name:         item.Name,
			SKU:          item.SKU,
			Quantity:     item.Quantity,
			Subtotal:     convert.AmountString(item.Subtotal),
			Total:        convert.AmountString(item.Total),
			TotalTax:     convert.AmountString(item.TotalTax),
			Price:        convert.AmountString(item.Price),
		})
	}
	return entities
}

func (e OrderEntity) toModel() Order {
	order := Order{
		LocalID:            e.ID,
		LocalSiteID:        e.LocalSiteID,
		RemoteOrderID:      e.RemoteOrderID,
		Number:             e.Number,
		Status:             e.Status,
		Currency:           e.Currency,
		DateCreated:        e.DateCreated,
		DateModified:       e.DateModified,
		DatePaid:           e.DatePaid,
		Total:              convert.ParseAmount(e.Total),
		TotalTax:           convert.ParseAmount(e.TotalTax),
		ShippingTotal:      convert.ParseAmount(e.ShippingTotal),
		DiscountTotal:      convert.ParseAmount(e.DiscountTotal),
		CustomerID:         e.CustomerID,
		CustomerNote:       e.CustomerNote,
		PaymentMethod:      e.PaymentMethod,
		PaymentMethodTitle: e.PaymentMethodTitle,
		Billing:            e.Billing,
		Shipping:           e.Shipping,
		LineItems:          make([]LineItem, 0, len(e.LineItems)),
	}
	for _, item := range e.LineItems {
		order.LineItems = append(order.LineItems, LineItem{
			RemoteItemID: item.RemoteItemID,
			ProductID:    item.ProductID,
			VariationID:  item.VariationID,
			Name:         item.Name,
			SKU:          item.SKU,
			Quantity:     item.Quantity,
			Subtotal:     convert.ParseAmount(item.Subtotal),
			Total:        convert.ParseAmount(item.Total),
			TotalTax:     convert.ParseAmount(item.TotalTax),
			Price:        convert.ParseAmount(item.Price),
		})
	}
	return order
}

type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("LineItems", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") })
}

// InsertOrUpdate busca la fila por id local (si viene) o por id remoto, y la reemplaza
// junto con sus line items. Devuelve la orden con LocalID asignado.
func (d *DAO) InsertOrUpdate(ctx context.Context, order Order) (Order, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing OrderEntity
		var err error
		switch {
		case order.LocalID > 0:
			err = tx.Where("id = ? AND local_site_id = ?", order.LocalID, order.LocalSiteID).First(&existing).Error
		case order.RemoteOrderID > 0:
			err = tx.Where("local_site_id = ? AND remote_order_id = ?", order.LocalSiteID, order.RemoteOrderID).First(&existing).Error
		default:
			err = gorm.ErrRecordNotFound
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lookup order: %w", err)
		}

		entity := toEntity(order)
		if err == nil {
			entity.ID = existing.ID
			if err := tx.Omit("LineItems").Save(&entity).Error; err != nil {
				return fmt.Errorf("update order %d: %w", entity.ID, err)
			}
			if err := tx.Where("order_local_id = ?", entity.ID).Delete(&LineItemEntity{}).Error; err != nil {
				return fmt.Errorf("clear line items: %w", err)
			}
		} else {
			entity.ID = 0
			if err := tx.Omit("LineItems").Create(&entity).Error; err != nil {
				return fmt.Errorf("insert order: %w", err)
			}
		}

		items := lineItemEntities(entity.ID, order.LineItems)
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return fmt.Errorf("insert line items: %w", err)
			}
		}
		order.LocalID = entity.ID
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	return order, nil
}

// UpdateStatus cambia sólo el estado de la fila local.
func (d *DAO) UpdateStatus(ctx context.Context, localSiteID int, localID int64, status string) error {
	res := d.db.WithContext(ctx).Model(&OrderEntity{}).
		Where("id = ? AND local_site_id = ?", localID, localSiteID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update status of order %d: %w", localID, res.Error)
	}
	return nil
}

func (d *DAO) find(ctx context.Context, localSiteID int, id woo.LocalOrRemoteID) (*OrderEntity, error) {
	query := preloadItems(d.db.WithContext(ctx))
	if id.IsLocal() {
		query = query.Where("local_site_id = ? AND id = ?", localSiteID, id.Value())
	} else {
		query = query.Where("local_site_id = ? AND remote_order_id = ?", localSiteID, id.Value())
	}

	var entity OrderEntity
	err := query.First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	return &entity, nil
}

// Get devuelve nil si la orden no está guardada.
func (d *DAO) Get(ctx context.Context, localSiteID int, id woo.LocalOrRemoteID) (*Order, error) {
	entity, err := d.find(ctx, localSiteID, id)
	if err != nil || entity == nil {
		return nil, err
	}
	order := entity.toModel()
	return &order, nil
}

// GetForSite lista las órdenes del sitio, las más nuevas primero. statuses vacío = todas.
func (d *DAO) GetForSite(ctx context.Context, localSiteID int, statuses ...string) ([]Order, error) {
	query := preloadItems(d.db.WithContext(ctx)).Where("local_site_id = ?", localSiteID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var entities []OrderEntity
	if err := query.Order("date_created DESC, id DESC").Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	orders := make([]Order, 0, len(entities))
	for _, e := range entities {
		orders = append(orders, e.toModel())
	}
	return orders, nil
}

// Delete borra la orden y sus line items. Devuelve las filas de órdenes borradas.
func (d *DAO) Delete(ctx context.Context, localSiteID int, id woo.LocalOrRemoteID) (int64, error) {
	entity, err := d.find(ctx, localSiteID, id)
	if err != nil || entity == nil {
		return 0, err
	}
	res := d.db.WithContext(ctx).Select("LineItems").Delete(entity)
	if res.Error != nil {
		return 0, fmt.Errorf("delete order %s: %w", id, res.Error)
	}
	return res.RowsAffected, nil
}

func (d *DAO) DeleteForSite(ctx context.Context, localSiteID int) (int64, error) {
	var total int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderIDs := tx.Model(&OrderEntity{}).Select("id").Where("local_site_id = ?", localSiteID)
		if err := tx.Where("order_local_id IN (?)", orderIDs).Delete(&LineItemEntity{}).Error; err != nil {
			return fmt.Errorf("delete line items: %w", err)
		}
		res := tx.Where("local_site_id = ?", localSiteID).Delete(&OrderEntity{})
		if res.Error != nil {
			return fmt.Errorf("delete orders: %w", res.Error)
		}
		total = res.RowsAffected
		return nil
	})
	return total, err
}
