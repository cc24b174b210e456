package refunds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/juancollazo-ch/woo-fluxc-service/internal/convert"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RefundEntity: (local_site_id, order_id, refund_id) es único. Las líneas se guardan como JSON.
type RefundEntity struct {
	ID                     uint  `gorm:"primaryKey;autoIncrement"`
	LocalSiteID            int   `gorm:"not null;uniqueIndex:idx_refunds_site_order_refund"`
	OrderID                int64 `gorm:"not null;uniqueIndex:idx_refunds_site_order_refund"`
	RefundID               int64 `gorm:"not null;uniqueIndex:idx_refunds_site_order_refund"`
	DateCreated            string
	Amount                 string
	Reason                 string
	AutomaticGatewayRefund bool
	Items                  string
	ShippingLines          string
	FeeLines               string
}

func (RefundEntity) TableName() string { return "refunds" }

func toEntity(localSiteID int, r Refund) (RefundEntity, error) {
	lines := r.linesDTO()
	items, err := json.Marshal(lines.LineItems)
	if err != nil {
		return RefundEntity{}, fmt.Errorf("encoding refund items: %w", err)
	}
	shipping, err := json.Marshal(lines.ShippingLines)
	if err != nil {
		return RefundEntity{}, fmt.Errorf("encoding shipping lines: %w", err)
	}
	fees, err := json.Marshal(lines.FeeLines)
	if err != nil {
		return RefundEntity{}, fmt.Errorf("encoding fee lines: %w", err)
	}
	return RefundEntity{
		LocalSiteID:            localSiteID,
		OrderID:                r.OrderID,
		RefundID:               r.ID,
		DateCreated:            r.DateCreated,
		Amount:                 convert.AmountString(r.Amount),
		Reason:                 r.Reason,
		AutomaticGatewayRefund: r.AutomaticGatewayRefund,
		Items:                  string(items),
		ShippingLines:          string(shipping),
		FeeLines:               string(fees),
	}, nil
}

func (e RefundEntity) toModel() (Refund, error) {
	amount, err := decimal.NewFromString(e.Amount)
	if err != nil {
		return Refund{}, fmt.Errorf("decoding refund amount: %w", err)
	}

	// las líneas se guardan con la forma del DTO y se vuelven a mapear igual que una respuesta
	var lines RefundDTO
	if err := unmarshalIfSet(e.Items, &lines.LineItems); err != nil {
		return Refund{}, fmt.Errorf("decoding refund items: %w", err)
	}
	if err := unmarshalIfSet(e.ShippingLines, &lines.ShippingLines); err != nil {
		return Refund{}, fmt.Errorf("decoding shipping lines: %w", err)
	}
	if err := unmarshalIfSet(e.FeeLines, &lines.FeeLines); err != nil {
		return Refund{}, fmt.Errorf("decoding fee lines: %w", err)
	}

	refund := lines.ToModel(e.OrderID)
	refund.ID = e.RefundID
	refund.DateCreated = e.DateCreated
	refund.Amount = amount
	refund.Reason = e.Reason
	refund.AutomaticGatewayRefund = e.AutomaticGatewayRefund
	return refund, nil
}

func unmarshalIfSet(raw string, target any) error {
	if raw == "" || raw == "null" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

var upsertClause = clause.OnConflict{
	Columns: []clause.Column{{Name: "local_site_id"}, {Name: "order_id"}, {Name: "refund_id"}},
	DoUpdates: clause.AssignmentColumns([]string{
		"date_created", "amount", "reason", "automatic_gateway_refund", "items", "shipping_lines", "fee_lines",
	}),
}

type DAO struct {
	db *gorm.DB
}

func NewDAO(db *gorm.DB) *DAO {
	return &DAO{db: db}
}

func (d *DAO) Upsert(ctx context.Context, localSiteID int, refunds ...Refund) error {
	if len(refunds) == 0 {
		return nil
	}
	entities := make([]RefundEntity, 0, len(refunds))
	for _, r := range refunds {
		entity, err := toEntity(localSiteID, r)
		if err != nil {
			return err
		}
		entities = append(entities, entity)
	}
	if err := d.db.WithContext(ctx).Clauses(upsertClause).Create(&entities).Error; err != nil {
		return fmt.Errorf("upsert refunds: %w", err)
	}
	return nil
}

// ReplaceForOrder deja sólo los reembolsos dados para la orden.
func (d *DAO) ReplaceForOrder(ctx context.Context, localSiteID int, orderID int64, refunds []Refund) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("local_site_id = ? AND order_id = ?", localSiteID, orderID).Delete(&RefundEntity{}).Error; err != nil {
			return fmt.Errorf("clear refunds for order %d: %w", orderID, err)
		}
		return NewDAO(tx).Upsert(ctx, localSiteID, refunds...)
	})
}

func (d *DAO) Get(ctx context.Context, localSiteID int, orderID, refundID int64) (*Refund, error) {
	var entity RefundEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ? AND order_id = ? AND refund_id = ?", localSiteID, orderID, refundID).
		First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get refund %d: %w", refundID, err)
	}
	refund, err := entity.toModel()
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

// GetForOrder devuelve los reembolsos de la orden, el más nuevo primero.
func (d *DAO) GetForOrder(ctx context.Context, localSiteID int, orderID int64) ([]Refund, error) {
	var entities []RefundEntity
	err := d.db.WithContext(ctx).
		Where("local_site_id = ? AND order_id = ?", localSiteID, orderID).
		Order("refund_id DESC").
		Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("list refunds for order %d: %w", orderID, err)
	}
	refunds := make([]Refund, 0, len(entities))
	for _, e := range entities {
		refund, err := e.toModel()
		if err != nil {
			return nil, err
		}
		refunds = append(refunds, refund)
	}
	return refunds, nil
}

func (d *DAO) DeleteForSite(ctx context.Context, localSiteID int) (int64, error) {
	res := d.db.WithContext(ctx).Where("local_site_id = ?", localSiteID).Delete(&RefundEntity{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete refunds: %w", res.Error)
	}
	return res.RowsAffected, nil
}
