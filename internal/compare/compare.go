package compare

import (
	"go.uber.org/zap"
)

// OrderSnapshot es lo mínimo de una orden que hace falta para comparar estados
type OrderSnapshot struct {
	RemoteOrderID int64
	Number        string
	Status        string
	ProductNames  []string
}

// Result describe el resultado de la comparación
type Result struct {
	Changed       bool     `json:"changed"`    // true si hubo cambio
	IsNew         bool     `json:"is_new"`     // la orden no estaba guardada
	OldStatus     string   `json:"old_status"` // status persistido
	NewStatus     string   `json:"new_status"` // status recién traído
	RemoteOrderID int64    `json:"remote_order_id"`
	Number        string   `json:"number"`
	ProductNames  []string `json:"product_names"` // nombres de los productos en la orden
}

// CompareOrderStatus evalúa si cambió el estado entre la orden guardada y la recién traída.
// Una orden nueva (previous nil) no cuenta como cambio.
func CompareOrderStatus(previous *OrderSnapshot, current OrderSnapshot, logger *zap.Logger) Result {
	if logger == nil {
		logger = zap.NewNop()
	}

	result := Result{
		NewStatus:     current.Status,
		RemoteOrderID: current.RemoteOrderID,
		Number:        current.Number,
		ProductNames:  current.ProductNames,
	}

	if previous == nil {
		result.IsNew = true
		logger.Debug("compare: order not stored yet",
			zap.Int64("order_id", current.RemoteOrderID),
			zap.String("status", current.Status),
		)
		return result
	}

	result.OldStatus = previous.Status
	result.Changed = previous.Status != current.Status

	if result.Changed {
		logger.Info("compare: status change detected",
			zap.Int64("order_id", current.RemoteOrderID),
			zap.String("from", previous.Status),
			zap.String("to", current.Status),
		)
	} else {
		logger.Debug("compare: no change in status",
			zap.Int64("order_id", current.RemoteOrderID),
			zap.String("status", current.Status),
		)
	}

	return result
}
