// internal/services/serial_service.go
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/database"
	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/serial"
)

// SerialService owns the order serial lifecycle: validating sold, returned
// and replacement submissions and persisting them only when every check
// passes. Nothing is written on a validation failure.
type SerialService struct {
	db        *gorm.DB
	validator *serial.Validator
}

func NewSerialService(db *gorm.DB, validator *serial.Validator) *SerialService {
	return &SerialService{db: db, validator: validator}
}

// SaveSerialsRequest is one full submission of an order's serial state. The
// returned and replacement modes are mutually exclusive; when both flags are
// submitted, returned mode wins.
type SaveSerialsRequest struct {
	SoldSerials        string `json:"sold_serials"`
	SkipValidation     bool   `json:"skip_validation"`
	EnableReturned     bool   `json:"enable_returned"`
	ReturnedSerials    string `json:"returned_serials"`
	EnableReplacement  bool   `json:"enable_replacement"`
	ReplacementOrderNo string `json:"replacement_order_number"`
}

var ErrOrderNotFound = errors.New("order not found")

// GetOrderSerials loads an order with its serial state, items and refunds.
func (s *SerialService) GetOrderSerials(orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Items.Product").Preload("Refunds.Items.Product").
		First(&order, "id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SaveOrderSerials validates a submission against the order and persists the
// whole serial state in one transaction. The returned error list is empty on
// success; a non-empty list means nothing was written.
func (s *SerialService) SaveOrderSerials(orderID uuid.UUID, req *SaveSerialsRequest) ([]serial.ValidationError, error) {
	order, err := s.GetOrderSerials(orderID)
	if err != nil {
		return nil, err
	}

	items, itemErrs := s.orderLineItems(order)

	var errs []serial.ValidationError
	if !req.SkipValidation {
		errs = append(errs, itemErrs...)
		errs = append(errs, s.validator.ValidateSold(items, req.SoldSerials)...)
		if len(errs) > 0 {
			return errs, nil
		}
	} else {
		logrus.WithField("order_id", orderID).Info("Skipping serial validation as requested")
	}

	order.SkipValidation = req.SkipValidation
	order.SoldSerials = strings.TrimSpace(req.SoldSerials)

	switch {
	case req.EnableReturned:
		if !req.SkipValidation {
			refunded := s.refundedQuantities(order, items)
			returnedErrs := s.validator.ValidateReturned(req.SoldSerials, req.ReturnedSerials, refunded)
			if len(returnedErrs) > 0 {
				return returnedErrs, nil
			}
		}
		order.ReturnedEnabled = true
		order.ReturnedSerials = strings.TrimSpace(req.ReturnedSerials)
		order.ReplacementEnabled = false
		order.ReplacementOrderID = nil

	case req.EnableReplacement:
		refOrder, refErrs := s.resolveReplacementOrder(req.ReplacementOrderNo)
		if !req.SkipValidation {
			if len(refErrs) > 0 {
				return refErrs, nil
			}
			replErrs := s.validator.ValidateReplacement(req.SoldSerials, refOrder.ReturnedSerials, req.ReplacementOrderNo)
			if len(replErrs) > 0 {
				return replErrs, nil
			}
		}
		order.ReplacementEnabled = true
		if refOrder != nil {
			order.ReplacementOrderID = &refOrder.ID
		}
		order.ReturnedEnabled = false
		order.ReturnedSerials = ""

	default:
		order.ReturnedEnabled = false
		order.ReturnedSerials = ""
		order.ReplacementEnabled = false
		order.ReplacementOrderID = nil
	}

	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		return tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Updates(map[string]interface{}{
				"sold_serials":         order.SoldSerials,
				"returned_serials":     order.ReturnedSerials,
				"returned_enabled":     order.ReturnedEnabled,
				"replacement_enabled":  order.ReplacementEnabled,
				"replacement_order_id": order.ReplacementOrderID,
				"skip_validation":      order.SkipValidation,
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order serials: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"returned":    order.ReturnedEnabled,
		"replacement": order.ReplacementEnabled,
	}).Info("Saved order serial state")

	return nil, nil
}

// orderLineItems builds the barcode/quantity list for an order. Items whose
// product has no barcode produce an error instead of an entry.
func (s *SerialService) orderLineItems(order *models.Order) ([]serial.LineItem, []serial.ValidationError) {
	var items []serial.LineItem
	var errs []serial.ValidationError
	for _, item := range order.Items {
		if item.Product.GTIN == "" {
			errs = append(errs, serial.ValidationError{
				Code:    serial.ErrCodeFormat,
				Message: fmt.Sprintf("Product '%s' is missing a barcode.", item.Product.Name),
			})
			continue
		}
		items = append(items, serial.LineItem{Barcode: item.Product.GTIN, Quantity: item.Quantity})
	}
	return items, errs
}

// refundedQuantities sums refunded quantities per barcode across the order's
// refunds. Refund lines whose barcode is not among the order's own items are
// ignored.
func (s *SerialService) refundedQuantities(order *models.Order, items []serial.LineItem) []serial.LineItem {
	inOrder := map[string]bool{}
	for _, it := range items {
		inOrder[it.Barcode] = true
	}

	var refunded []serial.LineItem
	for _, refund := range order.Refunds {
		for _, line := range refund.Items {
			barcode := line.Product.GTIN
			if barcode == "" || !inOrder[barcode] {
				continue
			}
			qty := line.Quantity
			if qty < 0 {
				qty = -qty
			}
			refunded = append(refunded, serial.LineItem{Barcode: barcode, Quantity: qty})
		}
	}
	return refunded
}

// resolveReplacementOrder loads the referenced order by its number and
// checks it actually carries returned serials.
func (s *SerialService) resolveReplacementOrder(orderNo string) (*models.Order, []serial.ValidationError) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, []serial.ValidationError{{
			Code:    serial.ErrCodeNotFound,
			Message: "Replacement order ID is required",
		}}
	}

	var ref models.Order
	err := s.db.First(&ref, "number = ?", orderNo).Error
	if err != nil {
		return nil, []serial.ValidationError{{
			Code:    serial.ErrCodeNotFound,
			Message: fmt.Sprintf("Order #%s does not exist", orderNo),
		}}
	}

	if !ref.ReturnedEnabled {
		return &ref, []serial.ValidationError{{
			Code:    serial.ErrCodeNotFound,
			Message: fmt.Sprintf("Order #%s does not have any returned items", orderNo),
		}}
	}
	if strings.TrimSpace(ref.ReturnedSerials) == "" {
		return &ref, []serial.ValidationError{{
			Code:    serial.ErrCodeNotFound,
			Message: fmt.Sprintf("Order #%s has no returned serial numbers", orderNo),
		}}
	}

	return &ref, nil
}
