// internal/services/qr_service.go
package services

import (
	"net/url"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/msparth89/gscwordpress/internal/metrics"
	"github.com/msparth89/gscwordpress/internal/models"
	"github.com/msparth89/gscwordpress/internal/serial"
)

// QRService resolves scanned QR payloads to product URLs carrying the
// original purchaser's affiliate attribution. Hard failures resolve to the
// home URL; a missing affiliate is not a failure, the scan still lands on
// the product page without the attribution parameter.
type QRService struct {
	db      *gorm.DB
	homeURL string
}

func NewQRService(db *gorm.DB, homeURL string) *QRService {
	return &QRService{db: db, homeURL: homeURL}
}

// Resolve maps a raw ?p= payload to a redirect target. It never returns an
// error to the caller; every failure mode falls back to the home URL.
func (s *QRService) Resolve(payload string) string {
	gtin, serialPart, err := serial.DecodePayload(payload)
	if err != nil {
		logrus.WithField("payload", payload).Warn("QR scan with malformed payload")
		metrics.QRScans.WithLabelValues("invalid_format").Inc()
		return s.homeURL
	}

	order, found := s.findOrderBySerial(gtin + serialPart)
	if !found {
		logrus.WithFields(logrus.Fields{"gtin": gtin, "serial": serialPart}).
			Warn("QR scan with no matching order")
		metrics.QRScans.WithLabelValues("order_not_found").Inc()
		return s.homeURL
	}

	productURL, found := s.productURLByGTIN(gtin)
	if !found {
		logrus.WithField("gtin", gtin).Warn("QR scan with no matching product")
		metrics.QRScans.WithLabelValues("product_not_found").Inc()
		return s.homeURL
	}

	affiliateID, found := s.affiliateIDForUser(order.UserID)
	if !found {
		// Redirect to the product without attribution.
		metrics.QRScans.WithLabelValues("no_affiliate").Inc()
		return productURL
	}

	metrics.QRScans.WithLabelValues("redirected").Inc()
	return s.buildAffiliateURL(productURL, affiliateID)
}

// findOrderBySerial searches sold serial blobs for the 20-digit token and
// returns the first matching order, oldest first.
func (s *QRService) findOrderBySerial(fullSerial string) (*models.Order, bool) {
	var order models.Order
	err := s.db.Where("sold_serials LIKE ?", "%"+fullSerial+"%").
		Order("created_at ASC").
		First(&order).Error
	if err != nil {
		return nil, false
	}
	return &order, true
}

func (s *QRService) productURLByGTIN(gtin string) (string, bool) {
	var product models.Product
	err := s.db.First(&product, "gtin = ?", gtin).Error
	if err != nil || product.Permalink == "" {
		return "", false
	}
	return product.Permalink, true
}

func (s *QRService) affiliateIDForUser(userID interface{}) (string, bool) {
	var affiliate models.Affiliate
	err := s.db.First(&affiliate, "user_id = ?", userID).Error
	if err != nil {
		return "", false
	}
	return affiliate.ID.String(), true
}

// buildAffiliateURL appends the configured attribution parameter to the
// product URL. The parameter name is a setting so it can track whatever the
// affiliate frontend expects.
func (s *QRService) buildAffiliateURL(productURL, affiliateID string) string {
	paramName := affiliateParamName(s.db)

	u, err := url.Parse(productURL)
	if err != nil {
		return productURL
	}
	q := u.Query()
	q.Set(paramName, affiliateID)
	u.RawQuery = q.Encode()
	return u.String()
}
