// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QRScans counts scan resolutions by outcome: redirected, no_affiliate,
	// invalid_format, order_not_found, product_not_found.
	QRScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsc_qr_scans_total",
		Help: "QR scan resolutions by outcome",
	}, []string{"outcome"})

	BatchesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsc_payment_batches_processed_total",
		Help: "Payment batches driven to a terminal status, by that status",
	}, []string{"status"})

	Payouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsc_payouts_total",
		Help: "Individual payout attempts by result",
	}, []string{"result"})

	UPIVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gsc_upi_verifications_total",
		Help: "UPI verification attempts by gateway and result",
	}, []string{"gateway", "result"})
)
