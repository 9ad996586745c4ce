// internal/gateway/cashfree.go
package gateway

import (
	"context"
	"net/url"

	"github.com/sirupsen/logrus"
)

const (
	cashfreeBaseProd = "https://api.cashfree.com/api/v2"
	cashfreeBaseTest = "https://test.cashfree.com/api/v2"
)

// Cashfree implements payouts over the Cashfree v2 API, authenticated with
// client id/secret headers.
type Cashfree struct {
	creds Credentials
}

func NewCashfree(creds Credentials) *Cashfree {
	return &Cashfree{creds: creds}
}

func (g *Cashfree) ID() string   { return "cashfree" }
func (g *Cashfree) Name() string { return "Cashfree" }

func (g *Cashfree) baseURL() string {
	if g.creds.TestMode {
		return cashfreeBaseTest
	}
	return cashfreeBaseProd
}

func (g *Cashfree) headers() map[string]string {
	return map[string]string{
		"X-Client-Id":     g.creds.APIKey,
		"X-Client-Secret": g.creds.APISecret,
	}
}

func (g *Cashfree) VerifyUPI(ctx context.Context, upiID string) (*VerifyResult, error) {
	if upiID == "" {
		return &VerifyResult{Success: false, Gateway: g.Name(), Error: "UPI ID is empty"}, nil
	}
	if g.creds.TestMode {
		if res, ok := mockVerify(g.Name(), upiID); ok {
			return res, nil
		}
	}
	if !g.creds.configured() {
		return &VerifyResult{Success: false, Gateway: g.Name(), Error: "API credentials not configured"}, nil
	}

	body, err := postJSON(ctx, g.baseURL()+"/upi/validate", g.headers(), map[string]string{
		"upiId": upiID,
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("gateway", g.ID()).Debug("UPI validation response received")

	if strField(body, "status") == "OK" {
		return &VerifyResult{
			Success:     true,
			Gateway:     g.Name(),
			Response:    body,
			AccountName: strField(body, "accountHolder"),
		}, nil
	}
	errMsg := strField(body, "message")
	if errMsg == "" {
		errMsg = "UPI verification failed"
	}
	return &VerifyResult{Success: false, Gateway: g.Name(), Error: errMsg, Response: body}, nil
}

func (g *Cashfree) ProcessPayout(ctx context.Context, req *PayoutRequest) (*PayoutResult, error) {
	if req == nil || req.UPIID == "" {
		return &PayoutResult{Success: false, Error: "UPI ID is empty"}, nil
	}
	if !g.creds.configured() {
		return &PayoutResult{Success: false, Error: "API credentials not configured"}, nil
	}

	body, err := postJSON(ctx, g.baseURL()+"/payout", g.headers(), map[string]interface{}{
		"upiId":        req.UPIID,
		"amount":       req.Amount,
		"transferId":   req.ReferenceID,
		"transferMode": "UPI",
		"remarks":      "Commission payout for " + req.ReferenceID,
	})
	if err != nil {
		return nil, err
	}

	if strField(body, "status") == "SUCCESS" {
		payoutID := nestedStr(body, "data", "referenceId")
		if payoutID == "" {
			payoutID = req.ReferenceID
		}
		return &PayoutResult{
			Success:  true,
			PayoutID: payoutID,
			Status:   "success",
			Message:  "Payout initiated successfully",
			Response: body,
		}, nil
	}
	errMsg := strField(body, "message")
	if errMsg == "" {
		errMsg = "Payout failed"
	}
	return &PayoutResult{Success: false, Error: errMsg, Response: body}, nil
}

func (g *Cashfree) CheckPayoutStatus(ctx context.Context, payoutID string) (*StatusResult, error) {
	if !g.creds.configured() {
		return &StatusResult{Success: false, Error: "API credentials not configured"}, nil
	}

	statusURL := g.baseURL() + "/payout/status?transferId=" + url.QueryEscape(payoutID)
	body, err := getJSON(ctx, statusURL, g.headers())
	if err != nil {
		return nil, err
	}

	if strField(body, "status") == "SUCCESS" {
		status := lower(nestedStr(body, "data", "status"), "unknown")
		return &StatusResult{
			Success:  true,
			PayoutID: payoutID,
			Status:   status,
			Amount:   nestedNum(body, "data", "amount"),
			UPIID:    nestedStr(body, "data", "upiId"),
			Message:  "Payout status retrieved successfully",
		}, nil
	}
	errMsg := strField(body, "message")
	if errMsg == "" {
		errMsg = "Failed to retrieve payout status"
	}
	return &StatusResult{Success: false, Error: errMsg}, nil
}
