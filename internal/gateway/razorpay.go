// internal/gateway/razorpay.go
package gateway

import (
	"context"
	"encoding/base64"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const razorpayBase = "https://api.razorpay.com/v1"

// Razorpay implements payouts over RazorpayX. A payout needs three API
// calls: create a contact, attach a VPA fund account to it, then create the
// payout against that fund account. Amounts are sent in paise.
type Razorpay struct {
	creds Credentials
}

func NewRazorpay(creds Credentials) *Razorpay {
	return &Razorpay{creds: creds}
}

func (g *Razorpay) ID() string   { return "razorpay" }
func (g *Razorpay) Name() string { return "RazorPay" }

func (g *Razorpay) headers() map[string]string {
	token := base64.StdEncoding.EncodeToString([]byte(g.creds.APIKey + ":" + g.creds.APISecret))
	return map[string]string{"Authorization": "Basic " + token}
}

func (g *Razorpay) VerifyUPI(ctx context.Context, upiID string) (*VerifyResult, error) {
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

	body, err := postJSON(ctx, razorpayBase+"/payments/validate/vpa", g.headers(), map[string]string{
		"vpa": upiID,
	})
	if err != nil {
		return nil, err
	}
	logrus.WithField("gateway", g.ID()).Debug("VPA validation response received")

	if ok, _ := body["success"].(bool); ok {
		return &VerifyResult{
			Success:     true,
			Gateway:     g.Name(),
			Response:    body,
			AccountName: strField(body, "customer_name"),
		}, nil
	}
	return &VerifyResult{
		Success:  false,
		Gateway:  g.Name(),
		Error:    g.errorDescription(body, "UPI verification failed"),
		Response: body,
	}, nil
}

func (g *Razorpay) ProcessPayout(ctx context.Context, req *PayoutRequest) (*PayoutResult, error) {
	if req == nil || req.UPIID == "" {
		return &PayoutResult{Success: false, Error: "UPI ID is empty"}, nil
	}
	if !g.creds.configured() {
		return &PayoutResult{Success: false, Error: "API credentials not configured"}, nil
	}

	contactName := req.BeneficiaryName
	if contactName == "" {
		contactName = "Affiliate " + req.ReferenceID
	}

	contact, err := postJSON(ctx, razorpayBase+"/contacts", g.headers(), map[string]interface{}{
		"name":         contactName,
		"type":         "customer",
		"reference_id": req.ReferenceID,
	})
	if err != nil {
		return nil, err
	}
	contactID := strField(contact, "id")
	if contactID == "" {
		return &PayoutResult{Success: false, Error: g.errorDescription(contact, "Failed to create contact")}, nil
	}

	fundAccount, err := postJSON(ctx, razorpayBase+"/fund_accounts", g.headers(), map[string]interface{}{
		"contact_id":   contactID,
		"account_type": "vpa",
		"vpa":          map[string]string{"address": req.UPIID},
	})
	if err != nil {
		return nil, err
	}
	fundAccountID := strField(fundAccount, "id")
	if fundAccountID == "" {
		return &PayoutResult{Success: false, Error: g.errorDescription(fundAccount, "Failed to create fund account")}, nil
	}

	purpose := req.Purpose
	if purpose == "" {
		purpose = "commission"
	}
	payout, err := postJSON(ctx, razorpayBase+"/payouts", g.headers(), map[string]interface{}{
		"account_number":  g.creds.APIKey,
		"fund_account_id": fundAccountID,
		"amount":          req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
		"currency":        req.Currency,
		"mode":            "UPI",
		"purpose":         purpose,
		"reference_id":    req.ReferenceID,
		"narration":       "Commission payout for " + req.ReferenceID,
	})
	if err != nil {
		return nil, err
	}

	if payoutID := strField(payout, "id"); payoutID != "" {
		return &PayoutResult{
			Success:  true,
			PayoutID: payoutID,
			Status:   lower(strField(payout, "status"), "processing"),
			Message:  "Payout initiated successfully",
			Response: payout,
		}, nil
	}
	return &PayoutResult{Success: false, Error: g.errorDescription(payout, "Payout failed"), Response: payout}, nil
}

func (g *Razorpay) CheckPayoutStatus(ctx context.Context, payoutID string) (*StatusResult, error) {
	if !g.creds.configured() {
		return &StatusResult{Success: false, Error: "API credentials not configured"}, nil
	}

	body, err := getJSON(ctx, razorpayBase+"/payouts/"+payoutID, g.headers())
	if err != nil {
		return nil, err
	}

	if strField(body, "id") != "" {
		amount := decimal.Zero
		if paise, ok := body["amount"].(float64); ok {
			amount = decimal.NewFromFloat(paise).Div(decimal.NewFromInt(100))
		}
		return &StatusResult{
			Success:  true,
			PayoutID: payoutID,
			Status:   lower(strField(body, "status"), "unknown"),
			Amount:   amount,
			UPIID:    strField(body, "vpa"),
			Message:  "Payout status retrieved successfully",
		}, nil
	}
	return &StatusResult{Success: false, Error: g.errorDescription(body, "Failed to retrieve payout status")}, nil
}

func (g *Razorpay) errorDescription(body map[string]interface{}, fallback string) string {
	if desc := nestedStr(body, "error", "description"); desc != "" {
		return desc
	}
	return fallback
}
