// internal/gateway/payu.go
package gateway

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/url"

	"github.com/sirupsen/logrus"
)

const (
	payuBaseProd = "https://www.payumoney.com/merchant-dashboard"
	payuBaseTest = "https://test.payumoney.com/merchant-dashboard"
)

// PayU implements payouts over the PayUmoney merchant API. Every request is
// signed with a sha512 hash over a pipe-joined field chain ending in the API
// secret; the field order is fixed per command.
type PayU struct {
	creds Credentials
}

func NewPayU(creds Credentials) *PayU {
	return &PayU{creds: creds}
}

func (g *PayU) ID() string   { return "payu" }
func (g *PayU) Name() string { return "PayU" }

func (g *PayU) baseURL() string {
	if g.creds.TestMode {
		return payuBaseTest
	}
	return payuBaseProd
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (g *PayU) VerifyUPI(ctx context.Context, upiID string) (*VerifyResult, error) {
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

	hash := sha512Hex(g.creds.APIKey + "|validateVPA|" + upiID + "|" + g.creds.APISecret)
	form := url.Values{
		"key":     {g.creds.APIKey},
		"command": {"validateVPA"},
		"var1":    {upiID},
		"hash":    {hash},
	}
	body, err := postForm(ctx, g.baseURL()+"/merchant/postservice?form=2", map[string]string{
		"accept": "application/json",
	}, form)
	if err != nil {
		return nil, err
	}
	logrus.WithField("gateway", g.ID()).Debug("VPA validation response received")

	valid, _ := body["isVPAValid"].(float64)
	if strField(body, "status") == "SUCCESS" && valid == 1 {
		return &VerifyResult{
			Success:     true,
			Gateway:     g.Name(),
			Response:    body,
			AccountName: strField(body, "payerAccountName"),
		}, nil
	}
	return &VerifyResult{
		Success:  false,
		Gateway:  g.Name(),
		Error:    "UPI ID verification failed",
		Response: body,
	}, nil
}

func (g *PayU) ProcessPayout(ctx context.Context, req *PayoutRequest) (*PayoutResult, error) {
	if req == nil || req.UPIID == "" {
		return &PayoutResult{Success: false, Error: "UPI ID is empty"}, nil
	}
	if !g.creds.configured() {
		return &PayoutResult{Success: false, Error: "API credentials not configured"}, nil
	}

	amount := req.Amount.String()
	productInfo := "Commission payout"
	firstName := "Affiliate"
	email := "affiliate@example.com"

	chain := g.creds.APIKey + "|" + req.ReferenceID + "|" + amount + "|" + productInfo + "|" +
		firstName + "|" + email + "|" + req.UPIID + "|UPI||||||||||" + g.creds.APISecret
	payload := map[string]interface{}{
		"key":         g.creds.APIKey,
		"txnid":       req.ReferenceID,
		"amount":      amount,
		"productinfo": productInfo,
		"firstname":   firstName,
		"email":       email,
		"udf1":        req.UPIID,
		"udf2":        "UPI",
		"hash":        sha512Hex(chain),
	}

	body, err := postJSON(ctx, g.baseURL()+"/payment/api/v1/payout", nil, payload)
	if err != nil {
		return nil, err
	}

	if strField(body, "status") == "success" {
		payoutID := strField(body, "payoutId")
		if payoutID == "" {
			payoutID = req.ReferenceID
		}
		return &PayoutResult{
			Success:  true,
			PayoutID: payoutID,
			Status:   "processing",
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

func (g *PayU) CheckPayoutStatus(ctx context.Context, payoutID string) (*StatusResult, error) {
	if !g.creds.configured() {
		return &StatusResult{Success: false, Error: "API credentials not configured"}, nil
	}

	payload := map[string]interface{}{
		"key":      g.creds.APIKey,
		"payoutId": payoutID,
		"hash":     sha512Hex(g.creds.APIKey + "|" + payoutID + "|" + g.creds.APISecret),
	}
	body, err := postJSON(ctx, g.baseURL()+"/payment/api/v1/payout/status", nil, payload)
	if err != nil {
		return nil, err
	}

	if strField(body, "status") == "success" {
		return &StatusResult{
			Success:  true,
			PayoutID: payoutID,
			Status:   lower(strField(body, "payoutStatus"), "unknown"),
			Amount:   numField(body, "amount"),
			UPIID:    strField(body, "upiId"),
			Message:  "Payout status retrieved successfully",
		}, nil
	}
	errMsg := strField(body, "message")
	if errMsg == "" {
		errMsg = "Failed to retrieve payout status"
	}
	return &StatusResult{Success: false, Error: errMsg}, nil
}
