// internal/gateway/mock.go
package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// Suffix convention for mock responses. Any UPI id containing one of these
// gets a canned result without a network call:
//
//	@success.upi  verified, account name "Test Account <local part>"
//	@fail.upi     rejected with a fixed mock error
//	@test.upi     verified, no account name
//
// Other ids fall through to the live provider call.
const (
	mockSuffixSuccess = "@success.upi"
	mockSuffixFail    = "@fail.upi"
	mockSuffixTest    = "@test.upi"

	mockVerifyError = "Invalid UPI ID (mock response)"
)

// mockVerify returns the canned verification result for test UPI ids, or
// (nil, false) when the id is not a test id and the real API should be hit.
func mockVerify(gatewayName, upiID string) (*VerifyResult, bool) {
	switch {
	case strings.Contains(upiID, mockSuffixSuccess):
		local := upiID[:strings.Index(upiID, "@")]
		return &VerifyResult{
			Success:     true,
			Gateway:     gatewayName,
			Response:    map[string]interface{}{"status": "SUCCESS"},
			AccountName: "Test Account " + local,
		}, true
	case strings.Contains(upiID, mockSuffixFail):
		return &VerifyResult{
			Success:  false,
			Gateway:  gatewayName,
			Error:    mockVerifyError,
			Response: map[string]interface{}{"status": "FAILURE"},
		}, true
	case strings.Contains(upiID, mockSuffixTest):
		return &VerifyResult{
			Success:  true,
			Gateway:  gatewayName,
			Response: map[string]interface{}{"status": "SUCCESS"},
		}, true
	}
	return nil, false
}

// Mock is a fully deterministic in-process gateway. The manager substitutes
// it for the active provider when global mock mode is on, so every operation
// of the payout pipeline can run end to end without credentials.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) ID() string   { return "mock" }
func (m *Mock) Name() string { return "Mock" }

func (m *Mock) VerifyUPI(_ context.Context, upiID string) (*VerifyResult, error) {
	if upiID == "" {
		return &VerifyResult{Success: false, Gateway: m.Name(), Error: "UPI ID is empty"}, nil
	}
	logrus.WithField("upi_id", upiID).Debug("Mock UPI verification")
	if res, ok := mockVerify(m.Name(), upiID); ok {
		return res, nil
	}
	// Ids without a test suffix verify successfully in mock mode.
	return &VerifyResult{
		Success:  true,
		Gateway:  m.Name(),
		Response: map[string]interface{}{"status": "SUCCESS"},
	}, nil
}

func (m *Mock) ProcessPayout(_ context.Context, req *PayoutRequest) (*PayoutResult, error) {
	if req == nil || req.UPIID == "" {
		return &PayoutResult{Success: false, Error: "UPI ID is empty"}, nil
	}
	if strings.Contains(req.UPIID, mockSuffixFail) {
		return &PayoutResult{
			Success: false,
			Error:   "Payout failed (mock response)",
		}, nil
	}
	return &PayoutResult{
		Success:  true,
		PayoutID: fmt.Sprintf("mock_payout_%s", req.ReferenceID),
		Status:   "success",
		Message:  "Payout initiated successfully",
	}, nil
}

func (m *Mock) CheckPayoutStatus(_ context.Context, payoutID string) (*StatusResult, error) {
	if payoutID == "" {
		return &StatusResult{Success: false, Error: "Payout ID is empty"}, nil
	}
	return &StatusResult{
		Success:  true,
		PayoutID: payoutID,
		Status:   "processed",
		Message:  "Payout status retrieved successfully",
	}, nil
}
