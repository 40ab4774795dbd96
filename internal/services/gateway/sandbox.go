package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// SandboxGateway accepts every charge without calling anything. Used
// for local development when no gateway endpoint is configured, and as
// the default test double.
type SandboxGateway struct {
	// Reject forces every charge to be refused, for failure-path tests.
	Reject bool
}

func NewSandbox() *SandboxGateway {
	return &SandboxGateway{}
}

func (g *SandboxGateway) InitiateCharge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	if g.Reject {
		return &ChargeResult{Accepted: false, Message: "sandbox rejection"}, nil
	}
	return &ChargeResult{
		Accepted:     true,
		TxHash:       "sandbox-" + uuid.NewString(),
		Reference:    req.Reference,
		Instructions: fmt.Sprintf("Approve the %s %s charge on %s", req.Amount.String(), req.Currency, req.PhoneNumber),
	}, nil
}
