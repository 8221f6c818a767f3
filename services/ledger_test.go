package services

import (
	"errors"
	"testing"
)

// Amount validation runs before any database access, so a nil transaction is
// fine for these cases.
func TestGrantTxAmountValidation(t *testing.T) {
	svc := &LedgerService{}
	tests := []struct {
		name    string
		points  int64
		coins   int64
		wantErr error
	}{
		{"zero points and coins", 0, 0, ErrEmptyGrant},
		{"negative points", -5, 50, ErrNegativeGrant},
		{"negative coins", 5, -50, ErrNegativeGrant},
		{"both negative", -5, -50, ErrNegativeGrant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GrantTx(nil, "user-1", "phone_verified", tt.points, tt.coins)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GrantTx(%d, %d) err = %v, want %v", tt.points, tt.coins, err, tt.wantErr)
			}
		})
	}
}

func TestGrantResultIdempotentShape(t *testing.T) {
	res := GrantResult{Granted: false, Reason: ReasonAlreadyGranted}
	if res.Granted {
		t.Error("duplicate grant must report Granted=false")
	}
	if res.Reason != "already granted" {
		t.Errorf("reason = %q, want %q", res.Reason, "already granted")
	}
}
