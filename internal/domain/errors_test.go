package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsIntegrityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "reference not found", err: ErrReferenceNotFound, want: true},
		{name: "wrapped duplicate", err: fmt.Errorf("create coupon: %w", ErrDuplicate), want: true},
		{name: "joined in use", err: errors.Join(ErrReferenceInUse, errors.New("product p-1")), want: true},
		{name: "invalid input", err: ErrInvalidInput, want: true},
		{name: "infrastructure error", err: errors.New("connection refused"), want: false},
		{name: "coupon rejection", err: ErrCouponExpired, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsIntegrityError(tt.err); got != tt.want {
				t.Errorf("IsIntegrityError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsCouponRejection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "not found", err: ErrCouponNotFound, want: true},
		{name: "inactive", err: ErrCouponInactive, want: true},
		{name: "wrapped limit", err: fmt.Errorf("validate: %w", ErrCouponLimitReached), want: true},
		{name: "expired", err: ErrCouponExpired, want: true},
		{name: "duplicate", err: ErrDuplicate, want: false},
		{name: "nil error", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCouponRejection(tt.err); got != tt.want {
				t.Errorf("IsCouponRejection() = %v, want %v", got, tt.want)
			}
		})
	}
}
