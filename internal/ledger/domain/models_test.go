package domain

import (
	"testing"

	invoicingdomain "github.com/smallbiznis/referral/internal/invoicing/domain"
	"github.com/stretchr/testify/assert"
)

func TestShouldUpdate(t *testing.T) {
	tests := []struct {
		status invoicingdomain.Status
		want   bool
	}{
		{invoicingdomain.StatusWaiting, false},
		{invoicingdomain.StatusAPIError, false},
		{invoicingdomain.StatusInvoiceNotFound, false},
		{invoicingdomain.Status(""), false},
		{invoicingdomain.StatusClear, true},
		{invoicingdomain.Status("Deposited"), true},
	}

	for _, tc := range tests {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldUpdate(tc.status))
		})
	}
}
