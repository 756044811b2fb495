package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocalCheckoutStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"COMPLETED", "completed"},
		{"CANCELED", "canceled"},
		{"FAILED", "failed"},
		{"IN_PROGRESS", "pending"},
		{"SOMETHING_NEW", "pending"},
		{"", "pending"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			assert.Equal(t, tt.want, localCheckoutStatus(tt.provider))
		})
	}
}
