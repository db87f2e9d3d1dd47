package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMobileMasked(t *testing.T) {
	tests := []struct {
		name   string
		mobile string
		want   string
	}{
		{name: "standard", mobile: "09123456789", want: "***6789"},
		{name: "exactly four", mobile: "6789", want: "***6789"},
		{name: "too short", mobile: "123", want: "***"},
		{name: "empty", mobile: "", want: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{MobileNumber: tt.mobile}
			assert.Equal(t, tt.want, u.MobileMasked())
		})
	}
}
