package constants

import (
	"testing"

	"metallix-backend/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(TradeMetals, domain.RoleUser))
	assert.True(t, AllowedRole(UpdateRates, domain.RoleAdmin))
	assert.False(t, AllowedRole(UpdateRates, domain.RoleUser))
	assert.False(t, AllowedRole("unknown", domain.RoleAdmin))
}

func TestAdminOnly(t *testing.T) {
	assert.True(t, AdminOnly(SettlePayments))
	assert.False(t, AdminOnly(TradeMetals))
	assert.False(t, AdminOnly("unknown"))
}
