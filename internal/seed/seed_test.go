package seed

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/courierpay/courierpay/internal/config"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&rulesdomain.PaymentRules{}))
	return conn
}

func seedConfig() config.Config {
	return config.Config{
		SeedWeekdayRatePence:     200,
		SeedSaturdayRatePence:    250,
		SeedUnloadingBonusPence:  3000,
		SeedAttendanceBonusPence: 2500,
		SeedEarlyBonusPence:      5000,
	}
}

func TestEnsureDefaultRulesSeedsEmptyTable(t *testing.T) {
	conn := newTestDB(t)

	require.NoError(t, EnsureDefaultRules(conn, seedConfig()))

	var rules rulesdomain.PaymentRules
	require.NoError(t, conn.First(&rules).Error)
	assert.NotZero(t, rules.ID)
	assert.Equal(t, 1, rules.Version)
	assert.True(t, rules.Active)
	assert.Equal(t, int64(200), rules.WeekdayRatePence)
	assert.Equal(t, int64(5000), rules.EarlyBonusPence)
}

func TestEnsureDefaultRulesLeavesExistingRulesAlone(t *testing.T) {
	conn := newTestDB(t)

	require.NoError(t, EnsureDefaultRules(conn, seedConfig()))

	changed := seedConfig()
	changed.SeedWeekdayRatePence = 999
	require.NoError(t, EnsureDefaultRules(conn, changed))

	var count int64
	require.NoError(t, conn.Model(&rulesdomain.PaymentRules{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var rules rulesdomain.PaymentRules
	require.NoError(t, conn.First(&rules).Error)
	assert.Equal(t, int64(200), rules.WeekdayRatePence)
}

func TestEnsureDefaultRulesNilDB(t *testing.T) {
	assert.Error(t, EnsureDefaultRules(nil, seedConfig()))
}
