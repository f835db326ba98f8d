package devicetypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWipeConfig_Defaults(t *testing.T) {
	cfg, err := NewWipeConfig(AlgorithmDoD5220)
	require.NoError(t, err)
	assert.True(t, cfg.Verify)
	assert.Equal(t, HPADCODetect, cfg.HPADCO)
	assert.True(t, cfg.TempMonitor)
	assert.Equal(t, 65, cfg.MaxTempC)
}

func TestNewWipeConfig_InvalidAlgorithm(t *testing.T) {
	_, err := NewWipeConfig(Algorithm("bogus"))
	require.Error(t, err)
}

func TestNewWipeConfig_OptionsApply(t *testing.T) {
	cfg, err := NewWipeConfig(AlgorithmGutmann,
		WithVerify(false),
		WithMaxTempC(55),
		WithHPADCO(HPADCOPermanentRemove),
		WithTrimAfter(true),
		WithPreferCrypto(true),
	)
	require.NoError(t, err)
	assert.False(t, cfg.Verify)
	assert.Equal(t, 55, cfg.MaxTempC)
	assert.Equal(t, HPADCOPermanentRemove, cfg.HPADCO)
	assert.True(t, cfg.UseTrimAfter)
	assert.True(t, cfg.PreferCrypto)
}

func TestNewWipeConfig_InvalidMaxTemp(t *testing.T) {
	_, err := NewWipeConfig(AlgorithmZero, WithMaxTempC(0))
	require.Error(t, err)
}

func TestZone_IsSequential(t *testing.T) {
	assert.True(t, Zone{Type: ZoneTypeSequentialWriteRequired}.IsSequential())
	assert.True(t, Zone{Type: ZoneTypeSequentialWritePreferred}.IsSequential())
	assert.False(t, Zone{Type: ZoneTypeConventional}.IsSequential())
}
