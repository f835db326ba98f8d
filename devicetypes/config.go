package devicetypes

import (
	"fmt"
	"time"
)

// Algorithm selects the wipe pattern sequence
type Algorithm string

const (
	AlgorithmZero        Algorithm = "Zero"
	AlgorithmRandom      Algorithm = "Random"
	AlgorithmDoD5220     Algorithm = "DoD5220"
	AlgorithmGutmann     Algorithm = "Gutmann"
	AlgorithmSecureErase Algorithm = "SecureErase"
	AlgorithmCryptoErase Algorithm = "CryptoErase"
	AlgorithmSanitize    Algorithm = "Sanitize"
	AlgorithmTrimOnly    Algorithm = "TrimOnly"
)

// HPADCOPolicy selects how host protected area / device configuration
// overlay capacity is handled.
type HPADCOPolicy string

const (
	HPADCOIgnore           HPADCOPolicy = "Ignore"
	HPADCODetect           HPADCOPolicy = "Detect"
	HPADCOTemporaryRemove  HPADCOPolicy = "TemporaryRemove"
	HPADCOPermanentRemove  HPADCOPolicy = "PermanentRemove"
)

// WipeConfig is the configuration block for one destruction operation,
// immutable for that operation's lifetime.
//
// Construct with NewWipeConfig, which applies the documented defaults and
// rejects invalid combinations; do not build a WipeConfig as a struct
// literal in production code (tests that need to probe invalid
// combinations may do so deliberately).
type WipeConfig struct {
	// Algorithm selects the wipe pattern sequence. Required; NewWipeConfig
	// rejects the zero value.
	Algorithm Algorithm

	// Verify enables per-pass and post-wipe verification.
	// **Defaults to true.**
	Verify bool

	// HPADCO selects how hidden capacity is handled.
	// **Defaults to HPADCODetect.**
	HPADCO HPADCOPolicy

	// UseTrimAfter issues a TRIM/discard pass after the overwrite passes,
	// when the device advertises TRIM support.
	UseTrimAfter bool

	// TempMonitor enables the OptimizedIO thermal governor.
	// **Defaults to true.**
	TempMonitor bool

	// MaxTempC is the thermal threshold in Celsius.
	// **Defaults to 65, if 0.**
	MaxTempC int

	// FreezeMitigate enables the SelfHealer's unfreeze-strategy chain when
	// a DriveFrozen error is classified.
	FreezeMitigate bool

	// PreferCrypto prefers hardware crypto-erase/sanitize over software
	// overwrite, where the drive-class strategy offers a choice.
	PreferCrypto bool
}

// WipeConfigOption configures a WipeConfig at construction time.
type WipeConfigOption func(*WipeConfig)

// WithVerify overrides the Verify default.
func WithVerify(v bool) WipeConfigOption { return func(c *WipeConfig) { c.Verify = v } }

// WithHPADCO overrides the HPADCO default.
func WithHPADCO(p HPADCOPolicy) WipeConfigOption { return func(c *WipeConfig) { c.HPADCO = p } }

// WithTrimAfter enables a trailing TRIM/discard pass.
func WithTrimAfter(v bool) WipeConfigOption { return func(c *WipeConfig) { c.UseTrimAfter = v } }

// WithTempMonitor overrides the TempMonitor default.
func WithTempMonitor(v bool) WipeConfigOption { return func(c *WipeConfig) { c.TempMonitor = v } }

// WithMaxTempC overrides the MaxTempC default.
func WithMaxTempC(c int) WipeConfigOption { return func(cfg *WipeConfig) { cfg.MaxTempC = c } }

// WithFreezeMitigate enables the SelfHealer's unfreeze-strategy chain.
func WithFreezeMitigate(v bool) WipeConfigOption { return func(c *WipeConfig) { c.FreezeMitigate = v } }

// WithPreferCrypto prefers hardware crypto-erase where available.
func WithPreferCrypto(v bool) WipeConfigOption { return func(c *WipeConfig) { c.PreferCrypto = v } }

// NewWipeConfig constructs a validated WipeConfig for the given algorithm,
// applying the documented defaults and then any options, in order.
func NewWipeConfig(algorithm Algorithm, opts ...WipeConfigOption) (WipeConfig, error) {
	cfg := WipeConfig{
		Algorithm:   algorithm,
		Verify:      true,
		HPADCO:      HPADCODetect,
		TempMonitor: true,
		MaxTempC:    65,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return WipeConfig{}, err
	}
	return cfg, nil
}

// Validate reports whether the configuration is internally consistent.
func (c WipeConfig) Validate() error {
	switch c.Algorithm {
	case AlgorithmZero, AlgorithmRandom, AlgorithmDoD5220, AlgorithmGutmann,
		AlgorithmSecureErase, AlgorithmCryptoErase, AlgorithmSanitize, AlgorithmTrimOnly:
	default:
		return fmt.Errorf("devicetypes: invalid algorithm %q", c.Algorithm)
	}
	switch c.HPADCO {
	case HPADCOIgnore, HPADCODetect, HPADCOTemporaryRemove, HPADCOPermanentRemove:
	default:
		return fmt.Errorf("devicetypes: invalid HPA/DCO policy %q", c.HPADCO)
	}
	if c.MaxTempC <= 0 {
		return fmt.Errorf("devicetypes: MaxTempC must be positive, got %d", c.MaxTempC)
	}
	return nil
}

// TemperatureCheckInterval is the default byte interval between thermal
// sensor reads, shared by OptimizedIO presets that don't override it.
const TemperatureCheckInterval = 64 << 20 // 64 MiB

// DefaultOperationTimeout bounds individual hardware-command collaborator
// calls at the coordinator level.
const DefaultOperationTimeout = 30 * time.Second
