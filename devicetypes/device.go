package devicetypes

// DriveClass tags a device's destruction-relevant hardware category. It
// is populated by the (out-of-scope) enumeration collaborator, never by
// this module.
type DriveClass string

const (
	DriveClassHDD        DriveClass = "HDD"
	DriveClassSSD        DriveClass = "SSD"
	DriveClassNVMe       DriveClass = "NVME"
	DriveClassSMR        DriveClass = "SMR"
	DriveClassOptane     DriveClass = "OPTANE"
	DriveClassHybridSSHD DriveClass = "HYBRID_SSHD"
	DriveClassEMMC       DriveClass = "EMMC"
	DriveClassUFS        DriveClass = "UFS"
	DriveClassRAID       DriveClass = "RAID"
	DriveClassUSB        DriveClass = "USB"
	DriveClassUnknown    DriveClass = "UNKNOWN"
)

// SEDType names the self-encrypting-drive standard a device implements,
// if any.
type SEDType string

const (
	SEDTypeNone   SEDType = ""
	SEDTypeOPAL   SEDType = "OPAL"
	SEDTypeOpalV2 SEDType = "OPAL_V2"
	SEDTypePyrite SEDType = "PYRITE"
)

// FreezeState reports whether ATA SECURITY FREEZE (or the equivalent) is
// currently asserted on the device.
type FreezeState string

const (
	FreezeStateUnknown FreezeState = "UNKNOWN"
	FreezeStateFrozen  FreezeState = "FROZEN"
	FreezeStateThawed  FreezeState = "THAWED"
)

// Health summarizes a coarse SMART-derived device-health read, surfaced
// to the verification analyzer's Level4 hidden-area check.
type Health struct {
	ReallocatedSectorCount uint64
	PendingSectorCount     uint64
	PowerOnHours           uint64
	Degraded               bool
}

// SanitizeMode enumerates the NVMe Sanitize command's crypto-erase modes,
// consumed by strategies' NVMe dispatch.
type SanitizeMode string

const (
	SanitizeModeCryptoErase   SanitizeMode = "CRYPTO_ERASE"
	SanitizeModeBlockErase    SanitizeMode = "BLOCK_ERASE"
	SanitizeModeOverwrite     SanitizeMode = "OVERWRITE"
)

// Capabilities is the capability set
type Capabilities struct {
	SupportsSecureErase   bool
	SupportsEnhancedErase bool
	SupportsCryptoErase   bool
	SupportsTRIM          bool
	HasHPA                bool
	HasDCO                bool
	FreezeState           FreezeState
	SED                   SEDType
	SanitizeModes         []SanitizeMode
	Health                Health
}

// Device is the device descriptor: identity, size, drive
// class, and capability set. Populated by the enumeration collaborator;
// consumed read-only by the orchestrator and its strategies.
type Device struct {
	Path         string
	Model        string
	Serial       string
	SizeBytes    int64
	Class        DriveClass
	Capabilities Capabilities

	// Namespaces is populated only for DriveClassNVMe devices exposing
	// more than one active namespace or a zoned namespace are present").
	Namespaces []Namespace

	// Zones is populated only for DriveClassSMR devices.
	Zones []Zone
}
