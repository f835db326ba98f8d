// Package strategies implements the per-drive-class destruction
// strategies: one strategy per drive-class tag, each embedding that class's
// destruction invariants (SMR zone sequencing, Optane ISE-or-3-phase,
// hybrid SSHD cache handling, eMMC/UFS boot-partition zeroing, NVMe
// namespace/ZNS dispatch, SSD+TRIM, HDD, RAID member, USB/Unknown
// refusal).
//
// Strategies never issue raw hardware commands themselves:
// vendor command execution (secure erase, sanitize,
// crypto-erase, zone reset, cache flush, unfreeze) is an external
// collaborator reached through the HardwareCommander interface. A
// strategy's job is deciding which commands to try, in what order, and
// how to fall back to software overwrite when they fail.
package strategies
