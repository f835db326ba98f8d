// Package devicetypes defines the data model: the device
// descriptor, wipe configuration, checkpoint record shape, zone and
// namespace types, and the enums they are built from. These types are
// mutated only by the (out-of-scope) enumeration collaborator and consumed
// read-only by everything in this module.
package devicetypes
