package model

import "strings"

// MaxChannelSlots is the number of channel slots a MeshCore device exposes.
const MaxChannelSlots = 16

// LogicalChannel is an operator-configured broadcast target identified by its
// shared secret, independent of where it sits on the device.
type LogicalChannel struct {
	Key    string
	Name   string
	Secret string // lowercase hex
}

// ResolvedChannel binds a logical channel to a device slot for one run.
type ResolvedChannel struct {
	Key  string
	Slot int
}

// SlotDescriptor is a channel slot as reported by the device.
type SlotDescriptor struct {
	Slot   int
	Name   string
	Secret string
}

// Empty reports whether the slot carries no channel configuration.
func (s SlotDescriptor) Empty() bool {
	return strings.TrimSpace(s.Name) == "" && strings.Trim(s.Secret, "0 ") == ""
}

// NormalizeName trims, lowercases and strips spaces and hyphens so that
// "Ops Channel", "ops-channel" and "opschannel" compare equal.
func NormalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "").Replace(s)
}

// NormalizeSecret lowercases a hex secret and drops surrounding whitespace.
func NormalizeSecret(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
