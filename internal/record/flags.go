package record

import (
	"fmt"
	"strings"
)

// flagNames maps single-bit flags to their textual names, in bit order.
type flagNames []struct {
	bit  uint32
	name string
}

func (n flagNames) format(v uint32) string {
	var parts []string
	for _, f := range n {
		if v&f.bit != 0 {
			parts = append(parts, f.name)
			v &^= f.bit
		}
	}
	if v != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", v))
	}
	return strings.Join(parts, "|")
}

func (n flagNames) parse(s string) (uint32, error) {
	var v uint32
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		found := false
		for _, f := range n {
			if strings.EqualFold(part, f.name) {
				v |= f.bit
				found = true
				break
			}
		}
		if found {
			continue
		}
		var raw uint32
		if _, err := fmt.Sscanf(part, "0x%X", &raw); err != nil {
			return 0, fmt.Errorf("unknown flag %q", part)
		}
		v |= raw
	}
	return v, nil
}

// NPCFlags is the NPC configuration flag set.
type NPCFlags uint32

const (
	NPCFlagFemale NPCFlags = 1 << iota
	NPCFlagEssential
	NPCFlagUnique
	NPCFlagCalcFromPCLevel
	NPCFlagProtected
)

var npcFlagNames = flagNames{
	{uint32(NPCFlagFemale), "female"},
	{uint32(NPCFlagEssential), "essential"},
	{uint32(NPCFlagUnique), "unique"},
	{uint32(NPCFlagCalcFromPCLevel), "calc_from_pc_level"},
	{uint32(NPCFlagProtected), "protected"},
}

// Has reports whether every bit of f is set.
func (v NPCFlags) Has(f NPCFlags) bool { return v&f == f }

// String returns the "|"-joined flag names.
func (v NPCFlags) String() string { return npcFlagNames.format(uint32(v)) }

// MarshalText implements encoding.TextMarshaler.
func (v NPCFlags) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *NPCFlags) UnmarshalText(text []byte) error {
	raw, err := npcFlagNames.parse(string(text))
	if err != nil {
		return fmt.Errorf("npc flags: %w", err)
	}
	*v = NPCFlags(raw)
	return nil
}

// ZoneFlags is the encounter zone flag set.
type ZoneFlags uint32

const (
	ZoneFlagNeverResets ZoneFlags = 1 << iota
	ZoneFlagMatchPCBelowMinimumLevel
	ZoneFlagDisableCombatBoundary
	ZoneFlagMatchPCAboveMaximumLevel
)

var zoneFlagNames = flagNames{
	{uint32(ZoneFlagNeverResets), "never_resets"},
	{uint32(ZoneFlagMatchPCBelowMinimumLevel), "match_pc_below_minimum_level"},
	{uint32(ZoneFlagDisableCombatBoundary), "disable_combat_boundary"},
	{uint32(ZoneFlagMatchPCAboveMaximumLevel), "match_pc_above_maximum_level"},
}

// Has reports whether every bit of f is set.
func (v ZoneFlags) Has(f ZoneFlags) bool { return v&f == f }

// Set returns v with f set to on.
func (v ZoneFlags) Set(f ZoneFlags, on bool) ZoneFlags {
	if on {
		return v | f
	}
	return v &^ f
}

// String returns the "|"-joined flag names.
func (v ZoneFlags) String() string { return zoneFlagNames.format(uint32(v)) }

// MarshalText implements encoding.TextMarshaler.
func (v ZoneFlags) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *ZoneFlags) UnmarshalText(text []byte) error {
	raw, err := zoneFlagNames.parse(string(text))
	if err != nil {
		return fmt.Errorf("zone flags: %w", err)
	}
	*v = ZoneFlags(raw)
	return nil
}
