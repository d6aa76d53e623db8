package domain

import (
	"fmt"
	"strings"
)

// Kind identifies a brick variant
type Kind string

const (
	KindNop      Kind = "nop"
	KindTap      Kind = "tap"
	KindHub      Kind = "hub"
	KindSwitch   Kind = "switch"
	KindNic      Kind = "nic"
	KindFirewall Kind = "firewall"
)

// Kinds lists every supported brick kind
var Kinds = []Kind{KindNop, KindTap, KindHub, KindSwitch, KindNic, KindFirewall}

// ParseKind converts a string to a Kind
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", NewError(ErrInvalidArgument, fmt.Sprintf("unknown brick kind %q", s))
}

func (k Kind) String() string {
	return string(k)
}
