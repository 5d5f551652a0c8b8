package util

import (
	"fmt"
	"net"
)

// IsValidIPv4 checks if a string is a valid IPv4 address
func IsValidIPv4(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	return ip != nil && ip.To4() != nil
}

// ValidateVLANID checks if a VLAN ID is within the usable 802.1Q range.
func ValidateVLANID(vid int) error {
	if vid < 1 || vid > 4094 {
		return fmt.Errorf("VLAN ID must be between 1 and 4094, got %d", vid)
	}
	return nil
}
