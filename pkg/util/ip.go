package util

import (
	"fmt"
	"net"
	"strconv"
)

// IsValidIP checks if a string is a valid IPv4 or IPv6 address
func IsValidIP(ipStr string) bool {
	return net.ParseIP(ipStr) != nil
}

// IsValidIPv6Prefix checks if a string is a valid IPv6 CIDR prefix
func IsValidIPv6Prefix(cidr string) bool {
	ip, _, err := net.ParseCIDR(cidr)
	return err == nil && ip.To4() == nil
}

// ParseUintInRange parses value as a decimal integer and checks it lies in [min, max].
func ParseUintInRange(name, value string, min, max uint64) (uint64, error) {
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, value)
	}
	if n < min || n > max {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, n)
	}
	return n, nil
}

// ValidatePort checks if a TCP/UDP port number is valid (1 to 65535).
func ValidatePort(port string) error {
	_, err := ParseUintInRange("port", port, 1, 65535)
	return err
}

// HostPort joins host and port, bracketing IPv6 literals.
func HostPort(host, port string) string {
	return net.JoinHostPort(host, port)
}
