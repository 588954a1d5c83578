// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package main

// Message pools per stream family. Streams outside the known families
// fall back to the generic pool so arbitrary --streams values still
// produce plausible traffic.

var ipstrcMessages = []string{
	"Connection established from 192.168.1.100",
	"Packet received: size=%d bytes",
	"Connection timeout detected",
	"Routing table updated",
	"NAT translation added",
	"Firewall rule applied",
	"TCP handshake completed",
	"UDP datagram processed",
	"Network interface status changed",
	"IP address conflict detected",
}

var pdtrcMessages = []string{
	"Protocol data unit received",
	"Session initiated with client",
	"Data transmission in progress",
	"Buffer overflow prevented",
	"Checksum validation passed",
	"Sequence number: %d",
	"Retransmission attempt %d",
	"Flow control activated",
	"Window size adjusted to %d",
	"Protocol version negotiated",
}

var ipmgrMessages = []string{
	"IP allocation request processed",
	"DHCP lease renewed",
	"Address pool utilization: %d%%",
	"Static IP assignment completed",
	"IP conflict resolution in progress",
	"Subnet mask updated",
	"Gateway configuration changed",
	"DNS server registered",
	"IP address released",
	"Network range expanded",
}

var genericMessages = []string{
	"Operation completed in %d ms",
	"Queue depth: %d",
	"Heartbeat acknowledged",
	"Worker cycle finished",
	"State transition recorded",
	"Cache entry refreshed",
}

// messagesFor picks the message pool for a stream base name. The
// inttrc stream shares the ipstrc pool, as the original trace sources
// did.
func messagesFor(base string) []string {
	switch base {
	case "ipstrc", "inttrc":
		return ipstrcMessages
	case "pdtrc":
		return pdtrcMessages
	case "ipmgr":
		return ipmgrMessages
	default:
		return genericMessages
	}
}
