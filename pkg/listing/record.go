// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package listing turns the text output of a socket enumeration tool into
// structured connection records.
package listing

import (
	"net"
	"strconv"
	"strings"
)

// Protocol is the transport protocol of a socket.
type Protocol string

const (
	ProtocolTCP   Protocol = "TCP"
	ProtocolUDP   Protocol = "UDP"
	ProtocolOther Protocol = "other"
)

// ParseProtocol maps an lsof NODE column to a Protocol.
func ParseProtocol(s string) Protocol {
	switch strings.ToUpper(s) {
	case "TCP", "TCP6":
		return ProtocolTCP
	case "UDP", "UDP6":
		return ProtocolUDP
	default:
		return ProtocolOther
	}
}

// State is the connection state reported for a socket.
type State string

const (
	StateListen      State = "LISTEN"
	StateEstablished State = "ESTABLISHED"
	StateClosed      State = "CLOSED"
	StateCloseWait   State = "CLOSE_WAIT"
	StateOther       State = "other"
)

// ParseState maps the parenthesized state token (without parens) to a State.
// Anything not modelled explicitly, including an empty token, is StateOther.
func ParseState(s string) State {
	switch strings.ToUpper(s) {
	case "LISTEN":
		return StateListen
	case "ESTABLISHED":
		return StateEstablished
	case "CLOSED":
		return StateClosed
	case "CLOSE_WAIT":
		return StateCloseWait
	default:
		return StateOther
	}
}

// ConnectionRecord is one parsed line of a socket listing.
type ConnectionRecord struct {
	ProcessName   string   `json:"process_name" yaml:"process_name"`
	PID           int      `json:"pid" yaml:"pid"`
	User          string   `json:"user" yaml:"user"`
	Protocol      Protocol `json:"protocol" yaml:"protocol"`
	LocalAddress  string   `json:"local_address" yaml:"local_address"`
	LocalPort     int      `json:"local_port" yaml:"local_port"`
	RemoteAddress string   `json:"remote_address,omitempty" yaml:"remote_address,omitempty"`
	RemotePort    int      `json:"remote_port,omitempty" yaml:"remote_port,omitempty"`
	State         State    `json:"state" yaml:"state"`
	// RawState keeps the tool's own state token, e.g. TIME_WAIT, when State is StateOther.
	RawState string `json:"raw_state,omitempty" yaml:"raw_state,omitempty"`
}

// IsListening reports whether the socket is in the LISTEN state.
func (r ConnectionRecord) IsListening() bool {
	return r.State == StateListen
}

// IsWildcard reports whether the local address accepts traffic on every interface.
func (r ConnectionRecord) IsWildcard() bool {
	return IsWildcardAddress(r.LocalAddress)
}

// HasRemote reports whether the record carries a remote endpoint.
func (r ConnectionRecord) HasRemote() bool {
	return r.RemoteAddress != ""
}

// IsService reports whether the record describes a bound service rather than
// one side of a connection: a TCP listener, or a socket without a peer
// (typically UDP).
func (r ConnectionRecord) IsService() bool {
	if r.IsListening() {
		return true
	}
	return !r.HasRemote() && r.State == StateOther
}

// Local returns local address and port joined the way lsof prints them.
func (r ConnectionRecord) Local() string {
	return JoinHostPort(r.LocalAddress, r.LocalPort)
}

// Remote returns remote address and port, or an empty string.
func (r ConnectionRecord) Remote() string {
	if !r.HasRemote() {
		return ""
	}
	return JoinHostPort(r.RemoteAddress, r.RemotePort)
}

// IsWildcardAddress reports whether addr is an all-interfaces marker.
func IsWildcardAddress(addr string) bool {
	switch strings.Trim(addr, "[]") {
	case "*", "0.0.0.0", "::", "::0":
		return true
	}
	return false
}

// IsLoopbackAddress reports whether addr is a loopback address or "localhost".
func IsLoopbackAddress(addr string) bool {
	host := strings.Trim(addr, "[]")
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// JoinHostPort formats an address the way lsof does: IPv6 hosts are bracketed.
func JoinHostPort(host string, port int) string {
	if host == "*" {
		return "*:" + strconv.Itoa(port)
	}
	return net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(port))
}
