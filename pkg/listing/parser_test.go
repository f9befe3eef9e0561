// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package listing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListing = `COMMAND     PID   USER   FD   TYPE             DEVICE SIZE/OFF NODE NAME
launchd       1   root   10u  IPv6 0x1d2c3b4a5e6f7a8b      0t0  TCP *:22 (LISTEN)
redis-ser   812   root    6u  IPv4 0x2d2c3b4a5e6f7a8b      0t0  TCP *:6379 (LISTEN)
postgres    900  _pg      7u  IPv6 0x3d2c3b4a5e6f7a8b      0t0  TCP [::1]:5432 (LISTEN)
Code\x20H  1200  alice   33u  IPv4 0x4d2c3b4a5e6f7a8b      0t0  TCP 127.0.0.1:52011->140.82.112.22:443 (ESTABLISHED)
mDNSRespo   310  _mdns    8u  IPv4 0x5d2c3b4a5e6f7a8b      0t0  UDP *:5353
garbage line
`

func TestParse_SampleListing(t *testing.T) {
	res := Parse(sampleListing)

	require.Len(t, res.Records, 5)
	assert.Equal(t, 7, res.Lines)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Failures)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 7, res.Errors[0].Line)

	ssh := res.Records[0]
	assert.Equal(t, "launchd", ssh.ProcessName)
	assert.Equal(t, 1, ssh.PID)
	assert.Equal(t, "root", ssh.User)
	assert.Equal(t, ProtocolTCP, ssh.Protocol)
	assert.Equal(t, "*", ssh.LocalAddress)
	assert.Equal(t, 22, ssh.LocalPort)
	assert.Equal(t, StateListen, ssh.State)
	assert.True(t, ssh.IsWildcard())

	pg := res.Records[2]
	assert.Equal(t, "::1", pg.LocalAddress)
	assert.Equal(t, 5432, pg.LocalPort)
	assert.False(t, pg.IsWildcard())

	code := res.Records[3]
	assert.Equal(t, `Code\x20H`, code.ProcessName)
	assert.Equal(t, "127.0.0.1", code.LocalAddress)
	assert.Equal(t, 52011, code.LocalPort)
	assert.Equal(t, "140.82.112.22", code.RemoteAddress)
	assert.Equal(t, 443, code.RemotePort)
	assert.Equal(t, StateEstablished, code.State)
	assert.False(t, code.IsService())

	mdns := res.Records[4]
	assert.Equal(t, ProtocolUDP, mdns.Protocol)
	assert.Equal(t, StateOther, mdns.State)
	assert.True(t, mdns.IsService())
}

func TestParse_Empty(t *testing.T) {
	res := Parse("")
	assert.Empty(t, res.Records)
	assert.Zero(t, res.Lines)
	assert.Zero(t, res.Failures)
}

func TestParse_BlankLinesIgnored(t *testing.T) {
	res := Parse("\n\n   \nsshd 10 root 3u IPv4 0x1 0t0 TCP 127.0.0.1:22 (LISTEN)\n\n")
	require.Len(t, res.Records, 1)
	assert.Equal(t, 1, res.Lines)
}

func TestParse_PPIDLayout(t *testing.T) {
	text := `COMMAND  PID PPID USER FD TYPE DEVICE SIZE/OFF NODE NAME
node    4242    1 bob  21u IPv4 0xabc 0t0 TCP *:3000 (LISTEN)`
	res := Parse(text)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "bob", res.Records[0].User)
	assert.Equal(t, 3000, res.Records[0].LocalPort)
}

func TestParse_PreservesDuplicatesAndOrder(t *testing.T) {
	line := "nginx 77 root 6u IPv4 0x1 0t0 TCP *:80 (LISTEN)"
	res := Parse(line + "\n" + line + "\n")
	require.Len(t, res.Records, 2)
	assert.Equal(t, res.Records[0], res.Records[1])
}

func TestParseLine_Failures(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "sshd 10 root 3u IPv4"},
		{"non-numeric pid", "sshd abc root 3u IPv4 0x1 0t0 TCP *:22 (LISTEN)"},
		{"zero pid", "sshd 0 root 3u IPv4 0x1 0t0 TCP *:22 (LISTEN)"},
		{"wildcard port", "mDNSRespo 310 _mdns 8u IPv4 0x1 0t0 UDP *:*"},
		{"port out of range", "sshd 10 root 3u IPv4 0x1 0t0 TCP *:70000 (LISTEN)"},
		{"no port", "sshd 10 root 3u IPv4 0x1 0t0 TCP localhost (LISTEN)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLine(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestParseLine_States(t *testing.T) {
	tests := []struct {
		line  string
		state State
		raw   string
	}{
		{"a 1 u 3u IPv4 0x1 0t0 TCP 10.0.0.2:22->10.0.0.9:5000 (CLOSE_WAIT)", StateCloseWait, ""},
		{"a 1 u 3u IPv4 0x1 0t0 TCP 10.0.0.2:22->10.0.0.9:5000 (CLOSED)", StateClosed, ""},
		{"a 1 u 3u IPv4 0x1 0t0 TCP 10.0.0.2:22->10.0.0.9:5000 (TIME_WAIT)", StateOther, "TIME_WAIT"},
		{"a 1 u 3u IPv4 0x1 0t0 UDP 10.0.0.2:123", StateOther, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.state)+tt.raw, func(t *testing.T) {
			rec, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.state, rec.State)
			assert.Equal(t, tt.raw, rec.RawState)
		})
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port int
	}{
		{"*:22", "*", 22},
		{"0.0.0.0:8080", "0.0.0.0", 8080},
		{"[::]:443", "::", 443},
		{"[fe80::1%lo0]:631", "fe80::1%lo0", 631},
		{"::1:5432", "::1", 5432},
		{"localhost:3000", "localhost", 3000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, port, err := SplitAddress(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.port, port)
		})
	}
}

func TestAddressHelpers(t *testing.T) {
	assert.True(t, IsWildcardAddress("*"))
	assert.True(t, IsWildcardAddress("0.0.0.0"))
	assert.True(t, IsWildcardAddress("::"))
	assert.True(t, IsWildcardAddress("[::]"))
	assert.False(t, IsWildcardAddress("127.0.0.1"))

	assert.True(t, IsLoopbackAddress("127.0.0.1"))
	assert.True(t, IsLoopbackAddress("::1"))
	assert.True(t, IsLoopbackAddress("localhost"))
	assert.False(t, IsLoopbackAddress("10.1.2.3"))

	assert.Equal(t, "*:22", JoinHostPort("*", 22))
	assert.Equal(t, "[::1]:5432", JoinHostPort("::1", 5432))
}

func TestParse_OversizedLineDoesNotStopParsing(t *testing.T) {
	good := "redis-ser 812 root 6u IPv4 0x1 0t0 TCP *:6379 (LISTEN)"
	huge := "junk " + strings.Repeat("x", 2<<20)
	text := good + "\n" + huge + "\n" + good + "\r\n" + good + "\n"

	res := Parse(text)
	require.Len(t, res.Records, 3)
	assert.Equal(t, 4, res.Lines)
	assert.Equal(t, 1, res.Failures)
	assert.Equal(t, res.Lines, len(res.Records)+res.Failures+res.Skipped)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.LessOrEqual(t, len(res.Errors[0].Text), maxErrorText)
	assert.Equal(t, StateListen, res.Records[1].State)
}
