// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package listing

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Column layout of `lsof -i` output:
//
//	COMMAND PID [PPID] USER FD TYPE DEVICE SIZE/OFF NODE NAME
//
// The PPID column only appears with `lsof -R`; it is detected from the header row.
const (
	minFields     = 9
	headerCommand = "COMMAND"
)

var (
	errTooFewFields = errors.New("too few fields")
	errBadPID       = errors.New("invalid pid")
	errNoName       = errors.New("empty process name")
	errBadAddress   = errors.New("invalid local address")
)

// LineError describes a line that could not be turned into a record.
type LineError struct {
	Line   int    `json:"line"`
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

func (e LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// maxErrorText bounds the line text kept in a LineError.
const maxErrorText = 256

// Result is the outcome of parsing a listing.
//
// Lines counts every non-blank input line. Each of them ends up in exactly one
// of Records, Failures or Skipped (header rows), so
// len(Records)+Failures+Skipped == Lines.
type Result struct {
	Records  []ConnectionRecord
	Lines    int
	Failures int
	Skipped  int
	Errors   []LineError
}

// Parse parses the complete text output of the listing tool.
func Parse(text string) Result {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return ParseLines(lines)
}

// ParseLines parses an already split listing. Output order matches input
// order and duplicate sockets are preserved.
func ParseLines(lines []string) Result {
	res := Result{Records: make([]ConnectionRecord, 0, len(lines))}
	withPPID := false

	for i, line := range lines {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		res.Lines++

		if fields[0] == headerCommand {
			res.Skipped++
			withPPID = len(fields) > 2 && fields[2] == "PPID"
			continue
		}

		rec, err := parseFields(fields, withPPID)
		if err != nil {
			res.Failures++
			text := line
			if len(text) > maxErrorText {
				text = text[:maxErrorText]
			}
			res.Errors = append(res.Errors, LineError{Line: i + 1, Text: text, Reason: err.Error()})
			continue
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

// ParseLine parses a single data line in the standard column layout.
func ParseLine(line string) (ConnectionRecord, error) {
	return parseFields(strings.Fields(line), false)
}

func parseFields(fields []string, withPPID bool) (ConnectionRecord, error) {
	shift := 0
	if withPPID {
		shift = 1
	}
	if len(fields) < minFields+shift {
		return ConnectionRecord{}, errTooFewFields
	}

	rec := ConnectionRecord{ProcessName: fields[0]}
	if rec.ProcessName == "" {
		return ConnectionRecord{}, errNoName
	}

	pid, err := strconv.Atoi(fields[1])
	if err != nil || pid <= 0 {
		return ConnectionRecord{}, errBadPID
	}
	rec.PID = pid
	rec.User = fields[2+shift]
	rec.Protocol = ParseProtocol(fields[7+shift])

	name := fields[8+shift:]
	if err := parseName(&rec, name); err != nil {
		return ConnectionRecord{}, err
	}
	return rec, nil
}

// parseName fills addresses and state from the NAME column, which looks like
// `local[->remote] [(STATE)]`.
func parseName(rec *ConnectionRecord, tokens []string) error {
	endpoints := tokens[0]
	rec.State = StateOther
	if last := tokens[len(tokens)-1]; len(tokens) > 1 && strings.HasPrefix(last, "(") && strings.HasSuffix(last, ")") {
		rec.RawState = strings.Trim(last, "()")
		rec.State = ParseState(rec.RawState)
		if rec.State != StateOther {
			rec.RawState = ""
		}
	}

	local, remote, hasRemote := strings.Cut(endpoints, "->")

	host, port, err := SplitAddress(local)
	if err != nil {
		return errBadAddress
	}
	rec.LocalAddress, rec.LocalPort = host, port

	if hasRemote {
		// A peer with an unparseable port still says "connected"; keep the host.
		rhost, rport, err := SplitAddress(remote)
		if err != nil {
			rhost, rport = remote, 0
		}
		rec.RemoteAddress, rec.RemotePort = rhost, rport
	}
	return nil
}

// SplitAddress splits an lsof endpoint such as `*:22`, `127.0.0.1:5432` or
// `[::1]:6379` into host and numeric port.
func SplitAddress(s string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		idx := strings.LastIndex(s, ":")
		if idx <= 0 {
			return "", 0, fmt.Errorf("split %q: %w", s, err)
		}
		host, portStr = s[:idx], s[idx+1:]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in %q", s)
	}
	if host == "" {
		host = "*"
	}
	return host, port, nil
}
