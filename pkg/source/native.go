// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	psnet "github.com/shirou/gopsutil/v4/net"
	"github.com/shirou/gopsutil/v4/process"

	"github.com/netwatch/netwatch/pkg/analysis"
)

// Native reads the socket table through gopsutil instead of shelling out,
// and renders it in lsof's layout so the same parser applies.
type Native struct {
	logger zerolog.Logger

	connections func(ctx context.Context) ([]psnet.ConnectionStat, error)
	owner       func(ctx context.Context, pid int32) (name, user string)
}

// NewNative returns a gopsutil backed source.
func NewNative(logger zerolog.Logger) *Native {
	return &Native{
		logger: logger,
		connections: func(ctx context.Context) ([]psnet.ConnectionStat, error) {
			return psnet.ConnectionsWithContext(ctx, "inet")
		},
		owner: processOwner,
	}
}

func (n *Native) Name() string { return KindNative }

// Collect enumerates inet sockets. Sockets whose owning process cannot be
// resolved (pid 0) are left out, as lsof does.
func (n *Native) Collect(ctx context.Context) (string, error) {
	conns, err := n.connections(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("%w: %v", analysis.ErrPermissionDenied, err)
		}
		return "", fmt.Errorf("%w: enumerate sockets: %v", analysis.ErrSourceUnavailable, err)
	}

	sort.SliceStable(conns, func(i, j int) bool {
		if conns[i].Pid != conns[j].Pid {
			return conns[i].Pid < conns[j].Pid
		}
		return conns[i].Fd < conns[j].Fd
	})

	type owner struct{ name, user string }
	owners := map[int32]owner{}

	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')

	skipped := 0
	for _, c := range conns {
		if c.Pid <= 0 {
			skipped++
			continue
		}
		o, ok := owners[c.Pid]
		if !ok {
			name, user := n.owner(ctx, c.Pid)
			o = owner{name: name, user: user}
			owners[c.Pid] = o
		}
		b.WriteString(renderConnection(c, o.name, o.user))
		b.WriteByte('\n')
	}

	n.logger.Debug().
		Int("sockets", len(conns)).
		Int("unowned", skipped).
		Int("processes", len(owners)).
		Msg("native enumeration finished")
	return b.String(), nil
}

func processOwner(ctx context.Context, pid int32) (string, string) {
	name, user := "", ""
	p, err := process.NewProcessWithContext(ctx, pid)
	if err == nil {
		name, _ = p.NameWithContext(ctx)
		user, _ = p.UsernameWithContext(ctx)
		if user == "" {
			if uids, err := p.UidsWithContext(ctx); err == nil && len(uids) > 0 {
				user = strconv.Itoa(int(uids[0]))
			}
		}
	}
	if name == "" {
		name = "pid" + strconv.Itoa(int(pid))
	}
	if user == "" {
		user = "unknown"
	}
	return name, user
}

// renderConnection formats one socket as an lsof line.
func renderConnection(c psnet.ConnectionStat, name, user string) string {
	family := "IPv4"
	if c.Family == syscall.AF_INET6 {
		family = "IPv6"
	}
	proto := "TCP"
	if c.Type == syscall.SOCK_DGRAM {
		proto = "UDP"
	}

	endpoint := lsofEndpoint(c.Laddr.IP, c.Laddr.Port)
	if c.Raddr.IP != "" && c.Raddr.Port != 0 {
		endpoint += "->" + lsofEndpoint(c.Raddr.IP, c.Raddr.Port)
	}
	if c.Status != "" && c.Status != "NONE" {
		endpoint += " (" + c.Status + ")"
	}

	return fmt.Sprintf("%s %d %s %du %s 0x0 0t0 %s %s",
		escapeField(name), c.Pid, escapeField(user), c.Fd, family, proto, endpoint)
}

func lsofEndpoint(ip string, port uint32) string {
	switch ip {
	case "", "0.0.0.0", "::":
		ip = "*"
	}
	if strings.Contains(ip, ":") {
		return "[" + ip + "]:" + strconv.FormatUint(uint64(port), 10)
	}
	return ip + ":" + strconv.FormatUint(uint64(port), 10)
}

// escapeField keeps a value in one whitespace-delimited column, using the
// same \x20 escape lsof applies to command names.
func escapeField(s string) string {
	return strings.NewReplacer(" ", `\x20`, "\t", `\x09`).Replace(s)
}
