// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package analysis

import (
	"fmt"

	"github.com/netwatch/netwatch/pkg/listing"
)

// PortAdvisory is hardening guidance for a single port.
type PortAdvisory struct {
	Port    int    `json:"port" yaml:"port"`
	Service string `json:"service,omitempty" yaml:"service,omitempty"`
	// Exposed is the tier the port would get as a wildcard-bound listener.
	Exposed         RiskTier `json:"exposed_risk" yaml:"exposed_risk"`
	Description     string   `json:"description" yaml:"description"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	Commands        []string `json:"commands,omitempty" yaml:"commands,omitempty"`
}

type portGuide struct {
	description     string
	recommendations []string
	commands        []string
}

var portGuides = map[int]portGuide{
	22: {
		description: "SSH remote shell access",
		recommendations: []string{
			"Use key-based authentication only",
			"Disable root login",
			"Restrict access with AllowUsers or a firewall",
		},
		commands: []string{
			"sudo sed -i '' 's/^#*PasswordAuthentication.*/PasswordAuthentication no/' /etc/ssh/sshd_config",
			"sudo sed -i '' 's/^#*PermitRootLogin.*/PermitRootLogin no/' /etc/ssh/sshd_config",
		},
	},
	23: {
		description: "Telnet sends credentials in clear text",
		recommendations: []string{
			"Disable the Telnet service",
			"Use SSH for remote shell access",
		},
	},
	3306: {
		description: "MySQL database server",
		recommendations: []string{
			"Set bind-address = 127.0.0.1 unless remote clients need access",
			"Remove anonymous accounts and require strong passwords",
		},
		commands: []string{"mysql_secure_installation"},
	},
	3389: {
		description: "Remote Desktop Protocol",
		recommendations: []string{
			"Expose RDP only through a VPN or gateway",
			"Enable Network Level Authentication",
		},
	},
	5432: {
		description: "PostgreSQL database server",
		recommendations: []string{
			"Set listen_addresses = 'localhost' in postgresql.conf",
			"Use scram-sha-256 authentication in pg_hba.conf",
		},
	},
	6379: {
		description: "Redis accepts unauthenticated connections by default",
		recommendations: []string{
			"Set a strong password with requirepass",
			"Bind to 127.0.0.1",
			"Enable protected-mode",
		},
		commands: []string{
			"redis-cli CONFIG SET requirepass 'your-strong-password'",
			"redis-cli CONFIG SET bind 127.0.0.1",
			"redis-cli CONFIG SET protected-mode yes",
		},
	},
	9200: {
		description: "Elasticsearch HTTP API",
		recommendations: []string{
			"Enable xpack.security and TLS",
			"Set network.host to a private address",
		},
	},
	27017: {
		description: "MongoDB accepts unauthenticated connections unless authorization is enabled",
		recommendations: []string{
			"Enable authentication",
			"Bind to 127.0.0.1",
			"Use TLS for remote clients",
		},
		commands: []string{
			"Add 'security:\\n  authorization: enabled' to /etc/mongod.conf",
			"Set 'net.bindIp: 127.0.0.1' in /etc/mongod.conf",
		},
	},
}

var genericGuide = portGuide{
	description: "No specific guidance for this port",
	recommendations: []string{
		"Bind the service to 127.0.0.1 unless remote access is required",
		"Keep the software up to date",
		"Use strong authentication",
	},
}

// PortAdvice returns hardening guidance for port. The exposed risk is the
// tier a wildcard-bound, unprivileged listener on that port would receive.
func (e *Engine) PortAdvice(port int) (PortAdvisory, error) {
	if port < 0 || port > 65535 {
		return PortAdvisory{}, WithErrorCode(fmt.Errorf("%w: port %d out of range", ErrInvalidInput, port), ErrorCodeInvalidInput)
	}

	guide, ok := portGuides[port]
	if !ok {
		guide = genericGuide
	}

	listener := listing.ConnectionRecord{
		ProcessName:  "listener",
		PID:          1,
		Protocol:     listing.ProtocolTCP,
		LocalAddress: "*",
		LocalPort:    port,
		State:        listing.StateListen,
	}

	adv := PortAdvisory{
		Port:            port,
		Service:         e.PortName(port),
		Exposed:         e.assessor.Risk(listener),
		Description:     guide.description,
		Recommendations: append([]string(nil), guide.recommendations...),
		Commands:        append([]string(nil), guide.commands...),
	}
	if e.IsSuspicious(port) {
		adv.Recommendations = append(adv.Recommendations, AdviceSuspicious)
	}
	return adv, nil
}
