// Copyright 2025 NetWatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package rules holds the tables the analysis engine is driven by: category
// patterns, port classes, the ordered risk rule list, score weights and
// thresholds. Everything here is plain data so operators can override it
// from a YAML rules file.
package rules

// PortClass groups ports that share a risk profile.
type PortClass string

const (
	ClassNoAuth       PortClass = "no_auth"
	ClassRemoteAccess PortClass = "remote_access"
	ClassDatabase     PortClass = "database"
	ClassSystem       PortClass = "system"
	ClassDevelopment  PortClass = "development"
)

// CategoryTable maps process-name substrings to a category. Tables are
// evaluated in slice order and the first table with a matching pattern wins.
type CategoryTable struct {
	Category string   `koanf:"category" json:"category" yaml:"category" validate:"required,oneof=system development file_sharing communication database media browsers productivity"`
	Patterns []string `koanf:"patterns" json:"patterns" yaml:"patterns" validate:"required,min=1,dive,required"`
}

// RiskRule is one entry of the ordered risk rule list. A record matches when
// its local port belongs to one of Classes, or when DevProcess is set and the
// process name looks like a development server. Wildcard additionally
// requires an all-interfaces bind.
type RiskRule struct {
	Name       string      `koanf:"name" json:"name" yaml:"name" validate:"required"`
	Classes    []PortClass `koanf:"classes" json:"classes" yaml:"classes" validate:"dive,oneof=no_auth remote_access database system development"`
	DevProcess bool        `koanf:"dev_process" json:"dev_process,omitempty" yaml:"dev_process,omitempty"`
	Wildcard   bool        `koanf:"wildcard" json:"wildcard,omitempty" yaml:"wildcard,omitempty"`
	Tier       string      `koanf:"tier" json:"tier" yaml:"tier" validate:"required,oneof=LOW MEDIUM HIGH CRITICAL"`
}

// Weights are the score deductions.
type Weights struct {
	Baseline         int `koanf:"baseline" json:"baseline" yaml:"baseline" validate:"min=0,max=100"`
	WildcardListener int `koanf:"wildcard_listener" json:"wildcard_listener" yaml:"wildcard_listener" validate:"min=0"`
	SuspiciousPort   int `koanf:"suspicious_port" json:"suspicious_port" yaml:"suspicious_port" validate:"min=0"`
	RootHighPort     int `koanf:"root_high_port" json:"root_high_port" yaml:"root_high_port" validate:"min=0"`
}

// Thresholds control the rating bands and the score below which a firewall
// recommendation is emitted.
type Thresholds struct {
	Good      int `koanf:"good" json:"good" yaml:"good" validate:"min=0,max=100,gtefield=Moderate"`
	Moderate  int `koanf:"moderate" json:"moderate" yaml:"moderate" validate:"min=0,max=100"`
	Attention int `koanf:"attention" json:"attention" yaml:"attention" validate:"min=0,max=100"`
}

// Rules is the complete rule set consumed by the analysis engine.
type Rules struct {
	// Requires is an optional semver constraint on the netwatch version.
	Requires string `koanf:"requires" json:"requires,omitempty" yaml:"requires,omitempty"`

	Categories            []CategoryTable       `koanf:"categories" json:"categories" yaml:"categories" validate:"dive"`
	PortCategories        map[int]string        `koanf:"-" json:"port_categories" yaml:"port_categories"`
	PortClasses           map[PortClass][]int   `koanf:"port_classes" json:"port_classes" yaml:"port_classes"`
	RiskRules             []RiskRule            `koanf:"risk_rules" json:"risk_rules" yaml:"risk_rules" validate:"required,min=1,dive"`
	DevProcesses          []string              `koanf:"dev_processes" json:"dev_processes" yaml:"dev_processes" validate:"dive,required"`
	SuspiciousPorts       []int                 `koanf:"suspicious_ports" json:"suspicious_ports" yaml:"suspicious_ports" validate:"dive,min=0,max=65535"`
	PrivilegedUsers       []string              `koanf:"privileged_users" json:"privileged_users" yaml:"privileged_users" validate:"dive,required"`
	PrivilegedPortCeiling int                   `koanf:"privileged_port_ceiling" json:"privileged_port_ceiling" yaml:"privileged_port_ceiling" validate:"min=0,max=65535"`
	Weights               Weights               `koanf:"weights" json:"weights" yaml:"weights"`
	Thresholds            Thresholds            `koanf:"thresholds" json:"thresholds" yaml:"thresholds"`
	PortNames             map[int]string        `koanf:"-" json:"port_names" yaml:"port_names"`
	PrivateNetworks       []string              `koanf:"private_networks" json:"private_networks" yaml:"private_networks" validate:"dive,cidr"`
}

// Default returns the built-in rule set.
func Default() *Rules {
	return &Rules{
		Categories: []CategoryTable{
			{Category: "system", Patterns: []string{"launchd", "systemd", "mDNSRespo", "kdc", "AirPlayXP", "rpcbind", "homed", "replicato", "cupsd", "avahi"}},
			{Category: "communication", Patterns: []string{"Mail", "ssh", "rapportd", "identitys", "Slack", "Discord", "zoom"}},
			{Category: "database", Patterns: []string{"redis", "mongod", "postgres", "mysqld", "mariadb", "elastic", "memcache"}},
			{Category: "file_sharing", Patterns: []string{"nfsd", "netbiosd", "rpc.statd", "rpc.lockd", "rpc.rquot", "smbd", "nmbd", "afpd"}},
			{Category: "development", Patterns: []string{`Code\x20H`, "node", "ollama", "com.docke", "docker", "webpack", "python", "ruby", "php", "vite"}},
			{Category: "media", Patterns: []string{"Spotify", `Jump\x20D`, "VLC", "Plex"}},
			{Category: "browsers", Patterns: []string{`Brave\x20`, "firefox", "Chrome", "Safari", "msedge"}},
			{Category: "productivity", Patterns: []string{"Windows", "ControlCe", "Notion"}},
		},
		PortCategories: map[int]string{
			22:    "communication",
			53:    "system",
			88:    "system",
			111:   "system",
			5353:  "system",
			139:   "file_sharing",
			445:   "file_sharing",
			548:   "file_sharing",
			2049:  "file_sharing",
			3306:  "database",
			5432:  "database",
			6379:  "database",
			9200:  "database",
			27017: "database",
			3000:  "development",
			3001:  "development",
			4200:  "development",
			5173:  "development",
			8000:  "development",
			8080:  "development",
			8081:  "development",
			11434: "development",
		},
		PortClasses: map[PortClass][]int{
			ClassNoAuth:       {6379, 27017, 23, 9200},
			ClassRemoteAccess: {22, 3389},
			ClassDatabase:     {5432, 3306, 27017, 6379},
			ClassSystem:       {80, 443, 111, 2049, 445},
			ClassDevelopment:  {3000, 8000, 8080},
		},
		RiskRules: []RiskRule{
			{Name: "no-auth-exposed", Classes: []PortClass{ClassNoAuth}, Wildcard: true, Tier: "CRITICAL"},
			{Name: "remote-access-exposed", Classes: []PortClass{ClassRemoteAccess, ClassDatabase}, Wildcard: true, Tier: "HIGH"},
			{Name: "system-service", Classes: []PortClass{ClassSystem}, Tier: "MEDIUM"},
			{Name: "dev-server-exposed", Classes: []PortClass{ClassDevelopment}, DevProcess: true, Wildcard: true, Tier: "MEDIUM"},
		},
		DevProcesses:          []string{"webpack", "node", "python", "ruby", "php", "django", "flask", "vite", "rails"},
		SuspiciousPorts:       []int{1337, 4444, 5554, 6666, 6667, 12345, 12346, 20034, 27374, 31337},
		PrivilegedUsers:       []string{"root"},
		PrivilegedPortCeiling: 1024,
		Weights: Weights{
			Baseline:         100,
			WildcardListener: 10,
			SuspiciousPort:   5,
			RootHighPort:     2,
		},
		Thresholds: Thresholds{Good: 80, Moderate: 60, Attention: 60},
		PortNames: map[int]string{
			22:    "SSH",
			23:    "Telnet",
			53:    "DNS",
			80:    "HTTP",
			88:    "Kerberos",
			111:   "RPC",
			443:   "HTTPS",
			445:   "SMB",
			2049:  "NFS",
			3000:  "Dev Server",
			3306:  "MySQL",
			3389:  "RDP",
			5353:  "mDNS",
			5432:  "PostgreSQL",
			6379:  "Redis",
			7000:  "Control Center",
			8000:  "HTTP Alt",
			8080:  "HTTP Proxy",
			9200:  "Elasticsearch",
			11434: "Ollama",
			27017: "MongoDB",
		},
		PrivateNetworks: []string{
			"10.0.0.0/8",
			"172.16.0.0/12",
			"192.168.0.0/16",
			"127.0.0.0/8",
			"169.254.0.0/16",
			"::1/128",
			"fc00::/7",
			"fe80::/10",
		},
	}
}

// Clone returns a deep copy so callers can tweak a rule set without touching
// the original.
func (r *Rules) Clone() *Rules {
	out := *r
	out.Categories = make([]CategoryTable, len(r.Categories))
	for i, c := range r.Categories {
		out.Categories[i] = CategoryTable{Category: c.Category, Patterns: append([]string(nil), c.Patterns...)}
	}
	out.PortCategories = cloneIntMap(r.PortCategories)
	out.PortNames = cloneIntMap(r.PortNames)
	out.PortClasses = make(map[PortClass][]int, len(r.PortClasses))
	for k, v := range r.PortClasses {
		out.PortClasses[k] = append([]int(nil), v...)
	}
	out.RiskRules = make([]RiskRule, len(r.RiskRules))
	for i, rr := range r.RiskRules {
		rr.Classes = append([]PortClass(nil), rr.Classes...)
		out.RiskRules[i] = rr
	}
	out.DevProcesses = append([]string(nil), r.DevProcesses...)
	out.SuspiciousPorts = append([]int(nil), r.SuspiciousPorts...)
	out.PrivilegedUsers = append([]string(nil), r.PrivilegedUsers...)
	out.PrivateNetworks = append([]string(nil), r.PrivateNetworks...)
	return &out
}

func cloneIntMap(m map[int]string) map[int]string {
	out := make(map[int]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
