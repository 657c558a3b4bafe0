// Package filter defines the project type allow-list and named filter
// presets used to restrict which projects a listing request returns.
//
// Types fall into three non-overlapping groups (open source ecosystems,
// IaC configurations, container artifacts) plus the standalone "sast"
// type. Only allow-listed types are ever forwarded to the API; anything
// else is dropped and reported to the caller.
package filter

import (
	"sort"
	"strings"
)

// openSource covers the open source ecosystem (SCA) project types.
var openSource = []string{
	"cocoapods", "composer", "cpp", "golangdep", "gomodules", "govendor",
	"gradle", "hex", "maven", "npm", "nuget", "paket", "pip", "pipenv",
	"pnpm", "poetry", "rubygems", "sbt", "yarn",
}

// iac covers the infrastructure-as-code configuration project types.
var iac = []string{
	"armconfig", "cloudformationconfig", "helmconfig", "k8sconfig",
	"terraformconfig",
}

// container covers the container artifact project types.
var container = []string{
	"apk", "deb", "dockerfile", "linux", "rpm",
}

// standalone types outside the three preset groups.
var standalone = []string{
	"sast",
}

// allowed is the full allow-list, built once from the groups.
var allowed = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, group := range [][]string{openSource, iac, container, standalone} {
		for _, t := range group {
			m[t] = struct{}{}
		}
	}
	return m
}()

// OpenSource returns the open source ecosystem preset.
func OpenSource() []string {
	return clone(openSource)
}

// IaC returns the infrastructure-as-code preset.
func IaC() []string {
	return clone(iac)
}

// Container returns the container artifact preset.
func Container() []string {
	return clone(container)
}

// All returns every allow-listed project type, sorted.
func All() []string {
	all := make([]string, 0, len(allowed))
	for t := range allowed {
		all = append(all, t)
	}
	sort.Strings(all)
	return all
}

// IsAllowed reports whether t is an allow-listed project type.
func IsAllowed(t string) bool {
	_, ok := allowed[t]
	return ok
}

// Validate normalizes raw type names (trim, lowercase) and splits them
// into allow-listed types and rejected entries, both in input order.
// Rejected entries are never sent to the server; callers should report
// them to the user.
func Validate(raw []string) (valid, rejected []string) {
	for _, r := range raw {
		t := strings.ToLower(strings.TrimSpace(r))
		if t == "" {
			continue
		}
		if IsAllowed(t) {
			valid = append(valid, t)
		} else {
			rejected = append(rejected, t)
		}
	}
	return valid, rejected
}

// ParseList splits a comma-separated type list as entered on the CLI.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// QueryValue serializes a type list as the comma-joined "types" query
// parameter value.
func QueryValue(types []string) string {
	return strings.Join(types, ",")
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
