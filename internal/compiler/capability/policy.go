// Package capability defines the closed capability universe, the effect to
// capability mapping, and the four-level supervision policy, and enforces a
// policy over an IR document.
package capability

import "sort"

// Canonical capabilities. The set is closed: no synonyms.
var Canonical = map[string]bool{
	"compute":  true,
	"io.read":  true,
	"io.write": true,
	"fs.read":  true,
	"fs.write": true,
	"net":      true,
	"env":      true,
	"crypto":   true,
}

// EffectToCap maps every effect to the capability it requires. The function
// is total on the effect universe.
var EffectToCap = map[string]string{
	"io.show":         "io.write",
	"io.ask":          "io.read",
	"contract.verify": "compute",
	"control.return":  "compute",
	"fs.read":         "fs.read",
	"fs.write":        "fs.write",
	"net.request":     "net",
	"env.read":        "env",
	"crypto.use":      "crypto",
}

// Policy partitions the capability universe into three disjoint sets for one
// supervision level.
type Policy struct {
	AllowedWithoutApproval map[string]bool
	AllowedWithApproval    map[string]bool
	Denied                 map[string]bool
}

// Policies maps each supervision level 1..4 to its policy. Level 1 allows
// only compute; level 4 denies nothing but gates the dangerous half behind
// approval.
var Policies = map[int]Policy{
	1: makePolicy(
		[]string{"compute"},
		nil,
	),
	2: makePolicy(
		[]string{"compute", "io.write"},
		[]string{"io.read"},
	),
	3: makePolicy(
		[]string{"compute", "io.read", "io.write"},
		[]string{"fs.read", "fs.write", "net"},
	),
	4: makePolicy(
		[]string{"compute", "io.read", "io.write", "fs.read"},
		[]string{"fs.write", "net", "env", "crypto"},
	),
}

// makePolicy builds a policy whose denied set is the rest of the universe.
func makePolicy(allowed, approval []string) Policy {
	p := Policy{
		AllowedWithoutApproval: map[string]bool{},
		AllowedWithApproval:    map[string]bool{},
		Denied:                 map[string]bool{},
	}
	for _, c := range allowed {
		p.AllowedWithoutApproval[c] = true
	}
	for _, c := range approval {
		p.AllowedWithApproval[c] = true
	}
	for c := range Canonical {
		if !p.AllowedWithoutApproval[c] && !p.AllowedWithApproval[c] {
			p.Denied[c] = true
		}
	}
	return p
}

// CapsForEffects returns the capabilities required by a list of effects,
// always including compute.
func CapsForEffects(effects []string) map[string]bool {
	req := map[string]bool{"compute": true}
	for _, ef := range effects {
		if cap, ok := EffectToCap[ef]; ok {
			req[cap] = true
		}
	}
	return req
}

// Canonicalize expands legacy shorthand capability names and de-duplicates,
// preserving first-seen order: io -> io.read,io.write; fs -> fs.read,fs.write.
func Canonicalize(caps []string) []string {
	out := make([]string, 0, len(caps))
	seen := map[string]bool{}
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range caps {
		switch c {
		case "io":
			add("io.read")
			add("io.write")
		case "fs":
			add("fs.read")
			add("fs.write")
		default:
			add(c)
		}
	}
	return out
}

// Sorted returns the keys of a capability set in sorted order.
func Sorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
