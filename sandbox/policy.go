package sandbox

import (
	"sort"
	"sync"

	"github.com/deepnoodle-ai/peek/vm"
)

// PolicyEntry allows a set of methods for one receiver type and call kind.
type PolicyEntry struct {
	ReceiverType string      `json:"receiver_type"`
	Kind         vm.CallKind `json:"kind"`
	Methods      []string    `json:"methods,omitempty"`
	// AllMethods marks an immutable type. Such entries cover both kinds.
	AllMethods bool `json:"all_methods,omitempty"`
}

type policyKey struct {
	receiverType string
	kind         vm.CallKind
}

// Policy decides which calls an evaluated expression may make. A Policy
// cannot be changed after it is built and is safe for concurrent use.
type Policy struct {
	immutable map[string]bool
	allowed   map[policyKey]map[string]bool
}

// NewPolicy builds a policy from the given entries.
func NewPolicy(entries ...PolicyEntry) *Policy {
	p := &Policy{
		immutable: map[string]bool{},
		allowed:   map[policyKey]map[string]bool{},
	}
	for _, entry := range entries {
		if entry.AllMethods {
			p.immutable[entry.ReceiverType] = true
			continue
		}
		key := policyKey{entry.ReceiverType, entry.Kind}
		methods, ok := p.allowed[key]
		if !ok {
			methods = map[string]bool{}
			p.allowed[key] = methods
		}
		for _, method := range entry.Methods {
			methods[method] = true
		}
	}
	return p
}

// IsCallAllowed reports whether method may be called on a receiver of the
// given type. Operators are methods named by their symbol, such as "+" or
// "[]".
func (p *Policy) IsCallAllowed(receiverType string, kind vm.CallKind, method string) bool {
	if p.immutable[receiverType] {
		return true
	}
	return p.allowed[policyKey{receiverType, kind}][method]
}

// Describe returns the policy entries sorted by receiver type and kind, with
// sorted method names.
func (p *Policy) Describe() []PolicyEntry {
	var entries []PolicyEntry
	for name := range p.immutable {
		entries = append(entries, PolicyEntry{ReceiverType: name, AllMethods: true})
	}
	for key, methods := range p.allowed {
		entry := PolicyEntry{ReceiverType: key.receiverType, Kind: key.kind}
		for method := range methods {
			entry.Methods = append(entry.Methods, method)
		}
		sort.Strings(entry.Methods)
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].ReceiverType != entries[j].ReceiverType {
			return entries[i].ReceiverType < entries[j].ReceiverType
		}
		return entries[i].Kind < entries[j].Kind
	})
	return entries
}

var (
	defaultPolicy     *Policy
	defaultPolicyOnce sync.Once
)

// DefaultPolicy returns the policy used when none is configured. It is built
// once per process.
func DefaultPolicy() *Policy {
	defaultPolicyOnce.Do(func() {
		defaultPolicy = NewPolicy(defaultEntries()...)
	})
	return defaultPolicy
}

var (
	comparisons = []string{"==", "!=", "<", "<=", ">", ">="}
	equality    = []string{"==", "!="}
)

func methods(groups ...[]string) []string {
	var result []string
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

func defaultEntries() []PolicyEntry {
	return []PolicyEntry{
		{ReceiverType: "nil", AllMethods: true},
		{ReceiverType: "bool", AllMethods: true},
		{ReceiverType: "int", AllMethods: true},
		{ReceiverType: "float", AllMethods: true},
		{ReceiverType: "regexp", AllMethods: true},
		{ReceiverType: "math", AllMethods: true},
		{
			ReceiverType: "string",
			Kind:         vm.InstanceCall,
			Methods: methods(comparisons, []string{
				"+", "*", vm.MethodIndex, vm.MethodSlice, vm.MethodContains,
				"compare", "contains", "count", "fields", "has_prefix",
				"has_suffix", "index", "join", "last_index", "repeat",
				"replace_all", "split", "to_lower", "to_upper", "trim",
				"trim_prefix", "trim_space", "trim_suffix",
			}),
		},
		{
			ReceiverType: "list",
			Kind:         vm.InstanceCall,
			Methods: methods(comparisons, []string{
				"+", "*", vm.MethodIndex, vm.MethodSlice, vm.MethodContains,
				"copy", "count", "each", "filter", "index", "map", "reduce",
				"reverse", "sort",
			}),
		},
		{
			ReceiverType: "map",
			Kind:         vm.InstanceCall,
			Methods: methods(equality, []string{
				vm.MethodIndex, vm.MethodContains,
				"copy", "get", "items", "keys", "values",
			}),
		},
		{
			ReceiverType: "time",
			Kind:         vm.InstanceCall,
			Methods: methods(comparisons, []string{
				"add_date", "after", "before", "format", "unix", "utc",
			}),
		},
		{
			ReceiverType: "error",
			Kind:         vm.InstanceCall,
			Methods:      methods(equality, []string{"message", "kind", "line", "column"}),
		},
		{
			ReceiverType: "function",
			Kind:         vm.InstanceCall,
			Methods:      methods(equality, []string{vm.MethodCall}),
		},
		{
			ReceiverType: "proxy",
			Kind:         vm.InstanceCall,
			Methods: methods(comparisons, []string{
				vm.MethodIndex, vm.MethodSlice, vm.MethodContains,
			}),
		},
		{
			ReceiverType: "*net/url.URL",
			Kind:         vm.InstanceCall,
			Methods: []string{
				"EscapedFragment", "EscapedPath", "Hostname", "IsAbs", "Port",
				"Redacted", "RequestURI", "String",
			},
		},
		{
			ReceiverType: "net/netip.Addr",
			Kind:         vm.InstanceCall,
			Methods: []string{
				"BitLen", "Is4", "Is6", "IsLoopback", "IsPrivate", "IsUnspecified",
				"IsValid", "String", "Zone",
			},
		},
		{
			ReceiverType: "net/netip.Prefix",
			Kind:         vm.InstanceCall,
			Methods:      []string{"Addr", "Bits", "Contains", "IsValid", "String"},
		},
		{
			ReceiverType: "*math/big.Int",
			Kind:         vm.InstanceCall,
			Methods:      []string{"BitLen", "Cmp", "Int64", "IsInt64", "Sign", "String", "Text"},
		},
		{
			ReceiverType: "*time.Location",
			Kind:         vm.InstanceCall,
			Methods:      []string{"String"},
		},
		{
			ReceiverType: vm.ReceiverKernel,
			Kind:         vm.InstanceCall,
			Methods: []string{
				"abs", "all", "any", "assert", "bool", "coalesce", "float",
				"getattr", "int", "keys", "len", "max", "min", "reversed",
				"sorted", "sprintf", "str", "sum", "type", "values",
			},
		},
		{ReceiverType: "string", Kind: vm.ClassCall, Methods: []string{vm.MethodNew, "from_list"}},
		{ReceiverType: "list", Kind: vm.ClassCall, Methods: []string{vm.MethodNew}},
		{ReceiverType: "map", Kind: vm.ClassCall, Methods: []string{vm.MethodNew, "from_items"}},
		{ReceiverType: "error", Kind: vm.ClassCall, Methods: []string{vm.MethodNew}},
		{ReceiverType: "time", Kind: vm.ClassCall, Methods: []string{"now", "parse", "since", "unix"}},
		{
			ReceiverType: "runtime",
			Kind:         vm.ClassCall,
			Methods:      []string{"gomaxprocs", "mem_stats", "num_cpu", "num_goroutine", "stack"},
		},
	}
}
