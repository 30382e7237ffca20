package policy

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Hard evaluation limits.
const (
	DefaultMaxGas = 10_000
	MaxDepth      = 64
)

// Sentinel errors for the three evaluator failure kinds.
var (
	ErrGasExhausted  = errors.New("gas budget exceeded")
	ErrDepthExceeded = errors.New("max nesting depth exceeded")
	ErrUnknownOp     = errors.New("unknown operator")
)

// PolicyError reports an unrecognized operator symbol, with a "did you
// mean" suggestion against the fixed built-in set — the same nearest-match
// idiom used elsewhere in this codebase for correcting user typos.
type PolicyError struct {
	Op         string
	Suggestion string
}

func (e *PolicyError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("Unknown op: %s (did you mean %q?)", e.Op, e.Suggestion)
	}
	return fmt.Sprintf("Unknown op: %s", e.Op)
}

func (e *PolicyError) Unwrap() error { return ErrUnknownOp }

// builtinOps is the closed, fixed set of reserved operator symbols.
var builtinOps = []string{
	"and", "or", "not",
	"=", "<", "<=", ">", ">=",
	"member", "in", "subset?", "before",
	"get", "tuple", "per-day-count",
	"dpop_ok?", "merkle_ok?", "vrf_ok?", "thresh_ok?",
}

func nearestOp(name string) string {
	best, bestDist := "", -1
	for _, op := range builtinOps {
		d := levenshtein.ComputeDistance(name, op)
		if bestDist == -1 || d < bestDist {
			best, bestDist = op, d
		}
	}
	// A suggestion more different than it is similar isn't worth surfacing.
	if bestDist > len(best)/2+1 {
		return ""
	}
	return best
}

// CryptoCallbacks are the four host-provided cryptographic predicates. A
// nil field defaults to always-true.
type CryptoCallbacks struct {
	DpopOK   func() bool
	MerkleOK func(args []Value) bool
	VrfOK    func(day string, amount float64) bool
	ThreshOK func() bool
}

// Bindings is the evaluation environment: the request mapping, host free
// variables, the current time, and the host callbacks.
type Bindings struct {
	Req         Value // must be a KindMap value (use NewMap), or Null
	Vars        map[string]Value
	Now         string
	PerDayCount func(action, day string) int64
	Crypto      CryptoCallbacks
	MaxGas      int
}

type evalState struct {
	gas   int
	depth int
}

// EvalStats reports what one evaluation consumed. GasUsed equals the
// number of evaluator entries, which is how the audit log and metrics
// account for policy cost.
type EvalStats struct {
	GasUsed int
}

// EvalPolicy evaluates an AST within bindings, returning the resulting
// value or one of ErrGasExhausted, ErrDepthExceeded, or a *PolicyError.
func EvalPolicy(ast Value, b Bindings) (Value, error) {
	v, _, err := EvalPolicyStats(ast, b)
	return v, err
}

// EvalPolicyStats is EvalPolicy plus resource accounting. Stats are valid
// on failure too: a GasExhausted result reports the full budget as used.
func EvalPolicyStats(ast Value, b Bindings) (Value, EvalStats, error) {
	maxGas := b.MaxGas
	if maxGas <= 0 {
		maxGas = DefaultMaxGas
	}
	st := &evalState{gas: maxGas}
	v, err := eval(ast, &b, st)
	used := maxGas - st.gas
	if used > maxGas {
		used = maxGas
	}
	return v, EvalStats{GasUsed: used}, err
}

func eval(node Value, b *Bindings, st *evalState) (Value, error) {
	st.gas--
	if st.gas < 0 {
		return Null, ErrGasExhausted
	}
	st.depth++
	if st.depth > MaxDepth {
		st.depth--
		return Null, ErrDepthExceeded
	}
	defer func() { st.depth-- }()
	return evalInner(node, b, st)
}

func evalInner(node Value, b *Bindings, st *evalState) (Value, error) { //nolint:gocyclo // closed dispatch table, one case per operator
	if !node.IsList() {
		return resolveSymbol(node, b), nil
	}
	elems, _ := node.AsList()
	if len(elems) == 0 {
		return Null, nil
	}

	opName, _ := elems[0].AsString()
	args := elems[1:]

	switch opName {
	case "and":
		for _, a := range args {
			v, err := eval(a, b, st)
			if err != nil {
				return Null, err
			}
			if !v.Truthy() {
				return Bool(false), nil
			}
		}
		return Bool(true), nil

	case "or":
		for _, a := range args {
			v, err := eval(a, b, st)
			if err != nil {
				return Null, err
			}
			if v.Truthy() {
				return Bool(true), nil
			}
		}
		return Bool(false), nil

	case "not":
		v, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		return Bool(!v.Truthy()), nil

	case "=":
		a, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		c, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		return Bool(Equal(a, c)), nil

	case "<=", "<", ">=", ">":
		a, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		c, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		af, cf := a.Float64(), c.Float64()
		switch opName {
		case "<=":
			return Bool(af <= cf), nil
		case "<":
			return Bool(af < cf), nil
		case ">=":
			return Bool(af >= cf), nil
		default:
			return Bool(af > cf), nil
		}

	case "member", "in":
		v, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		lst, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		return Bool(Contains(lst, v)), nil

	case "subset?":
		a, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		c, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		aList, aOK := a.AsList()
		_, cOK := c.AsList()
		if !aOK || !cOK {
			return Bool(false), nil
		}
		for _, item := range aList {
			if !Contains(c, item) {
				return Bool(false), nil
			}
		}
		return Bool(true), nil

	case "before":
		a, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		c, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		return Bool(a.Str() < c.Str()), nil

	case "get":
		obj := resolveSymbol(arg(args, 0), b)
		key, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		keyStr, ok := key.AsString()
		if !ok {
			return Null, nil
		}
		return obj.GetField(keyStr), nil

	case "tuple":
		out := make([]Value, 0, len(args))
		for _, a := range args {
			v, err := eval(a, b, st)
			if err != nil {
				return Null, err
			}
			out = append(out, v)
		}
		return List(out), nil

	case "per-day-count":
		action, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		day, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		if b.PerDayCount == nil {
			return Int(0), nil
		}
		return Int(b.PerDayCount(action.Str(), day.Str())), nil

	case "dpop_ok?":
		if b.Crypto.DpopOK == nil {
			return Bool(true), nil
		}
		return Bool(b.Crypto.DpopOK()), nil

	case "merkle_ok?":
		evaluated := make([]Value, 0, len(args))
		for _, a := range args {
			v, err := eval(a, b, st)
			if err != nil {
				return Null, err
			}
			evaluated = append(evaluated, v)
		}
		if b.Crypto.MerkleOK == nil {
			return Bool(true), nil
		}
		return Bool(b.Crypto.MerkleOK(evaluated)), nil

	case "vrf_ok?":
		day, err := eval(arg(args, 0), b, st)
		if err != nil {
			return Null, err
		}
		amount, err := eval(arg(args, 1), b, st)
		if err != nil {
			return Null, err
		}
		if b.Crypto.VrfOK == nil {
			return Bool(true), nil
		}
		return Bool(b.Crypto.VrfOK(day.Str(), amount.Float64())), nil

	case "thresh_ok?":
		// Intended as k-of-n co-signature verification, not implemented
		// in v0.1. Stays a capability hook.
		if b.Crypto.ThreshOK == nil {
			return Bool(true), nil
		}
		return Bool(b.Crypto.ThreshOK()), nil

	default:
		return Null, &PolicyError{Op: opName, Suggestion: nearestOp(opName)}
	}
}

// arg returns args[i], or Null if the policy omitted it. The evaluator
// must stay total over malformed/hostile ASTs — a missing operand is a
// semantic question (what does (not) mean?), never a Go-level panic.
func arg(args []Value, i int) Value {
	if i < 0 || i >= len(args) {
		return Null
	}
	return args[i]
}

// resolveSymbol implements §4.3's atom resolution table. It is also used,
// deliberately unevaluated, as the first argument of (get …): the object
// being indexed is looked up as a bare symbol rather than fully evaluated,
// which is why `(get (tuple …) "k")` does not produce an object to index.
func resolveSymbol(x Value, b *Bindings) Value {
	s, ok := x.AsString()
	if !ok {
		return x
	}
	switch s {
	case "#t":
		return Bool(true)
	case "#f":
		return Bool(false)
	case "req":
		return b.Req
	case "now":
		if v, ok := b.Vars["now"]; ok {
			return v
		}
		return x
	default:
		if v, ok := b.Vars[s]; ok {
			return v
		}
		return x
	}
}

// sortedOpNames returns the builtin operator set in a stable order, used by
// CLI help text and error messages that want a deterministic listing.
func sortedOpNames() []string {
	out := append([]string(nil), builtinOps...)
	sort.Strings(out)
	return out
}

// OperatorHelp renders the reserved operator names as a single line, for
// CLI usage text.
func OperatorHelp() string {
	return strings.Join(sortedOpNames(), " ")
}
