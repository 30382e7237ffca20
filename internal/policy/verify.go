package policy

// Result is the outcome of evaluating a policy against a request: an
// allow/deny decision plus the sealed flag carried through unchanged.
type Result struct {
	Allow   bool
	Sealed  bool
	Error   string
	GasUsed int
}

// Verify evaluates an already-parsed, already-trusted AST against a
// request and bindings. It does not check any signature — that's
// token.VerifyToken's job. sealed, when true, short-circuits to a denial
// before evaluation: it is the hook a higher attenuation layer uses to
// forbid narrowing an already-sealed token; the core only honors the flag.
//
// Evaluator failures (gas exhaustion, depth overrun, unknown
// operator) are returned as an error rather than folded into Result —
// they indicate a malformed policy or hostile input, not an ordinary deny.
func Verify(ast Value, req map[string]Value, b Bindings, sealed bool) (Result, error) {
	if sealed {
		return Result{Allow: false, Sealed: true, Error: "token is sealed and cannot be attenuated"}, nil
	}

	b.Req = NewMap(req)

	result, stats, err := EvalPolicyStats(ast, b)
	if err != nil {
		return Result{}, err
	}

	return Result{Allow: result.Truthy(), Sealed: false, GasUsed: stats.GasUsed}, nil
}
