package solver

import "vcgen/internal/constant"

// wireExpr is the JSON frame shape sent to the solver server. Literal
// constants are flattened to plain JSON values since the wire protocol is
// one-directional (query out, verdict back) — the server never needs to
// reconstruct a constant.Constant.
type wireExpr struct {
	Op      Op          `json:"op"`
	Literal interface{} `json:"literal,omitempty"`
	Name    string      `json:"name,omitempty"`
	Args    []wireExpr  `json:"args,omitempty"`
}

func toWire(e Expr) wireExpr {
	w := wireExpr{Op: e.Op, Name: e.Name}
	if e.Op == OpLiteral {
		w.Literal = constantToJSON(e.Literal)
	}
	if len(e.Args) > 0 {
		w.Args = make([]wireExpr, len(e.Args))
		for i, a := range e.Args {
			w.Args[i] = toWire(a)
		}
	}
	return w
}

func constantToJSON(c constant.Constant) interface{} {
	switch v := c.(type) {
	case constant.Null:
		return nil
	case constant.Bool:
		return v.Value
	case constant.Byte:
		return v.Value
	case constant.Char:
		return v.Value
	case constant.Int:
		return v.Value.String()
	case constant.Rational:
		return v.Value.RatString()
	case constant.Str:
		return v.Value
	case constant.List:
		return constantSeqToJSON(v.Elems)
	case constant.Set:
		return constantSeqToJSON(v.Elems)
	case constant.Tuple:
		return constantSeqToJSON(v.Elems)
	case constant.Record:
		fields := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			fields[f.Name] = constantToJSON(f.Value)
		}
		return fields
	default:
		return c.Key()
	}
}

func constantSeqToJSON(elems []constant.Constant) []interface{} {
	out := make([]interface{}, len(elems))
	for i, e := range elems {
		out[i] = constantToJSON(e)
	}
	return out
}

// queryFrame is one JSON request to the solver server, sent as a single
// WebSocket text message.
type queryFrame struct {
	Expr wireExpr `json:"expr"`
}

// verdictFrame is the server's JSON response, read as a single WebSocket
// message.
type verdictFrame struct {
	Verdict Verdict `json:"verdict"`
	Error   string  `json:"error,omitempty"`
}
