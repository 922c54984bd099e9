package stamstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Query is a parsed STAMQL-subset statement. Real STAMQL is considerably
// richer (joins, constraints, nested selectors); this package only supports
// enough of it to exercise the pool's read/write split faithfully:
//
//	SELECT ANNOTATION ?var
//	SELECT RESOURCE ?var
//	ADD ANNOTATION TARGET RESOURCE <id> OFFSET <begin> <end> [DATA k=v[;k=v...]]
//	ADD RESOURCE <id> TEXT <text>
type Query struct {
	Verb string // SELECT or ADD
	Noun string // ANNOTATION or RESOURCE
	Var  string // bound variable name, e.g. "x" for "?x"
	Raw  string

	// ADD ANNOTATION fields
	TargetResource string
	Begin, End     int
	Data           map[string]string

	// ADD RESOURCE fields
	ResourceID   string
	ResourceText string
}

// ReadOnly reports whether the query only reads the store.
func (q *Query) ReadOnly() bool {
	return q.Verb == "SELECT"
}

// ParseQuery parses a STAMQL-subset statement. Errors are surfaced as
// *Error so the pool's HTTP layer can wrap them as StamError.
func ParseQuery(raw string) (*Query, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return nil, newError("parse", "empty or malformed query: %q", raw)
	}
	verb := strings.ToUpper(fields[0])
	noun := strings.ToUpper(fields[1])
	q := &Query{Verb: verb, Noun: noun, Raw: raw, Data: map[string]string{}}

	switch verb {
	case "SELECT":
		if noun != "ANNOTATION" && noun != "RESOURCE" {
			return nil, newError("parse", "unsupported SELECT target: %s", fields[1])
		}
		if len(fields) < 3 || !strings.HasPrefix(fields[2], "?") {
			return nil, newError("parse", "SELECT requires a bound variable, e.g. ?x")
		}
		q.Var = strings.TrimPrefix(fields[2], "?")
		return q, nil

	case "ADD":
		switch noun {
		case "ANNOTATION":
			return parseAddAnnotation(q, fields)
		case "RESOURCE":
			return parseAddResource(q, raw, fields)
		default:
			return nil, newError("parse", "unsupported ADD target: %s", fields[1])
		}

	default:
		return nil, newError("parse", "unsupported query verb: %s", fields[0])
	}
}

func parseAddAnnotation(q *Query, fields []string) (*Query, error) {
	i := 2
	for i < len(fields) {
		switch strings.ToUpper(fields[i]) {
		case "TARGET":
			i++
		case "RESOURCE":
			if i+1 >= len(fields) {
				return nil, newError("parse", "RESOURCE requires an id")
			}
			q.TargetResource = fields[i+1]
			i += 2
		case "OFFSET":
			if i+2 >= len(fields) {
				return nil, newError("parse", "OFFSET requires begin and end")
			}
			begin, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return nil, newError("parse", "invalid OFFSET begin: %v", err)
			}
			end, err := strconv.Atoi(fields[i+2])
			if err != nil {
				return nil, newError("parse", "invalid OFFSET end: %v", err)
			}
			q.Begin, q.End = begin, end
			i += 3
		case "DATA":
			if i+1 >= len(fields) {
				return nil, newError("parse", "DATA requires key=value pairs")
			}
			for _, kv := range strings.Split(fields[i+1], ";") {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) == 2 {
					q.Data[parts[0]] = parts[1]
				}
			}
			i += 2
		default:
			return nil, newError("parse", "unexpected token in ADD ANNOTATION: %s", fields[i])
		}
	}
	if q.TargetResource == "" {
		return nil, newError("parse", "ADD ANNOTATION requires TARGET RESOURCE <id>")
	}
	return q, nil
}

func parseAddResource(q *Query, raw string, fields []string) (*Query, error) {
	if len(fields) < 3 {
		return nil, newError("parse", "ADD RESOURCE requires an id")
	}
	q.ResourceID = fields[2]
	idx := strings.Index(raw, "TEXT ")
	if idx == -1 {
		return nil, newError("parse", "ADD RESOURCE requires TEXT <text>")
	}
	q.ResourceText = raw[idx+len("TEXT "):]
	return q, nil
}

// Result is one row of a query result: the bound variable name mapped to
// its JSON-serialized value, matching the BTreeMap<String,String> rows the
// Rust handler built from QueryIter in main.rs.
type Result map[string]string

// Query runs a read-only query against the store. The caller (the pool)
// must hold at least a reader lock on the store for the duration of this
// call.
func (s *AnnotationStore) Query(q *Query) ([]Result, error) {
	if !q.ReadOnly() {
		return nil, newError("query", "not a read-only query: %s", q.Raw)
	}
	switch q.Noun {
	case "ANNOTATION":
		rows := make([]Result, 0, len(s.data.Annotations))
		for _, a := range s.Annotations() {
			rows = append(rows, Result{q.Var: toJSON(a)})
		}
		return rows, nil
	case "RESOURCE":
		rows := make([]Result, 0, len(s.data.Resources))
		for _, r := range s.Resources() {
			rows = append(rows, Result{q.Var: toJSON(r)})
		}
		return rows, nil
	default:
		return nil, newError("query", "unsupported SELECT target: %s", q.Noun)
	}
}

// QueryMut runs a mutating query against the store. The caller (the pool)
// must hold the writer lock on the store for the duration of this call.
func (s *AnnotationStore) QueryMut(q *Query) ([]Result, error) {
	if q.ReadOnly() {
		return nil, newError("query", "not a mutating query: %s", q.Raw)
	}
	switch q.Noun {
	case "ANNOTATION":
		if _, ok := s.data.Resources[q.TargetResource]; !ok {
			return nil, newError("query", "no such resource: %s", q.TargetResource)
		}
		a := &Annotation{
			ID: fmt.Sprintf("a%d", len(s.data.Annotations)+1),
			Target: []Selector{{
				Resource: q.TargetResource,
				Begin:    q.Begin,
				End:      q.End,
			}},
			Data: q.Data,
		}
		s.addAnnotation(a)
		return []Result{{"annotation": toJSON(a)}}, nil
	case "RESOURCE":
		path := q.ResourceID + ".txt"
		if err := s.AddResource(q.ResourceID, q.ResourceText, path); err != nil {
			return nil, err
		}
		r, _ := s.Resource(q.ResourceID)
		return []Result{{"resource": toJSON(r)}}, nil
	default:
		return nil, newError("query", "unsupported ADD target: %s", q.Noun)
	}
}

func toJSON(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
