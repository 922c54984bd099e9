package server

import (
	"sort"
	"strconv"
	"strings"
)

// representation is one of the content types stamd can render query
// results as: JSON, JSON-LD, HTML, or plain text.
type representation string

const (
	repJSON   representation = "application/json"
	repJSONLD representation = "application/ld+json"
	repHTML   representation = "text/html"
	repText   representation = "text/plain"
)

var offered = []representation{repJSON, repJSONLD, repHTML, repText}

// negotiate picks the best offered representation for an Accept header:
// entries are tried in descending q-value order, and the first that names
// an offered type exactly, or is "*/*", wins. An empty or "*/*" Accept
// header defaults to JSON. Ranges such as "text/*" match nothing, and an
// entry with q=0 is treated like any other entry rather than as a refusal.
func negotiate(accept string) (representation, bool) {
	if accept == "" {
		return repJSON, true
	}
	type candidate struct {
		mime string
		q    float64
	}
	var candidates []candidate
	for _, part := range strings.Split(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mime := part
		q := 1.0
		if idx := strings.Index(part, ";"); idx != -1 {
			mime = strings.TrimSpace(part[:idx])
			for _, param := range strings.Split(part[idx+1:], ";") {
				param = strings.TrimSpace(param)
				if strings.HasPrefix(param, "q=") {
					if v, err := strconv.ParseFloat(strings.TrimPrefix(param, "q="), 64); err == nil {
						q = v
					}
				}
			}
		}
		candidates = append(candidates, candidate{mime, q})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].q > candidates[j].q })

	for _, c := range candidates {
		if c.mime == "*/*" {
			return repJSON, true
		}
		for _, rep := range offered {
			if string(rep) == c.mime {
				return rep, true
			}
		}
	}
	return "", false
}
