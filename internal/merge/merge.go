// Package merge integrates extracted fields from one source into the
// session's working record using confidence-based conflict resolution.
package merge

import (
	"sort"

	"github.com/medalline/enrich/internal/model"
)

// Merge applies one source's fields to the current record. Per field it
// accepts the new value when the current one is empty, replaces the current
// value when the new confidence is strictly greater, unions string lists,
// recurses into nested records, and otherwise discards the new value.
//
// The inputs are not mutated. Returns the merged fields, the merged
// confidence map, and the names of fields that gained data (nested gains are
// reported as dotted paths under the top-level field).
//
// Replacement uses strict > on confidence, so merging the same input twice
// is a no-op the second time, and confidence per field never decreases.
func Merge(current, incoming model.Fields, curConf, newConf map[string]float64) (model.Fields, map[string]float64, []string) {
	merged := current.Clone()
	conf := make(map[string]float64, len(curConf))
	for k, v := range curConf {
		conf[k] = v
	}

	var enriched []string

	names := make([]string, 0, len(incoming))
	for name := range incoming {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nv := incoming[name]
		if nv.IsEmpty() {
			continue
		}
		nc := newConf[name]
		cv, exists := merged[name]

		switch {
		case !exists || cv.IsEmpty():
			merged[name] = nv.Clone()
			conf[name] = nc
			enriched = append(enriched, name)

		case nc > conf[name]:
			merged[name] = nv.Clone()
			conf[name] = nc
			enriched = append(enriched, name)

		case cv.Kind == model.KindList && nv.Kind == model.KindList:
			union, grew := unionLists(cv.List, nv.List)
			if grew {
				merged[name] = model.List(union...)
				enriched = append(enriched, name)
			}

		case cv.Kind == model.KindRecord && nv.Kind == model.KindRecord:
			rec, sub := mergeRecords(cv.Record, nv.Record, name)
			if len(sub) > 0 {
				merged[name] = model.Record(rec)
				enriched = append(enriched, sub...)
			}

		default:
			// Lower-or-equal confidence and incompatible shapes: keep current.
		}
	}

	return merged, conf, enriched
}

// mergeRecords recursively merges nested records. Confidence has already
// been arbitrated at the top-level field, so only the empty-accept, list
// union, and nested-record rules apply here.
func mergeRecords(current, incoming model.Fields, prefix string) (model.Fields, []string) {
	merged := current.Clone()

	var enriched []string

	names := make([]string, 0, len(incoming))
	for name := range incoming {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		nv := incoming[name]
		if nv.IsEmpty() {
			continue
		}
		path := prefix + "." + name
		cv, exists := merged[name]

		switch {
		case !exists || cv.IsEmpty():
			merged[name] = nv.Clone()
			enriched = append(enriched, path)

		case cv.Kind == model.KindList && nv.Kind == model.KindList:
			union, grew := unionLists(cv.List, nv.List)
			if grew {
				merged[name] = model.List(union...)
				enriched = append(enriched, path)
			}

		case cv.Kind == model.KindRecord && nv.Kind == model.KindRecord:
			rec, sub := mergeRecords(cv.Record, nv.Record, path)
			if len(sub) > 0 {
				merged[name] = model.Record(rec)
				enriched = append(enriched, sub...)
			}
		}
	}

	return merged, enriched
}

// unionLists appends items from add that are not already in base, preserving
// order. Reports whether the list grew.
func unionLists(base, add []string) ([]string, bool) {
	seen := make(map[string]bool, len(base))
	for _, it := range base {
		seen[it] = true
	}
	out := make([]string, len(base), len(base)+len(add))
	copy(out, base)
	grew := false
	for _, it := range add {
		if seen[it] {
			continue
		}
		seen[it] = true
		out = append(out, it)
		grew = true
	}
	return out, grew
}
