// Package reconcile turns a merged company analysis into per-field
// enrichment results for the fields a user requested.
package reconcile

import (
	"github.com/sells-group/enrich-cli/internal/alias"
	"github.com/sells-group/enrich-cli/internal/model"
)

// resolverFunc produces the enrichment result for one canonical derived key,
// or false when the analysis has nothing for it.
type resolverFunc func(analysis *model.CompanyAnalysis) (model.EnrichmentResult, bool)

// Reconciler resolves requested fields against a company analysis through a
// fixed registry of per-key resolvers. Resolution is deterministic: the same
// analysis and field list always produce identical results.
type Reconciler struct {
	resolvers map[string]resolverFunc
}

// NewReconciler builds a reconciler with the full canonical resolver set.
func NewReconciler() *Reconciler {
	r := &Reconciler{resolvers: make(map[string]resolverFunc)}
	r.registerDefaults()
	return r
}

// Reconcile resolves each requested field. Fields that resolve to nothing
// are omitted from the map entirely; callers must treat "absent" as "not
// found", which is distinct from "found but empty".
func (r *Reconciler) Reconcile(analysis *model.CompanyAnalysis, fields []model.EnrichmentField) map[string]model.EnrichmentResult {
	out := make(map[string]model.EnrichmentResult, len(fields))
	if analysis == nil {
		return out
	}

	for _, f := range fields {
		canonical, ok := r.resolveKey(f.Name)
		if !ok {
			continue
		}
		resolver := r.resolvers[canonical]
		result, ok := resolver(analysis)
		if !ok {
			continue
		}

		result.Field = f.Name
		result.Value = coerceValue(result.Value, f.Type)
		result.ConfidenceLevel = model.LevelForConfidence(result.Confidence)
		out[f.Name] = result
	}
	return out
}

// resolveKey maps a requested field name to a registered canonical key:
// exact canonical match first, then alias normalization.
func (r *Reconciler) resolveKey(name string) (string, bool) {
	if _, ok := r.resolvers[name]; ok {
		return name, true
	}
	canonical, ok := alias.Resolve(name)
	if !ok {
		return "", false
	}
	if _, registered := r.resolvers[canonical]; !registered {
		return "", false
	}
	return canonical, true
}
