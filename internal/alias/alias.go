// Package alias maps user-supplied, possibly localized field names onto the
// canonical derived-field keys of a company analysis.
package alias

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Canonical derived-field keys. These are the only targets alias resolution
// can produce; the reconciler registers one resolver per key.
const (
	KeyCompanyName          = "company_name"
	KeyCompanyDomain        = "company_domain"
	KeyCompanyIndustry      = "company_industry"
	KeyCompanyCountry       = "company_country"
	KeyCompanyCompetitors   = "company_competitors"
	KeySignalStrength       = "signal_strength"
	KeyPrioritySignals      = "priority_signals"
	KeyKeyInsights          = "key_insights"
	KeyPersonalizationHooks = "personalization_hooks"
	KeyRecommendedActions   = "recommended_actions"
	KeyLinkedInRecentPosts  = "linkedin_recent_posts"
	KeyCompanyActivity      = "company_activity"
	KeyEmailVerification    = "email_verification"
	KeyProspects            = "prospects"
	KeyTechnologies         = "technologies"
)

// aliasTable lists, per canonical key, the accepted English and Portuguese
// spellings. Entries are matched after NormalizeKey folding, so accents and
// separators in user input are irrelevant.
var aliasTable = map[string][]string{
	KeyCompanyName: {
		"companyName", "company", "empresa", "nome da empresa", "razão social",
	},
	KeyCompanyDomain: {
		"companyDomain", "domain", "website", "site", "domínio",
		"domínio da empresa",
	},
	KeyCompanyIndustry: {
		"companyIndustry", "industry", "sector", "indústria", "setor", "ramo",
	},
	KeyCompanyCountry: {
		"companyCountry", "country", "país", "pais da empresa",
	},
	KeyCompanyCompetitors: {
		"companyCompetitors", "competitors", "concorrentes", "competidores",
	},
	KeySignalStrength: {
		"signalStrength", "overallSignalStrength", "força do sinal",
		"intensidade do sinal",
	},
	KeyPrioritySignals: {
		"prioritySignals", "signals", "sinais", "sinais prioritários",
	},
	KeyKeyInsights: {
		"keyInsights", "insights", "insights chave", "principais insights",
	},
	KeyPersonalizationHooks: {
		"personalizationHooks", "hooks", "ganchos", "ganchos de personalização",
	},
	KeyRecommendedActions: {
		"recommendedActions", "next steps", "ações recomendadas",
		"próximos passos",
	},
	KeyLinkedInRecentPosts: {
		"linkedinRecentPosts", "linkedin posts", "recent posts",
		"publicações recentes", "posts recentes",
	},
	KeyCompanyActivity: {
		"companyActivity", "activity", "atividade", "atividade da empresa",
	},
	KeyEmailVerification: {
		"emailVerification", "email status", "verificação de email",
	},
	KeyProspects: {
		"prospects", "contacts", "contatos", "prospectos",
	},
	KeyTechnologies: {
		"technologies", "tech stack", "tecnologias", "stack",
	},
}

// lookup is the normalized alias → canonical key index, built once at init.
var lookup = buildLookup()

func buildLookup() map[string]string {
	idx := make(map[string]string, len(aliasTable)*6)
	for canonical, aliases := range aliasTable {
		idx[NormalizeKey(canonical)] = canonical
		for _, a := range aliases {
			idx[NormalizeKey(a)] = canonical
		}
	}
	return idx
}

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey folds a field name for alias lookup: lowercase, diacritics
// stripped, non-alphanumerics removed.
func NormalizeKey(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Resolve maps a user-supplied field name to a canonical derived key.
func Resolve(name string) (string, bool) {
	canonical, ok := lookup[NormalizeKey(name)]
	return canonical, ok
}

// Canonicals returns the sorted list of canonical derived keys.
func Canonicals() []string {
	keys := make([]string, 0, len(aliasTable))
	for k := range aliasTable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AliasesFor returns the registered alias spellings for a canonical key.
func AliasesFor(canonical string) []string {
	return aliasTable[canonical]
}
