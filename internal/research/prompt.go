// Package research turns free-text web research about a company into a
// structured SignalReport: prompt construction, JSON extraction and
// mention-count cross-validation.
package research

import (
	"fmt"
	"strings"
)

// ResearchPrompt asks the web-research provider for recent, sourced
// facts about a company that are useful for outreach personalization.
func ResearchPrompt(companyName, domain string) string {
	subject := companyName
	if subject == "" {
		subject = domain
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Research the company %q", subject)
	if domain != "" {
		fmt.Fprintf(&b, " (website: %s)", domain)
	}
	b.WriteString(`. Find recent, verifiable business signals from the last 12 months:
- organizational changes (leadership hires, restructuring, office moves)
- market moves (funding, acquisitions, partnerships, product launches)
- performance indicators (growth, hiring volume, revenue milestones)
- personal activity of executives (talks, articles, awards)

For each signal report what happened, when, and the source. Prefer primary sources. Also summarize the company's industry, country and main competitors if evident.`)
	return b.String()
}

// StructuringPrompt asks the model to convert raw research findings into
// the signal report JSON shape.
func StructuringPrompt(companyName, domain, findings string, citations []string) string {
	var b strings.Builder
	b.WriteString("Convert the research findings below into JSON with this exact shape:\n")
	b.WriteString(`{
  "company_name": "",
  "company_domain": "",
  "priority_signals": [
    {"id": "", "name": "", "category": "organizational|market|performance|personal",
     "weight": 1, "date": "YYYY-MM-DD", "title": "", "description": "",
     "source_url": "", "recommended_action": "", "copy_angle": ""}
  ],
  "key_insights": "",
  "personalization_hooks": []
}
`)
	b.WriteString("Weight each signal 1-5 by outreach relevance. Use only facts present in the findings. Respond with JSON only.\n\n")
	fmt.Fprintf(&b, "Company: %s\nDomain: %s\n\nFindings:\n%s\n", companyName, domain, findings)
	if len(citations) > 0 {
		b.WriteString("\nSources:\n")
		for _, c := range citations {
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}
