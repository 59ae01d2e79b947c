package model

// Source labels for reconciled firmographic fields.
const (
	SourceApollo    = "apollo"
	SourceSnov      = "snov"
	SourceExplorium = "explorium"
	SourceApify     = "apify"
	SourceWeb       = "web"
	SourceMultiple  = "multiple"
	SourceUnknown   = "unknown"
)

// CompanyRecord is a provider's normalized firmographic answer. Transient:
// one per provider call per coordinator invocation.
type CompanyRecord struct {
	Name        string   `json:"name,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Country     string   `json:"country,omitempty"`
	Competitors []string `json:"competitors,omitempty"`
	LinkedInURL string   `json:"linkedin_url,omitempty"`
}

// Empty reports whether the record carries no firmographic data.
func (r *CompanyRecord) Empty() bool {
	return r == nil || (r.Name == "" && r.Domain == "" && r.Industry == "" &&
		r.Country == "" && len(r.Competitors) == 0 && r.LinkedInURL == "")
}

// PersonRecord is a provider's normalized person-level match for an email.
type PersonRecord struct {
	FirstName     string `json:"first_name,omitempty"`
	LastName      string `json:"last_name,omitempty"`
	Title         string `json:"title,omitempty"`
	LinkedInURL   string `json:"linkedin_url,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	CompanyDomain string `json:"company_domain,omitempty"`
	Country       string `json:"country,omitempty"`
}

// Prospect is an auxiliary contact attached to a company analysis.
type Prospect struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Email       string `json:"email,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	Seniority   string `json:"seniority,omitempty"`
}

// Technology is a single detected technology on a company's stack.
type Technology struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

// EmailVerification is the async verification outcome for the row's email.
type EmailVerification struct {
	Email  string `json:"email"`
	Status string `json:"status"` // valid | invalid | catch_all | unknown
	Score  int    `json:"score,omitempty"`
}

// SocialPost is a summarized recent post from a company or person profile.
type SocialPost struct {
	URL       string `json:"url,omitempty"`
	Author    string `json:"author,omitempty"`
	Text      string `json:"text"`
	PostedAt  string `json:"posted_at,omitempty"`
	Reactions int    `json:"reactions,omitempty"`
}

// CompanyActivity aggregates social activity levels for the company.
type CompanyActivity struct {
	PostsLast90Days int    `json:"posts_last_90_days"`
	LastPostAt      string `json:"last_post_at,omitempty"`
	ActivityLevel   string `json:"activity_level"` // active | occasional | dormant
}

// CompanyAnalysis is the merged aggregate for one company: the signal report
// plus reconciled firmographics and optional auxiliary attachments. Built
// once per unique company domain per session, then cached.
type CompanyAnalysis struct {
	SignalReport

	CompanyIndustry    string   `json:"company_industry,omitempty"`
	CompanyCountry     string   `json:"company_country,omitempty"`
	CompanyCompetitors []string `json:"company_competitors,omitempty"`
	LinkedInURL        string   `json:"linkedin_url,omitempty"`

	// Source records which layer won the firmographic merge:
	// apollo | snov | web | multiple | unknown.
	Source string `json:"source"`

	Prospects           []Prospect         `json:"prospects,omitempty"`
	Technologies        []Technology       `json:"technologies,omitempty"`
	EmailVerification   *EmailVerification `json:"email_verification,omitempty"`
	LinkedInRecentPosts []SocialPost       `json:"linkedin_recent_posts,omitempty"`
	CompanyActivity     *CompanyActivity   `json:"company_activity,omitempty"`
}
