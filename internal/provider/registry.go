package provider

import "sync"

// Registry holds the configured providers by role. Slices preserve
// registration order, which is also priority order for the merge.
type Registry struct {
	mu       sync.RWMutex
	company  []CompanyProvider
	person   []PersonProvider
	verify   []VerifyProvider
	social   []SocialProvider
	tech     []TechnographicsProvider
	research []ResearchProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterCompany adds a company provider. Registration order is
// priority order: the first registered provider is the trusted primary.
func (r *Registry) RegisterCompany(p CompanyProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.company = append(r.company, p)
}

// RegisterPerson adds a person provider.
func (r *Registry) RegisterPerson(p PersonProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.person = append(r.person, p)
}

// RegisterVerify adds an email verification provider.
func (r *Registry) RegisterVerify(p VerifyProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verify = append(r.verify, p)
}

// RegisterSocial adds a social activity provider.
func (r *Registry) RegisterSocial(p SocialProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.social = append(r.social, p)
}

// RegisterTech adds a technographics provider.
func (r *Registry) RegisterTech(p TechnographicsProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tech = append(r.tech, p)
}

// RegisterResearch adds a web research provider.
func (r *Registry) RegisterResearch(p ResearchProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.research = append(r.research, p)
}

// Company returns company providers in priority order.
func (r *Registry) Company() []CompanyProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]CompanyProvider(nil), r.company...)
}

// Person returns person providers in priority order.
func (r *Registry) Person() []PersonProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]PersonProvider(nil), r.person...)
}

// Verify returns email verification providers.
func (r *Registry) Verify() []VerifyProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]VerifyProvider(nil), r.verify...)
}

// Social returns social activity providers.
func (r *Registry) Social() []SocialProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SocialProvider(nil), r.social...)
}

// Tech returns technographics providers.
func (r *Registry) Tech() []TechnographicsProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]TechnographicsProvider(nil), r.tech...)
}

// Research returns web research providers.
func (r *Registry) Research() []ResearchProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ResearchProvider(nil), r.research...)
}

// Names lists all registered provider names, deduplicated, in
// registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, p := range r.company {
		add(p.Name())
	}
	for _, p := range r.person {
		add(p.Name())
	}
	for _, p := range r.verify {
		add(p.Name())
	}
	for _, p := range r.social {
		add(p.Name())
	}
	for _, p := range r.tech {
		add(p.Name())
	}
	for _, p := range r.research {
		add(p.Name())
	}
	return names
}
