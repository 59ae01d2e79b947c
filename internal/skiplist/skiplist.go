// Package skiplist decides which emails are skipped before any provider
// call, primarily webmail addresses that carry no company signal.
package skiplist

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/enrich-cli/internal/model"
)

// Builtin webmail and disposable-mail domains. An email on one of these
// domains cannot be resolved to a company.
var builtinDomains = []string{
	"gmail.com",
	"googlemail.com",
	"yahoo.com",
	"yahoo.com.br",
	"hotmail.com",
	"hotmail.com.br",
	"outlook.com",
	"outlook.com.br",
	"live.com",
	"msn.com",
	"aol.com",
	"icloud.com",
	"me.com",
	"mac.com",
	"proton.me",
	"protonmail.com",
	"gmx.com",
	"gmx.net",
	"zoho.com",
	"mail.com",
	"uol.com.br",
	"bol.com.br",
	"terra.com.br",
	"ig.com.br",
	"globo.com",
	"r7.com",
}

// List answers whether an email should be skipped and why.
type List struct {
	domains map[string]string // domain -> reason
}

type overlayFile struct {
	Domains []struct {
		Domain string `yaml:"domain"`
		Reason string `yaml:"reason"`
	} `yaml:"domains"`
}

// New builds the skip list from the builtin webmail domains.
func New() *List {
	l := &List{domains: make(map[string]string, len(builtinDomains))}
	for _, d := range builtinDomains {
		l.domains[d] = "webmail domain"
	}
	return l
}

// LoadOverlay merges additional skip domains from a YAML file:
//
//	domains:
//	  - domain: competitor.com
//	    reason: direct competitor
func (l *List) LoadOverlay(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrap(err, "skiplist: read overlay")
	}

	var overlay overlayFile
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return eris.Wrap(err, "skiplist: parse overlay")
	}

	for _, d := range overlay.Domains {
		domain := model.NormalizeDomain(d.Domain)
		if domain == "" {
			continue
		}
		reason := d.Reason
		if reason == "" {
			reason = "listed domain"
		}
		l.domains[domain] = reason
	}
	return nil
}

// ShouldSkip reports whether the email's domain is on the skip list.
func (l *List) ShouldSkip(email string) bool {
	domain := model.DomainFromEmail(email)
	if domain == "" {
		return false
	}
	_, ok := l.domains[strings.ToLower(domain)]
	return ok
}

// Reason describes why an email is skipped. Empty when it is not.
func (l *List) Reason(email string) string {
	domain := model.DomainFromEmail(email)
	if domain == "" {
		return ""
	}
	reason, ok := l.domains[strings.ToLower(domain)]
	if !ok {
		return ""
	}
	return fmt.Sprintf("skipped: %s (%s)", domain, reason)
}
