package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/todobot/pkg/domain"
	"github.com/aretw0/todobot/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

// Redactor masks scratch values whose key matches one of its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the key patterns. It panics on an invalid pattern.
func NewRedactor(patternStrings []string) *Redactor {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return &Redactor{patterns: patterns}
}

// Redact returns a masked copy of sess. The argument is left untouched.
func (r *Redactor) Redact(sess *domain.Session) *domain.Session {
	if sess == nil {
		return nil
	}
	out := *sess
	out.Data = deepCopyMap(sess.Data)
	maskMap(out.Data, r.patterns)
	return &out
}

// RedactDiff masks the changed scratch values of a diff the same way.
func (r *Redactor) RedactDiff(d *domain.SessionDiff) *domain.SessionDiff {
	if d == nil || d.Data == nil {
		return d
	}
	out := *d
	out.Data = deepCopyMap(d.Data)
	for k, v := range out.Data {
		if v != nil && r.matches(k) {
			out.Data[k] = Mask
		}
	}
	return &out
}

func (r *Redactor) matches(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

type piiMiddleware struct {
	next     ports.SessionStore
	redactor *Redactor
}

// NewPIIMiddleware masks matching scratch values before snapshots reach the wrapped
// store. Load returns what was stored, masks included, so such a store holds exports
// and audit copies; it cannot back a live bot, whose commits would read the masks.
func NewPIIMiddleware(patternStrings []string) Middleware {
	redactor := NewRedactor(patternStrings)
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, redactor: redactor}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sess *domain.Session) error {
	return m.next.Save(ctx, m.redactor.Redact(sess))
}

func (m *piiMiddleware) Load(ctx context.Context, user domain.UserID) (*domain.Session, error) {
	return m.next.Load(ctx, user)
}

func (m *piiMiddleware) Delete(ctx context.Context, user domain.UserID) error {
	return m.next.Delete(ctx, user)
}

func (m *piiMiddleware) List(ctx context.Context) ([]domain.UserID, error) {
	return m.next.List(ctx)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if subMap, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(subMap)
		} else {
			out[k] = v
		}
	}
	return out
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		for _, p := range patterns {
			if p.MatchString(k) {
				m[k] = Mask
				break
			}
		}
		if subMap, ok := v.(map[string]any); ok {
			maskMap(subMap, patterns)
		}
	}
}
