// Package normalize maps heterogeneous per-source records onto the canonical
// lead schema and applies the filtering heuristics (name validity, executive
// role, business email, domain extraction).
package normalize

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// RoleExtractor infers a job title for a lead whose source record carried
// none. Implemented by the Anthropic-backed extractor; nil disables the
// fallback.
type RoleExtractor interface {
	ExtractRole(ctx context.Context, fullName, company string) (string, error)
}

// Normalizer converts raw source records into canonical leads.
type Normalizer struct {
	cfg     config.NormalizeConfig
	mapping FieldMapping
	roles   RoleExtractor
}

// New creates a Normalizer. The mapping file from cfg is loaded when set;
// otherwise the built-in defaults apply.
func New(cfg config.NormalizeConfig, roles RoleExtractor) (*Normalizer, error) {
	mapping := DefaultMapping()
	if cfg.MappingFile != "" {
		m, err := LoadMapping(cfg.MappingFile)
		if err != nil {
			return nil, err
		}
		mapping = m
	}
	return &Normalizer{cfg: cfg, mapping: mapping, roles: roles}, nil
}

// Stats counts normalization outcomes for one table.
type Stats struct {
	In           int
	Out          int
	BadName      int
	NonExecutive int
	GenericEmail int
	Unreachable  int
}

var singleLetterName = regexp.MustCompile(`^[A-Za-z][-.]*$`)

// Table normalizes a batch of raw records into canonical leads. Rejections
// (missing name, non-executive role, optional email filters) are intended
// filtering, counted but not reported as errors. Every emitted lead has
// non-empty first name, last name, and role.
func (n *Normalizer) Table(ctx context.Context, records []model.RawRecord) ([]model.Lead, Stats) {
	stats := Stats{In: len(records)}
	leads := make([]model.Lead, 0, len(records))

	for _, rec := range records {
		lead, ok := n.record(ctx, rec, &stats)
		if !ok {
			continue
		}
		leads = append(leads, lead)
	}

	stats.Out = len(leads)
	zap.L().Info("normalize: table complete",
		zap.Int("in", stats.In),
		zap.Int("out", stats.Out),
		zap.Int("bad_name", stats.BadName),
		zap.Int("non_executive", stats.NonExecutive),
	)
	return leads, stats
}

func (n *Normalizer) record(ctx context.Context, rec model.RawRecord, stats *Stats) (model.Lead, bool) {
	first, last, ok := n.names(rec)
	if !ok {
		stats.BadName++
		return model.Lead{}, false
	}

	company := n.mapping.Pick(rec, "company")

	title := n.mapping.Pick(rec, "role")
	if title == "" && n.roles != nil && n.cfg.LLMRoleFallback {
		inferred, err := n.roles.ExtractRole(ctx, first+" "+last, company)
		if err != nil {
			zap.L().Warn("normalize: role fallback failed",
				zap.String("name", first+" "+last),
				zap.Error(err),
			)
		} else {
			title = inferred
		}
	}
	role := ExtractRole(title)
	if role == "" {
		stats.NonExecutive++
		return model.Lead{}, false
	}

	email := n.mapping.Pick(rec, "email")
	if email != "" && n.cfg.FilterGenericEmail && IsGenericMailbox(email) {
		stats.GenericEmail++
		return model.Lead{}, false
	}
	if email != "" && !IsBusinessEmail(email) {
		email = ""
	}

	website := n.mapping.Pick(rec, "website")
	domain := ExtractDomain(website, company)

	if n.cfg.RequireReachable && email == "" && domain == "" {
		stats.Unreachable++
		return model.Lead{}, false
	}

	return model.Lead{
		FirstName:  first,
		LastName:   last,
		Role:       role,
		Company:    company,
		Email:      email,
		Phone:      n.mapping.Pick(rec, "phone"),
		Website:    website,
		Domain:     domain,
		ProfileURL: n.mapping.Pick(rec, "profile_url"),
		Source:     rec.Source,
		TeamSize:   n.mapping.Pick(rec, "team_size"),
	}, true
}

// names resolves first/last from pre-split fields when the source provides
// them, otherwise by splitting the full name. Pre-split values still go
// through the single-letter check that full-name splitting applies.
func (n *Normalizer) names(rec model.RawRecord) (string, string, bool) {
	first := n.mapping.Pick(rec, "first_name")
	last := n.mapping.Pick(rec, "last_name")
	if first != "" && last != "" {
		if singleLetterName.MatchString(first) || singleLetterName.MatchString(last) {
			return "", "", false
		}
		return first, last, true
	}

	full := n.mapping.Pick(rec, "name")
	if full == "" {
		return "", "", false
	}
	return SplitName(full, n.cfg.ExtraSuffixes)
}
