// Package enrich fills and verifies contact fields on merged leads using
// external providers. Provider failures never drop a lead; the field is left
// as it was and the failure is logged.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// EmailFinder looks up a work email for a person at a domain.
type EmailFinder interface {
	FindEmail(ctx context.Context, firstName, lastName, domain string) (string, error)
}

// EmailVerifier checks deliverability of an address.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) (*EmailVerdict, error)
}

// EmailVerdict is a provider-neutral verification result.
type EmailVerdict struct {
	Status string
	Score  int
}

// PhoneValidator checks a phone number.
type PhoneValidator interface {
	Validate(ctx context.Context, number string) (bool, error)
}

// Stats counts what enrichment changed.
type Stats struct {
	EmailsFound   int
	EmailsDropped int
	PhonesDropped int
	FinderErrors  int
	VerifyErrors  int
	PhoneErrors   int
}

// Enricher applies the configured enrichment steps in order: find missing
// emails, verify emails, validate phones.
type Enricher struct {
	cfg      config.EnrichConfig
	finder   EmailFinder
	verifier EmailVerifier
	phones   PhoneValidator
	log      *zap.Logger
}

// New builds an enricher. Any provider may be nil; the corresponding step is
// skipped even when its config flag is set.
func New(cfg config.EnrichConfig, finder EmailFinder, verifier EmailVerifier, phones PhoneValidator) *Enricher {
	return &Enricher{
		cfg:      cfg,
		finder:   finder,
		verifier: verifier,
		phones:   phones,
		log:      zap.L().Named("enrich"),
	}
}

// Table enriches leads in place and returns what changed.
func (e *Enricher) Table(ctx context.Context, leads []model.Lead) (Stats, error) {
	var stats Stats
	for i := range leads {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		e.lead(ctx, &leads[i], &stats)
	}

	e.log.Info("enrichment complete",
		zap.Int("leads", len(leads)),
		zap.Int("emails_found", stats.EmailsFound),
		zap.Int("emails_dropped", stats.EmailsDropped),
		zap.Int("phones_dropped", stats.PhonesDropped),
	)
	return stats, nil
}

func (e *Enricher) lead(ctx context.Context, lead *model.Lead, stats *Stats) {
	if e.cfg.FindEmails && e.finder != nil && lead.Email == "" && lead.Domain != "" {
		email, err := e.finder.FindEmail(ctx, lead.FirstName, lead.LastName, lead.Domain)
		switch {
		case err != nil:
			stats.FinderErrors++
			e.log.Warn("email lookup failed",
				zap.String("domain", lead.Domain), zap.Error(err))
		case email != "":
			lead.Email = email
			stats.EmailsFound++
		}
	}

	if e.cfg.VerifyEmails && e.verifier != nil && lead.Email != "" {
		verdict, err := e.verifier.Verify(ctx, lead.Email)
		switch {
		case err != nil:
			stats.VerifyErrors++
			e.log.Warn("email verification failed",
				zap.String("email", lead.Email), zap.Error(err))
		case !e.acceptable(verdict):
			lead.Email = ""
			stats.EmailsDropped++
		}
	}

	if e.cfg.ValidatePhones && e.phones != nil && lead.Phone != "" {
		valid, err := e.phones.Validate(ctx, lead.Phone)
		switch {
		case err != nil:
			stats.PhoneErrors++
			e.log.Warn("phone validation failed",
				zap.String("phone", lead.Phone), zap.Error(err))
		case !valid:
			lead.Phone = ""
			stats.PhonesDropped++
		}
	}
}

// acceptable keeps an address when the provider calls it deliverable, or when
// the confidence score clears the configured floor.
func (e *Enricher) acceptable(v *EmailVerdict) bool {
	if v.Status == "deliverable" {
		return true
	}
	return v.Score >= e.cfg.MinEmailScore
}
