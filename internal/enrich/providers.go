package enrich

import (
	"context"

	"github.com/sells-group/leadgen-cli/pkg/hunter"
	"github.com/sells-group/leadgen-cli/pkg/numverify"
)

// HunterVerifier adapts the Hunter.io client to the EmailVerifier interface.
type HunterVerifier struct {
	Client hunter.Client
}

func (v *HunterVerifier) Verify(ctx context.Context, email string) (*EmailVerdict, error) {
	res, err := v.Client.Verify(ctx, email)
	if err != nil {
		return nil, err
	}
	return &EmailVerdict{Status: res.Status, Score: res.Score}, nil
}

// NumverifyValidator adapts the Numverify client to the PhoneValidator
// interface.
type NumverifyValidator struct {
	Client numverify.Client
}

func (v *NumverifyValidator) Validate(ctx context.Context, number string) (bool, error) {
	res, err := v.Client.Validate(ctx, number)
	if err != nil {
		return false, err
	}
	return res.Valid, nil
}
