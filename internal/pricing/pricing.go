package pricing

import "errors"

// TokensPerHour is the flat charge for one hour-equivalent of class time.
const TokensPerHour = 10

// MinCreditableSeconds is the active-time threshold below which a teacher
// earns nothing for a session.
const MinCreditableSeconds = 3600

var ErrUnknownRole = errors.New("no pricing for role")

// Rate describes the token economics for one user role. PerTokenUSD is the
// cash value of one token for that role; TokensPerUSD is how many tokens one
// dollar buys at purchase time. The student and teacher rates are not
// inverses of each other: the spread is the platform margin.
type Rate struct {
	PerTokenUSD  float64
	TokensPerUSD int64
}

var rates = map[string]Rate{
	"student": {PerTokenUSD: 0.10, TokensPerUSD: 10},
	"teacher": {PerTokenUSD: 0.04, TokensPerUSD: 25},
}

func RateForRole(role string) (Rate, error) {
	r, ok := rates[role]
	if !ok {
		return Rate{}, ErrUnknownRole
	}
	return r, nil
}

// TokensForDuration returns ceil(minutes/60 * TokensPerHour). A one-minute
// session still costs one token.
func TokensForDuration(minutes int) int64 {
	if minutes <= 0 {
		return 0
	}
	return (int64(minutes)*TokensPerHour + 59) / 60
}

// TokensToUSD converts a token amount into dollars at the given role's
// payout/charge rate.
func TokensToUSD(role string, tokens int64) (float64, error) {
	r, err := RateForRole(role)
	if err != nil {
		return 0, err
	}
	return float64(tokens) * r.PerTokenUSD, nil
}

// TokensForUSD converts a dollar amount into tokens at the given role's
// purchase rate.
func TokensForUSD(role string, usd float64) (int64, error) {
	r, err := RateForRole(role)
	if err != nil {
		return 0, err
	}
	return int64(usd * float64(r.TokensPerUSD)), nil
}

// CreditForActiveSeconds returns the teacher credit for a session with the
// given accumulated active seconds. Sessions under MinCreditableSeconds earn
// nothing; there is no pro-rated partial payment.
func CreditForActiveSeconds(activeSeconds int64) int64 {
	if activeSeconds < MinCreditableSeconds {
		return 0
	}
	return activeSeconds * TokensPerHour / 3600
}
