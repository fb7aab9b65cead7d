package temporal

import (
	"time"

	"github.com/markusmobius/go-dateparser"
)

// NaturalResolver delegates to the go-dateparser natural-language parser.
// It is the production Resolver; tests substitute fixed-layout fakes.
type NaturalResolver struct{}

func (NaturalResolver) Resolve(expr string, now time.Time) (time.Time, error) {
	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	dt, err := dateparser.Parse(cfg, expr)
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time, nil
}
