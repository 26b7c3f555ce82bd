package probe

import (
	"context"
	"errors"
)

// Chain tries each prober in order and returns the first success. If all
// fail the errors are joined.
type Chain []Prober

// Probe implements Prober.
func (c Chain) Probe(ctx context.Context, src string) (Size, error) {
	if len(c) == 0 {
		return Size{}, errors.New("probe: empty chain")
	}
	var errs []error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return Size{}, err
		}
		size, err := p.Probe(ctx, src)
		if err == nil {
			return size, nil
		}
		errs = append(errs, err)
	}
	return Size{}, errors.Join(errs...)
}
