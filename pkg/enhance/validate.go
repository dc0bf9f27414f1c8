package enhance

import (
	"context"

	"github.com/psantana5/fnenhance/pkg/operation"
	"github.com/psantana5/fnenhance/pkg/validate"
)

// Rules maps parameter names to their constraints
type Rules = map[string]validate.Rule

// Validate checks every ruled parameter before op runs. A failing check
// returns a *validate.Error and op is not invoked. Rules naming parameters
// op does not declare are rejected here.
func (e *Enhancer) Validate(op operation.Operation, rules Rules) (operation.Operation, error) {
	v, err := validate.New(op.Params, rules)
	if err != nil {
		return op, err
	}
	log := e.logger.WithField("operation", op.Name)

	wrapped := op.WithFn(func(ctx context.Context, args operation.Args) (any, error) {
		if err := v.Check(args); err != nil {
			log.Warn("input validation failed", map[string]interface{}{"error": err.Error()})
			return nil, err
		}
		log.Debug("input validation passed")
		return op.Call(ctx, args)
	})

	e.record(op, BehaviorValidate, "input validation added to '%s'", op.Name)
	return wrapped, nil
}
