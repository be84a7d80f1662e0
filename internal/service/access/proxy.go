package access

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/appointment-api/internal/model"
	"github.com/jwalitptl/appointment-api/pkg/errors"
	"github.com/jwalitptl/appointment-api/pkg/metrics"
)

// Proxy checks the policy, records the decision, delegates and redacts.
type Proxy struct {
	accessor Accessor
	policy   Policy
	log      *Log
	now      func() time.Time
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewProxy(accessor Accessor, policy Policy, log *Log, m *metrics.Metrics, logger zerolog.Logger) *Proxy {
	return &Proxy{
		accessor: accessor,
		policy:   policy,
		log:      log,
		now:      time.Now,
		metrics:  m,
		logger:   logger.With().Str("component", "access").Logger(),
	}
}

func (p *Proxy) Read(ctx context.Context, caller *model.UserContext, r Resource, id uuid.UUID) (model.JSONMap, error) {
	rel, err := p.authorize(ctx, caller, r, VerbRead, id)
	if err != nil {
		return nil, err
	}
	data, err := p.accessor.Read(ctx, r, id)
	if err != nil {
		return nil, err
	}
	return redact(data, caller, rel), nil
}

func (p *Proxy) Update(ctx context.Context, caller *model.UserContext, r Resource, id uuid.UUID, fields model.JSONMap) (model.JSONMap, error) {
	rel, err := p.authorize(ctx, caller, r, VerbUpdate, id)
	if err != nil {
		return nil, err
	}

	clean := sanitizeUpdate(fields, caller, r)
	if len(clean) == 0 {
		return nil, errors.NewValidation("no updatable fields supplied")
	}

	data, err := p.accessor.Update(ctx, r, id, clean)
	if err != nil {
		return nil, err
	}
	return redact(data, caller, rel), nil
}

func (p *Proxy) Delete(ctx context.Context, caller *model.UserContext, r Resource, id uuid.UUID) error {
	if _, err := p.authorize(ctx, caller, r, VerbDelete, id); err != nil {
		return err
	}
	return p.accessor.Delete(ctx, r, id)
}

// Log exposes the decision log for audit queries.
func (p *Proxy) Log() *Log {
	return p.log
}

func (p *Proxy) authorize(ctx context.Context, caller *model.UserContext, r Resource, v Verb, id uuid.UUID) (Relation, error) {
	op := OperationOf(r, v)

	if caller == nil {
		p.decide(uuid.Nil, op, id, false, "unauthenticated")
		return "", errors.Unauthorized(nil)
	}

	owners, err := p.accessor.Owners(ctx, r, id)
	if err != nil {
		p.decide(caller.UserID, op, id, false, "lookup failed")
		return "", err
	}

	rel := RelationOther
	for _, owner := range owners {
		if owner == caller.UserID {
			rel = RelationOwner
			break
		}
	}

	ok, reason := p.policy.Decide(caller, op, rel)
	p.decide(caller.UserID, op, id, ok, reason)
	if !ok {
		p.logger.Warn().
			Str("caller_id", caller.UserID.String()).
			Str("operation", string(op)).
			Str("resource_id", id.String()).
			Str("reason", reason).
			Msg("access denied")
		return "", errors.NewForbidden("access denied", nil)
	}
	return rel, nil
}

func (p *Proxy) decide(callerID uuid.UUID, op Operation, id uuid.UUID, ok bool, reason string) {
	p.log.Append(model.AccessLogEntry{
		CallerID:   callerID,
		Operation:  string(op),
		ResourceID: id,
		Timestamp:  p.now().UTC(),
		Success:    ok,
		Reason:     reason,
	})
	if p.metrics != nil {
		decision := "allow"
		if !ok {
			decision = "deny"
		}
		p.metrics.AccessDecisions.WithLabelValues(string(op), decision).Inc()
	}
}
