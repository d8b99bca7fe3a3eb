package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prohmpiriya/seat-reservation/internal/domain"
	"github.com/prohmpiriya/seat-reservation/internal/metrics"
	"github.com/prohmpiriya/seat-reservation/pkg/logger"
	"github.com/prohmpiriya/seat-reservation/pkg/retry"
	"github.com/prohmpiriya/seat-reservation/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Collaborator names used in logs and metrics
const (
	CollaboratorEvent = "event"
	CollaboratorUser  = "user"
)

// errUnreachable marks a check that got no answer
var errUnreachable = errors.New("collaborator unreachable")

// ExistenceValidator asks the owning services whether an event or user exists
type ExistenceValidator interface {
	CheckEvent(ctx context.Context, eventID int64) domain.Verdict
	CheckUser(ctx context.Context, userID int64) domain.Verdict
}

// ValidatorConfig configures HTTPExistenceValidator
type ValidatorConfig struct {
	EventServiceURL string
	AuthServiceURL  string
	Timeout         time.Duration
	// Retries applies to unreachable verdicts only
	Retries       int
	RetryInterval time.Duration
}

// HTTPExistenceValidator checks existence with GET {base}/events/{id} and GET {base}/users/{id}.
// Any 2xx is exists, any other status is not-found, and a transport error or
// timeout is unreachable. Concurrent checks of the same resource share one request.
type HTTPExistenceValidator struct {
	cfg        ValidatorConfig
	httpClient *http.Client
	group      singleflight.Group
	metrics    metrics.Recorder
	log        *logger.Logger
}

// NewHTTPExistenceValidator creates a new HTTPExistenceValidator
func NewHTTPExistenceValidator(cfg ValidatorConfig, rec metrics.Recorder, log *logger.Logger) *HTTPExistenceValidator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if log == nil {
		log = logger.Get()
	}
	return &HTTPExistenceValidator{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		metrics: rec,
		log:     log.Named("existence-validator"),
	}
}

// CheckEvent asks the event service whether eventID exists
func (v *HTTPExistenceValidator) CheckEvent(ctx context.Context, eventID int64) domain.Verdict {
	return v.check(ctx, CollaboratorEvent, fmt.Sprintf("%s/events/%d", v.cfg.EventServiceURL, eventID))
}

// CheckUser asks the auth service whether userID exists
func (v *HTTPExistenceValidator) CheckUser(ctx context.Context, userID int64) domain.Verdict {
	return v.check(ctx, CollaboratorUser, fmt.Sprintf("%s/users/%d", v.cfg.AuthServiceURL, userID))
}

func (v *HTTPExistenceValidator) check(ctx context.Context, collaborator, url string) domain.Verdict {
	ctx, span := telemetry.StartSpan(ctx, "service.validator.check_"+collaborator)
	defer span.End()

	span.SetAttributes(attribute.String("url", url))

	ch := v.group.DoChan(url, func() (interface{}, error) {
		// Shared by every waiter, so it must not die with the first caller.
		return v.checkWithRetry(context.WithoutCancel(ctx), url), nil
	})

	var verdict domain.Verdict
	select {
	case <-ctx.Done():
		verdict = domain.VerdictUnreachable
	case res := <-ch:
		verdict = res.Val.(domain.Verdict)
		span.SetAttributes(attribute.Bool("shared", res.Shared))
	}

	span.SetAttributes(attribute.String("verdict", verdict.String()))
	v.metrics.VerdictObserved(ctx, collaborator, verdict)

	if verdict == domain.VerdictUnreachable {
		v.log.WithContext(ctx).Warn("collaborator unreachable",
			zap.String("collaborator", collaborator),
			zap.String("url", url),
		)
	}
	return verdict
}

func (v *HTTPExistenceValidator) checkWithRetry(ctx context.Context, url string) domain.Verdict {
	verdict := domain.VerdictUnreachable

	retry.Do(ctx, &retry.Config{
		MaxRetries:      v.cfg.Retries,
		InitialInterval: v.cfg.RetryInterval,
		MaxInterval:     v.cfg.Timeout,
		Multiplier:      2,
		JitterFactor:    0.1,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			v.log.Debug("retrying existence check",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(err),
			)
		},
	}, func(ctx context.Context) error {
		verdict = v.fetch(ctx, url)
		if verdict == domain.VerdictUnreachable {
			return errUnreachable
		}
		return nil
	})

	return verdict
}

func (v *HTTPExistenceValidator) fetch(ctx context.Context, url string) domain.Verdict {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.VerdictUnreachable
	}
	req.Header.Set("Accept", "application/json")
	telemetry.InjectHeaders(ctx, req.Header)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return domain.VerdictUnreachable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return domain.VerdictExists
	}
	return domain.VerdictNotFound
}
