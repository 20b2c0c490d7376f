// Package auth runs the sign-in, sign-out and profile-save operations of
// the sign-in flow against the identity provider and the document store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emrepbu/loginflow/internal/database"
	"github.com/emrepbu/loginflow/internal/identity"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/metrics"
	"github.com/emrepbu/loginflow/internal/models"
	"github.com/emrepbu/loginflow/internal/observable"
	"github.com/emrepbu/loginflow/internal/queue"
	"github.com/emrepbu/loginflow/internal/telemetry"
	"github.com/emrepbu/loginflow/internal/validation"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// SessionState is the part of the session source the gateway needs
type SessionState interface {
	CurrentUser() observable.Readable[*models.User]
	ApplySavedProfile(user *models.User)
}

// CodeExchanger trades an OAuth2 authorization code for a Google ID token
type CodeExchanger interface {
	ExchangeForIDToken(ctx context.Context, code string) (string, error)
}

// Gateway exposes the auth operations as request/response calls. Session
// changes are never returned; they reach consumers through the session source.
type Gateway struct {
	provider  identity.Provider
	docs      database.DocumentStore
	session   SessionState
	exchanger CodeExchanger
	events    queue.Publisher
	metrics   metrics.Recorder
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewGateway creates a gateway. Events are discarded and metrics are not
// recorded until WithPublisher and WithMetrics are called.
func NewGateway(provider identity.Provider, docs database.DocumentStore, session SessionState, log *zap.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		docs:     docs,
		session:  session,
		events:   queue.NoopPublisher{},
		metrics:  metrics.Nop{},
		logger:   log,
		tracer:   telemetry.Tracer(),
		now:      time.Now,
	}
}

// WithCodeExchanger enables SignInWithAuthCode
func (g *Gateway) WithCodeExchanger(exchanger CodeExchanger) *Gateway {
	g.exchanger = exchanger
	return g
}

// WithPublisher publishes session events to p
func (g *Gateway) WithPublisher(p queue.Publisher) *Gateway {
	g.events = p
	return g
}

// WithMetrics records operation outcomes to rec
func (g *Gateway) WithMetrics(rec metrics.Recorder) *Gateway {
	g.metrics = rec
	return g
}

// SignInWithGoogle exchanges a Google ID token with the identity provider.
// A blank token never reaches the provider.
func (g *Gateway) SignInWithGoogle(ctx context.Context, idToken string) models.AuthResult {
	ctx, span := g.tracer.Start(ctx, "auth.sign_in_with_google")
	defer span.End()

	if strings.TrimSpace(idToken) == "" {
		g.logger.Warn("sign_in_rejected_blank_token")
		return g.finishSignIn(span, models.Error(MsgBlankIDToken, ErrValidation))
	}

	result, err := g.provider.SignInWithCredential(ctx, idToken)
	if err != nil {
		g.logger.Warn("sign_in_provider_failed",
			zap.String("error", logger.SanitizeError(err)),
		)
		return g.finishSignIn(span, models.Error(err.Error(), fmt.Errorf("%w: %w", ErrProvider, err)))
	}
	if result == nil || result.User == nil {
		g.logger.Warn("sign_in_no_user_returned")
		return g.finishSignIn(span, models.Error(MsgNoUserReturned, ErrProvider))
	}

	user := result.User
	span.SetAttributes(telemetry.UserAttr(user.UID))
	g.logger.Info("sign_in_succeeded",
		zap.String("user_id", logger.SanitizeUserID(user.UID)),
		zap.Bool("is_new_user", result.IsNewUser),
	)

	if result.IsNewUser {
		g.createUserDocument(ctx, user)
	}
	g.publish(ctx, queue.EventTypeSignedIn, user.UID)

	return g.finishSignIn(span, models.Success())
}

// SignInWithAuthCode exchanges an authorization code for an ID token and
// signs in with it
func (g *Gateway) SignInWithAuthCode(ctx context.Context, code string) models.AuthResult {
	if strings.TrimSpace(code) == "" {
		g.metrics.RecordSignIn(metrics.OutcomeInvalid)
		return models.Error(MsgBlankAuthCode, ErrValidation)
	}
	if g.exchanger == nil {
		g.metrics.RecordSignIn(metrics.OutcomeError)
		return models.Error(msgSignInFailed, fmt.Errorf("%w: authorization code sign-in is not configured", ErrProvider))
	}

	idToken, err := g.exchanger.ExchangeForIDToken(ctx, code)
	if err != nil {
		g.logger.Warn("auth_code_exchange_failed",
			zap.String("error", logger.SanitizeError(err)),
		)
		g.metrics.RecordSignIn(metrics.OutcomeError)
		return models.Error(msgSignInFailed+": "+err.Error(), fmt.Errorf("%w: %w", ErrProvider, err))
	}

	return g.SignInWithGoogle(ctx, idToken)
}

// SignOut ends the provider session
func (g *Gateway) SignOut(ctx context.Context) models.AuthResult {
	ctx, span := g.tracer.Start(ctx, "auth.sign_out")
	defer span.End()

	uid := ""
	if current := g.provider.CurrentUser(); current != nil {
		uid = current.UID
		span.SetAttributes(telemetry.UserAttr(uid))
	}

	if err := g.provider.SignOut(ctx); err != nil {
		g.logger.Error("sign_out_failed",
			zap.String("user_id", logger.SanitizeUserID(uid)),
			zap.String("error", logger.SanitizeError(err)),
		)
		telemetry.SetOutcome(span, metrics.OutcomeError, err)
		g.metrics.RecordSignOut(metrics.OutcomeError)
		return models.Error(messageOr(err, msgSignOutFailed), fmt.Errorf("%w: %w", ErrProvider, err))
	}

	g.logger.Info("sign_out_succeeded", zap.String("user_id", logger.SanitizeUserID(uid)))
	if uid != "" {
		g.publish(ctx, queue.EventTypeSignedOut, uid)
	}
	telemetry.SetOutcome(span, metrics.OutcomeSuccess, nil)
	g.metrics.RecordSignOut(metrics.OutcomeSuccess)
	return models.Success()
}

// SaveUserProfile writes the full user document and, on success, publishes
// the saved user to the session. A missing or non-positive age is rejected
// before the store is touched.
func (g *Gateway) SaveUserProfile(ctx context.Context, user *models.User) models.AuthResult {
	ctx, span := g.tracer.Start(ctx, "auth.save_user_profile")
	defer span.End()

	if user == nil || user.ID == "" {
		g.metrics.RecordProfileSave(metrics.OutcomeInvalid)
		return models.Error(msgSaveFailed, fmt.Errorf("%w: user has no id", ErrValidation))
	}
	span.SetAttributes(telemetry.UserAttr(user.ID))

	if user.Age == nil || *user.Age <= 0 {
		g.logger.Warn("profile_save_rejected_invalid_age",
			zap.String("user_id", logger.SanitizeUserID(user.ID)),
		)
		g.metrics.RecordProfileSave(metrics.OutcomeInvalid)
		return models.Error(MsgInvalidAge, fmt.Errorf("%w: %w", ErrValidation, validation.ErrInvalidAge))
	}

	saved := user.Clone()
	if saved.CreatedAt == nil {
		now := g.now().UTC()
		saved.CreatedAt = &now
	}

	if err := g.docs.Set(ctx, models.UsersCollection, saved.ID, saved.Fields()); err != nil {
		g.logger.Error("profile_save_failed",
			zap.String("user_id", logger.SanitizeUserID(saved.ID)),
			zap.String("error", logger.SanitizeError(err)),
		)
		telemetry.SetOutcome(span, metrics.OutcomeError, err)
		g.metrics.RecordProfileSave(metrics.OutcomeError)
		return models.Error(messageOr(err, msgSaveFailed), fmt.Errorf("%w: %w", ErrStore, err))
	}

	g.session.ApplySavedProfile(saved)
	g.logger.Info("profile_saved",
		zap.String("user_id", logger.SanitizeUserID(saved.ID)),
		zap.Bool("is_profile_complete", saved.IsProfileComplete),
	)
	g.publish(ctx, queue.EventTypeProfileSaved, saved.ID)
	telemetry.SetOutcome(span, metrics.OutcomeSuccess, nil)
	g.metrics.RecordProfileSave(metrics.OutcomeSuccess)
	return models.Success()
}

// CompleteProfile validates the profile form for the session user and saves
// it with the profile marked complete
func (g *Gateway) CompleteProfile(ctx context.Context, ageText, bio string) models.AuthResult {
	current := g.session.CurrentUser().Get()
	if current == nil {
		g.metrics.RecordProfileSave(metrics.OutcomeUnauthorized)
		return models.Unauthorized("", ErrUnauthorized)
	}

	input, err := validation.NewProfileInput(ageText, bio)
	if err != nil {
		g.metrics.RecordProfileSave(metrics.OutcomeInvalid)
		msg := MsgInvalidAge
		if isBioError(err) {
			msg = MsgInvalidBio
		}
		return models.Error(msg, fmt.Errorf("%w: %w", ErrValidation, err))
	}

	return g.SaveUserProfile(ctx, current.WithCompletedProfile(input.Age, input.Bio))
}

// createUserDocument writes the initial profile of a first-time user. The
// sign-in has already succeeded, so failures are only logged.
func (g *Gateway) createUserDocument(ctx context.Context, principal *identity.Principal) {
	user := models.NewUserFromPrincipal(principal.UID, principal.DisplayName, principal.Email, principal.PhotoURL)
	now := g.now().UTC()
	user.CreatedAt = &now

	if err := g.docs.Set(ctx, models.UsersCollection, user.ID, user.Fields()); err != nil {
		g.logger.Warn("failed_to_create_user_document",
			zap.String("user_id", logger.SanitizeUserID(user.ID)),
			zap.String("error", logger.SanitizeError(err)),
		)
		return
	}
	g.logger.Debug("user_document_created", zap.String("user_id", logger.SanitizeUserID(user.ID)))
}

func (g *Gateway) publish(ctx context.Context, eventType queue.EventType, userID string) {
	event := queue.NewEvent(eventType, userID, g.now())
	if err := g.events.Publish(ctx, event); err != nil {
		g.logger.Warn("failed_to_publish_session_event",
			zap.String("event_type", string(eventType)),
			zap.String("user_id", logger.SanitizeUserID(userID)),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
}

func (g *Gateway) finishSignIn(span trace.Span, result models.AuthResult) models.AuthResult {
	outcome := metrics.OutcomeError
	switch {
	case result.IsSuccess():
		outcome = metrics.OutcomeSuccess
	case errors.Is(result.Cause, ErrValidation):
		outcome = metrics.OutcomeInvalid
	}
	g.metrics.RecordSignIn(outcome)

	var err error
	if !result.IsSuccess() {
		err = errors.New(result.Message)
	}
	telemetry.SetOutcome(span, outcome, err)
	return result
}

func isBioError(err error) bool {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return false
	}
	for _, fe := range verrs {
		if fe.Field() == "Bio" {
			return true
		}
	}
	return false
}

func messageOr(err error, fallback string) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
