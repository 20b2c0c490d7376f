package session

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/emrepbu/loginflow/internal/database"
	"github.com/emrepbu/loginflow/internal/logger"
	"github.com/emrepbu/loginflow/internal/metrics"
	"github.com/emrepbu/loginflow/internal/models"
	"go.uber.org/zap"
)

// DocumentReader reads profile documents
type DocumentReader interface {
	Get(ctx context.Context, collection, id string) (*database.Document, error)
}

// Enricher merges the stored profile document into a basic user
type Enricher struct {
	docs    DocumentReader
	logger  *zap.Logger
	metrics metrics.Recorder
}

// NewEnricher creates a new profile enricher
func NewEnricher(docs DocumentReader, log *zap.Logger) *Enricher {
	return &Enricher{docs: docs, logger: log, metrics: metrics.Nop{}}
}

// WithMetrics reports failed reads to rec
func (e *Enricher) WithMetrics(rec metrics.Recorder) *Enricher {
	e.metrics = rec
	return e
}

// Enrich returns a copy of basic merged with its stored profile. It never
// fails: a missing document, unusable fields or a read error all yield the
// basic user with the profile marked incomplete.
func (e *Enricher) Enrich(ctx context.Context, basic *models.User) *models.User {
	user := basic.Clone()
	user.IsProfileComplete = false
	user.Age = nil

	doc, err := e.docs.Get(ctx, models.UsersCollection, basic.ID)
	if err != nil {
		e.logger.Warn("failed_to_read_user_profile",
			zap.String("user_id", logger.SanitizeUserID(basic.ID)),
			zap.String("error", logger.SanitizeError(err)),
		)
		e.metrics.RecordEnrichmentFailure()
		return user
	}
	if doc == nil || !doc.Exists || len(doc.Fields) == 0 {
		e.logger.Debug("user_profile_not_found",
			zap.String("user_id", logger.SanitizeUserID(basic.ID)),
		)
		return user
	}

	if bio, ok := doc.Fields[models.FieldBio].(string); ok {
		user.Bio = &bio
	}
	if createdAt, ok := parseTime(doc.Fields[models.FieldCreatedAt]); ok {
		user.CreatedAt = &createdAt
	}

	complete, _ := doc.Fields[models.FieldIsProfileComplete].(bool)
	age, ageOK := parseAge(doc.Fields[models.FieldAge])
	if complete && ageOK {
		user.IsProfileComplete = true
		user.Age = &age
	}

	return user
}

// parseAge accepts the numeric forms a decoded document may hold and
// requires a positive whole number
func parseAge(value any) (int, bool) {
	var n float64
	switch v := value.(type) {
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return 0, false
		}
		n = float64(i)
	case float64:
		n = v
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	default:
		return 0, false
	}
	if n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func parseTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case time.Time:
		return v, true
	default:
		return time.Time{}, false
	}
}
