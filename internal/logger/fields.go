package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldSource is the structured log field key for the candidate source name.
	FieldSource = "source"
	// FieldBucket is the structured log field key for the bucket identifier.
	FieldBucket = "bucket"
	// FieldCandidate is the structured log field key for the candidate key.
	FieldCandidate = "candidate"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// If the logger is nil or no fields are supplied, the input logger is returned
// unchanged, defaulting to a no-op logger when nil.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// SourceFields returns standard zap fields identifying a fetch source and the
// bucket it feeds. Empty values are ignored to keep log entries compact.
func SourceFields(source, bucket string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSource, Value: source},
		StringField{Key: FieldBucket, Value: bucket},
	)
}

// WithSourceFields attaches the source fields to the provided logger.
// If the logger is nil, a no-op logger is created to avoid panics.
func WithSourceFields(logger *zap.Logger, source, bucket string) *zap.Logger {
	return WithFields(logger, SourceFields(source, bucket)...)
}

// CandidateFields returns standard zap fields identifying one candidate
// record within a bucket.
func CandidateFields(bucket, candidate string) []zap.Field {
	return StringFields(
		StringField{Key: FieldBucket, Value: bucket},
		StringField{Key: FieldCandidate, Value: candidate},
	)
}
