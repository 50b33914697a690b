// Package constants provides shared constants used throughout the motherdb codebase.
// This includes default thresholds for the comparison, consensus and QC engines,
// resource limits, and file permissions that should be consistent across the
// application.
package constants

// Comparison engine defaults
const (
	// DefaultChunkThresholdBytes is the total input size above which datasets
	// are merged in chunks instead of fully in memory (50 MB).
	DefaultChunkThresholdBytes int64 = 50 * 1024 * 1024

	// DefaultChunkSize is the number of sources merged per chunk.
	DefaultChunkSize = 4

	// DefaultLoadWorkers is the size of the parallel source loading pool.
	DefaultLoadWorkers = 4

	// DefaultCacheCapacity is the number of comparison tables kept in the cache.
	DefaultCacheCapacity = 10

	// EstimatedRecordBytes approximates the in-memory footprint of one record
	// when a dataset does not report its size.
	EstimatedRecordBytes int64 = 256
)

// Candidate analyzer defaults
const (
	// DefaultMinOccurrenceRate is the minimum fraction of sources that must agree.
	DefaultMinOccurrenceRate = 0.8

	// DefaultConfidenceThreshold is the minimum confidence score for acceptance.
	DefaultConfidenceThreshold = 0.7

	// DominanceWeight is the weight of the dominance ratio in the confidence score.
	DominanceWeight = 0.7

	// ConsistencyWeight is the weight of (1 - normalized entropy) in the confidence score.
	ConsistencyWeight = 0.3
)

// Conflict resolver defaults
const (
	// DefaultUpdateFactor: a new value wins outright when its confidence exceeds
	// the stored confidence times this factor.
	DefaultUpdateFactor = 1.2

	// DefaultKeepFactor: the stored value wins outright when the new confidence
	// falls below the stored confidence times this factor.
	DefaultKeepFactor = 0.8
)

// QC defaults
const (
	// DefaultAutoAdvancedThreshold is the record count above which AUTO mode
	// runs advanced validation.
	DefaultAutoAdvancedThreshold = 100

	// DefaultZScoreThreshold is the |z| at which a value is reported as an outlier.
	DefaultZScoreThreshold = 2.0

	// MinZScoreSamples is the minimum number of numeric samples for z-score detection.
	MinZScoreSamples = 4

	// IQRMultiplier scales the interquartile range for outlier fences.
	IQRMultiplier = 1.5

	// DefaultCorrelationThreshold is the |r| above which a parameter pair is reported.
	DefaultCorrelationThreshold = 0.9

	// MinCorrelationSamples is the minimum number of aligned samples for a correlation.
	MinCorrelationSamples = 3

	// MaxIssueExamples caps the number of offending names listed in one issue.
	MaxIssueExamples = 5

	// MaxCorrelationParameters caps how many numeric parameters enter the
	// pairwise correlation pass.
	MaxCorrelationParameters = 200

	// MaxSequenceGapListing caps the missing numbers spelled out per gap issue.
	MaxSequenceGapListing = 10
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)
