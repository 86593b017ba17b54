// Package log defines standard attribute keys for pipeline and model operations.
//
// Using these keys keeps fields consistent between the dataset loader, the
// feature pipelines, the estimators and the model-selection utilities.
// Keys follow a hierarchical naming convention ("data.samples", "cv.fold").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of estimator or transformer.
	// Examples: "LinearRegression", "StandardScaler", "FeatureUnion"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which component or package is logging.
	// Examples: "dataset.loader", "pipeline.union", "selection.grid"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the run.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// FieldKey names a dataset field.
	FieldKey = "data.field"

	// FieldsKey lists dataset fields.
	FieldsKey = "data.fields"

	// PathKey is a file path being read or written.
	PathKey = "data.path"
)

// Pipeline Context
const (
	// StepKey names a step of a sequential pipeline.
	StepKey = "pipeline.step"

	// BlockKey names a block of a feature union.
	BlockKey = "pipeline.block"
)

// Metrics and Model Selection
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// R2ScoreKey records R² coefficient of determination for regression.
	R2ScoreKey = "metrics.r2_score"

	// RMSEKey records root mean squared error.
	RMSEKey = "metrics.rmse"

	// ScoreKey records a scorer value (sign follows the scorer convention).
	ScoreKey = "metrics.score"

	// FoldKey records the index of a cross-validation fold.
	FoldKey = "cv.fold"

	// FoldsKey records the number of folds.
	FoldsKey = "cv.folds"

	// CandidateKey records the index of a search candidate.
	CandidateKey = "search.candidate"

	// ParamsKey records hyper-parameters of a candidate.
	ParamsKey = "search.params"

	// FitsKey records the number of fits performed.
	FitsKey = "search.fits"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// RunIDKey identifies a persisted run.
	RunIDKey = "run.id"
)

// Error Context
const (
	// ErrorKey holds the error value.
	ErrorKey = "error"

	// StacktraceKey contains stack trace information for debugging.
	StacktraceKey = "error.stacktrace"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"
)

// Standard attribute values.
const (
	OperationLoad          = "load"
	OperationConvert       = "convert"
	OperationFeaturize     = "featurize"
	OperationFit           = "fit"
	OperationPredict       = "predict"
	OperationTransform     = "transform"
	OperationScore         = "score"
	OperationCrossValidate = "cross_validate"
	OperationSearch        = "search"

	PhasePreprocessing = "preprocessing"
	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseReporting     = "reporting"
)
