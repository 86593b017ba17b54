// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// データセットのフィールド欠落、行数の不一致、パース失敗などを構造化された型で表現し、
// cockroachdb/errors によるスタックトレースを付与します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("matpipe-warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the handler used by Warn when no zerolog function is installed.
//
// 例:
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// DataConversionWarning はデータの型が暗黙的に変換された場合に発生する警告です。
type DataConversionWarning struct {
	Field    string
	FromType string
	ToType   string
	Reason   string
}

func (w *DataConversionWarning) Error() string {
	return fmt.Sprintf("field %q converted from %s to %s. Reason: %s", w.Field, w.FromType, w.ToType, w.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *DataConversionWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("field", w.Field).
		Str("from_type", w.FromType).
		Str("to_type", w.ToType).
		Str("reason", w.Reason).
		Str("type", "DataConversionWarning")
}

// NewDataConversionWarning は新しいDataConversionWarningを作成します。
func NewDataConversionWarning(field, from, to, reason string) *DataConversionWarning {
	return &DataConversionWarning{Field: field, FromType: from, ToType: to, Reason: reason}
}

// RankWarning is raised when a least-squares design matrix is rank deficient.
// The minimum-norm solution is still returned.
type RankWarning struct {
	Op       string
	Rank     int
	Features int
}

func (w *RankWarning) Error() string {
	return fmt.Sprintf("%s: design matrix is rank deficient (rank %d < %d features); returning minimum-norm solution",
		w.Op, w.Rank, w.Features)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *RankWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("operation", w.Op).
		Int("rank", w.Rank).
		Int("features", w.Features).
		Str("type", "RankWarning")
}

// NewRankWarning は新しいRankWarningを作成します。
func NewRankWarning(op string, rank, features int) *RankWarning {
	return &RankWarning{Op: op, Rank: rank, Features: features}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// MissingFieldError is returned when a dataset field required by an adapter or
// featurizer is absent. It is fatal: no partial result is produced.
type MissingFieldError struct {
	Field     string
	Available []string
}

func (e *MissingFieldError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("matpipe: missing field %q", e.Field)
	}
	return fmt.Sprintf("matpipe: missing field %q (available: %s)", e.Field, strings.Join(e.Available, ", "))
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *MissingFieldError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("field", e.Field).
		Strs("available", e.Available).
		Str("type", "MissingFieldError")
}

// NewMissingFieldError は新しいMissingFieldErrorを作成し、スタックトレースを付与します。
func NewMissingFieldError(field string, available []string) error {
	avail := make([]string, len(available))
	copy(avail, available)
	return errors.WithStack(&MissingFieldError{Field: field, Available: avail})
}

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("matpipe: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError は入力データの次元が期待値と異なる場合のエラーです。
// Axis 0 is the row axis: a row-count mismatch between a dataset and a feature
// block is a fatal configuration error.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("matpipe: %s: dimension mismatch on axis %d (%s). Expected %d, got %d",
		e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

// NewDimensionError は新しいDimensionErrorを作成し、スタックトレースを付与します。
func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("matpipe: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("matpipe: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ParseError reports a malformed chemical formula or structure record.
// Pos is the byte offset where parsing stopped, or -1 when unknown.
type ParseError struct {
	Input  string
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Pos < 0 {
		return fmt.Sprintf("matpipe: cannot parse %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("matpipe: cannot parse %q at offset %d: %s", e.Input, e.Pos, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ParseError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("input", e.Input).
		Int("pos", e.Pos).
		Str("reason", e.Reason).
		Str("type", "ParseError")
}

// NewParseError は新しいParseErrorを作成し、スタックトレースを付与します。
func NewParseError(input string, pos int, reason string) error {
	return errors.WithStack(&ParseError{Input: input, Pos: pos, Reason: reason})
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("matpipe: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("matpipe: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN や Inf が特徴量行列に含まれている場合に返されます。
type NumericalInstabilityError struct {
	Operation string
	Values    []float64
	Row       int
	Col       int
}

func (e *NumericalInstabilityError) Error() string {
	var b strings.Builder
	for i, v := range e.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		if i >= 5 {
			b.WriteString("...")
			break
		}
		fmt.Fprintf(&b, "%.6g", v)
	}
	return fmt.Sprintf("matpipe: numerical instability detected in %s at (%d, %d). Values: [%s]",
		e.Operation, e.Row, e.Col, b.String())
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, row, col int) error {
	return errors.WithStack(&NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Row:       row,
		Col:       col,
	})
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix は特異行列の場合のエラーです。
	ErrSingularMatrix = New("singular matrix")
)
