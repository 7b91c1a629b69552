package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	err := New(ErrCodeFileNotFound, "doc.md missing", nil)
	assert.Equal(t, CategoryIO, err.Category)
	assert.Equal(t, SeverityError, err.Severity)
	assert.Equal(t, "[ERR_201_FILE_NOT_FOUND] doc.md missing", err.Error())
}

func TestNew_FatalCodesGetFatalSeverity(t *testing.T) {
	err := New(ErrCodeCorruptIndex, "schema mismatch", nil)
	assert.Equal(t, SeverityFatal, err.Severity)
	assert.True(t, IsFatal(err))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestWrap_PreservesCauseForUnwrap(t *testing.T) {
	cause := errors.New("disk is full")
	err := Wrap(ErrCodeDiskFull, cause)
	require.NotNil(t, err)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrCodeInvalidQuery, "query is malformed", nil)
	b := New(ErrCodeInvalidQuery, "a different message", nil)
	c := New(ErrCodeInternal, "query is malformed", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeInvalidPath, "bad path", nil).
		WithDetail("path", "../../etc").
		WithDetail("reason", "escapes repo root")
	assert.Equal(t, "../../etc", err.Details["path"])
	assert.Equal(t, "escapes repo root", err.Details["reason"])
}

func TestConstructorHelpers(t *testing.T) {
	assert.Equal(t, CategoryConfig, GetCategory(ConfigError("bad config", nil)))
	assert.Equal(t, CategoryIO, GetCategory(IOError("bad io", nil)))
	assert.Equal(t, CategoryValidation, GetCategory(ValidationError("bad input", nil)))
	assert.Equal(t, CategoryInternal, GetCategory(InternalError("boom", nil)))
}

func TestGetCode_NonGitAIErrorReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", GetCode(errors.New("plain error")))
}
