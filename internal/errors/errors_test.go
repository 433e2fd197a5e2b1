package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"trustdebt/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{core.NewOrphanCategoryError("A.1", "A"), CodeInvalidDefinition, http.StatusUnprocessableEntity},
		{core.NewDuplicateCategoryError("A"), CodeInvalidDefinition, http.StatusUnprocessableEntity},
		{&core.CorruptInputError{Row: 1, Col: 0, Field: "intent_value"}, CodeCorruptInput, http.StatusUnprocessableEntity},
		{core.NewSignalError("auth", "bad"), CodeCorruptInput, http.StatusUnprocessableEntity},
		{core.NewBoundaryError("empty"), CodeInvalidBoundaries, http.StatusBadRequest},
		{stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		code := GetCode(tc.err)
		assert.Equal(t, tc.code, code, tc.err.Error())
		assert.Equal(t, tc.status, HTTPStatus(code))
	}
}

func TestWrap_KeepsDomainCode(t *testing.T) {
	err := Wrap(fmt.Errorf("loading: %w", core.NewCyclicHierarchyError("A")), "assessment failed")

	assert.Equal(t, CodeInvalidDefinition, GetCode(err))
	assert.True(t, stderrors.Is(err, core.ErrCyclicHierarchy))
	assert.True(t, IsAppError(err))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, stderrors.New("missing body"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.ErrorContains(t, err, "missing body")
}
