package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"campaignintel/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"unknown constituency", core.NewUnknownConstituencyError("x"), CodeNotFound, http.StatusNotFound},
		{"snapshot missing", fmt.Errorf("latest: %w", core.ErrSnapshotNotFound), CodeNotFound, http.StatusNotFound},
		{"malformed", core.NewMalformedError("total_voters", "bad"), CodeValidationError, http.StatusUnprocessableEntity},
		{"unavailable", core.NewUnavailableError("store", stderrors.New("down")), CodeExternalService, http.StatusBadGateway},
		{"other", stderrors.New("boom"), CodeInternalError, http.StatusInternalServerError},
		{"app error passes through", InvalidInput("limit must be positive"), CodeInvalidInput, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromDomain(tt.err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, HTTPStatus(appErr.Code))
			assert.ErrorIs(t, appErr, tt.err)
		})
	}
	assert.Nil(t, FromDomain(nil))
}

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := DatabaseError("query failed", stderrors.New("timeout"))
	wrapped := Wrapf(inner, "loading %s", "history")

	assert.Equal(t, CodeDatabaseError, GetCode(wrapped))
	assert.Equal(t, "loading history: query failed: timeout", wrapped.Error())
	assert.Equal(t, CodeInternalError, GetCode(Wrap(stderrors.New("plain"), "context")))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.NoError(t, Wrap(nil, "nothing"))
}
