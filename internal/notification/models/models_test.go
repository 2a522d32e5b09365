package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
)

func TestNewAccessRequestInvariants(t *testing.T) {
	requester, target := id.NewUserID(), id.NewUserID()
	now := time.Now()

	r, err := NewAccessRequest(id.NewAccessRequestID(), requester, target, now)
	require.NoError(t, err)
	assert.Equal(t, RequestPending, r.Status)
	assert.False(t, r.Granted())

	_, err = NewAccessRequest(id.AccessRequestID{}, requester, target, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	_, err = NewAccessRequest(id.NewAccessRequestID(), requester, requester, now)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation), "self-request must be rejected")
}

func TestRespondTransitionsExactlyOnce(t *testing.T) {
	r, err := NewAccessRequest(id.NewAccessRequestID(), id.NewUserID(), id.NewUserID(), time.Now())
	require.NoError(t, err)

	respondedAt := time.Now()
	require.NoError(t, r.Respond(true, respondedAt))
	assert.Equal(t, RequestAccepted, r.Status)
	assert.True(t, r.Granted())
	require.NotNil(t, r.RespondedAt)

	err = r.Respond(false, time.Now())
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAlreadyAnswered))
	assert.Equal(t, RequestAccepted, r.Status, "second answer must not overwrite the first")
}

func TestRespondReject(t *testing.T) {
	r, err := NewAccessRequest(id.NewAccessRequestID(), id.NewUserID(), id.NewUserID(), time.Now())
	require.NoError(t, err)

	require.NoError(t, r.Respond(false, time.Now()))
	assert.Equal(t, RequestRejected, r.Status)
	assert.False(t, r.Granted())
}

func TestGrantedOnNil(t *testing.T) {
	var r *AccessRequest
	assert.False(t, r.Granted())
}
