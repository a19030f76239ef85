package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCarriesCodeAndReason(t *testing.T) {
	err := New(ErrCodeDuplicateOrder, "order %s exists", "ORDER-1")
	assert.True(t, IsCode(err, ErrCodeDuplicateOrder))
	assert.Equal(t, "DUPLICATE_ORDER", err.Reason)
	assert.Contains(t, err.Message, "ORDER-1")
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeInvalidSignature, "bad signature")
	assert.True(t, IsCode(err, ErrCodeInvalidSignature))
	assert.False(t, IsCode(err, ErrCodeWebhookSignature))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrCodeInvalidSignature))
	assert.False(t, IsCode(nil, ErrCodeInvalidSignature))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeBusinessNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodePaymentNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeUserNotFound))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrCodeWebhookSignature))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeWalletUpstream))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeDirectoryUnavailable))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidPaymentRequest))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidSignature))
	// 框架层状态码透传
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(400))
	// 未知业务码兜底 500
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(999999))
}
