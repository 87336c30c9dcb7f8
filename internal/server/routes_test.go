package server

import (
	stdhttp "net/http"
	"testing"

	"smartshop/checkout-service/internal/errors"

	"github.com/stretchr/testify/assert"
)

func TestFlattenParams(t *testing.T) {
	// JSON 数字不得带多余小数位, 否则签名重算失配
	params := flattenParams(map[string]interface{}{
		"amount":     float64(255000),
		"resultCode": float64(0),
		"orderId":    "TXN-1",
		"extraData":  nil,
		"partial":    true,
	})
	assert.Equal(t, "255000", params["amount"])
	assert.Equal(t, "0", params["resultCode"])
	assert.Equal(t, "TXN-1", params["orderId"])
	assert.Equal(t, "", params["extraData"])
	assert.Equal(t, "true", params["partial"])
}

func TestMapErrorStatus(t *testing.T) {
	assert.Equal(t, stdhttp.StatusNotFound, mapErrorStatus(140201, errors.ReasonOrderNotFound))
	assert.Equal(t, stdhttp.StatusForbidden, mapErrorStatus(140204, errors.ReasonPermissionDenied))
	assert.Equal(t, stdhttp.StatusConflict, mapErrorStatus(140202, errors.ReasonInvalidTransition))
	assert.Equal(t, stdhttp.StatusConflict, mapErrorStatus(140405, errors.ReasonOrderNotPayable))
	assert.Equal(t, stdhttp.StatusBadGateway, mapErrorStatus(140403, errors.ReasonGatewayUnavailable))
	assert.Equal(t, stdhttp.StatusBadRequest, mapErrorStatus(140101, errors.ReasonValidation))
	assert.Equal(t, stdhttp.StatusBadRequest, mapErrorStatus(400, ""))
	assert.Equal(t, stdhttp.StatusInternalServerError, mapErrorStatus(999999, "UNKNOWN"))
}
