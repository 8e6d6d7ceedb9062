package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateAccountRequestEmail(t *testing.T) {
	valid := CreateAccountRequest{Email: "i.ivanov@innopolis.university", FullName: "Ivan Ivanov"}
	assert.NoError(t, valid.Validate())

	for _, email := range []string{"", "i..ivanov@innopolis.university", ".ivanov@innopolis.university", "ivanov", "ivanov@-innopolis.ru"} {
		req := CreateAccountRequest{Email: email, FullName: "Ivan Ivanov"}
		assert.Error(t, req.Validate(), email)
	}
}

func TestManualTransactionRequest(t *testing.T) {
	assert.NoError(t, (&ManualTransactionRequest{Change: -10}).Validate())
	assert.Error(t, (&ManualTransactionRequest{}).Validate())
}

func TestCreateVarietyRequestImages(t *testing.T) {
	req := CreateVarietyRequest{Color: "black", Images: []string{"0b6f3a4e-2c1d-4c7e-9a57-0f3e1f1f5a10"}}
	assert.NoError(t, req.Validate())

	req.Images = append(req.Images, "not-a-uuid")
	assert.Error(t, req.Validate())
}

func TestReportRequestRating(t *testing.T) {
	assert.NoError(t, (&ReportRequest{Rating: 5}).Validate())
	assert.Error(t, (&ReportRequest{Rating: 6}).Validate())
	assert.Error(t, (&ReportRequest{}).Validate())
}

func TestApplicationPatchRequest(t *testing.T) {
	status := "approved"
	req := ApplicationPatchRequest{Status: &status}
	assert.NoError(t, req.Validate())
	patch := req.Patch()
	if assert.NotNil(t, patch.Status) {
		assert.Equal(t, "approved", string(*patch.Status))
	}
	assert.Nil(t, patch.ActualHours)

	bad := "finished"
	assert.Error(t, (&ApplicationPatchRequest{Status: &bad}).Validate())

	negative := -1
	assert.Error(t, (&ApplicationPatchRequest{ActualHours: &negative}).Validate())
}

func TestStockChangeStatusRequest(t *testing.T) {
	assert.NoError(t, (&StockChangeStatusRequest{Status: "ready_for_pickup"}).Validate())
	assert.Error(t, (&StockChangeStatusRequest{Status: "lost"}).Validate())
}
