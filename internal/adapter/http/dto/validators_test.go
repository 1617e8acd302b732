package dto

import (
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CodeRequest{
		PhoneNumber: "  +254712345678 ",
		Code:        " 123456 ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "+254712345678", req.PhoneNumber)
	assert.Equal(t, "123456", req.Code)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := BookingRequest{ReferenceID: "ref-1", TripID: "<script>alert('x')</script>", Fare: 100}
	SanitizeStruct(&req)

	assert.Contains(t, req.TripID, "&lt;script&gt;")
	assert.NotContains(t, req.TripID, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	exp := "  2026-01-01T00:00:00Z  "
	resp := SessionResponse{ID: "id", ExpiresAt: &exp}
	SanitizeStruct(&resp)

	assert.Equal(t, "2026-01-01T00:00:00Z", *resp.ExpiresAt)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	req := PhoneRequest{PhoneNumber: " +254712345678 "}
	SanitizeStruct(req)
	assert.Equal(t, " +254712345678 ", req.PhoneNumber)
}

func TestValidation_PhoneTag(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"+254712345678", true},
		{"+12", true},
		{"0712345678", false},
		{"+1", false},
		{"+25471234567890123", false},
		{"+2547-1234", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&PhoneRequest{PhoneNumber: tt.phone})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsPhoneError(err))
		})
	}
}

func TestValidation_CodeRequest(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&CodeRequest{PhoneNumber: "+254712345678", Code: "123456"}))

	for _, code := range []string{"", "12345", "1234567", "12a456"} {
		err := binding.Validator.ValidateStruct(&CodeRequest{PhoneNumber: "+254712345678", Code: code})
		require.Error(t, err, code)
		assert.False(t, IsPhoneError(err))
	}
}

func TestValidation_BookingRequest_SafeID(t *testing.T) {
	assert.NoError(t, binding.Validator.ValidateStruct(&BookingRequest{ReferenceID: "ref_01.a-b", TripID: "NBO-MSA", Fare: 1}))

	for _, id := range []string{"ref 01", "ref;drop", "ref/01"} {
		err := binding.Validator.ValidateStruct(&BookingRequest{ReferenceID: id, TripID: "NBO-MSA", Fare: 1})
		assert.Error(t, err, id)
	}
}

func TestIsPhoneError_OtherErrors(t *testing.T) {
	assert.False(t, IsPhoneError(nil))
	assert.False(t, IsPhoneError(errors.New("EOF")))
}
