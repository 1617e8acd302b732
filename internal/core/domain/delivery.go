package domain

// ProviderName identifies an SMS delivery gateway.
type ProviderName string

const (
	ProviderAfricasTalking ProviderName = "africastalking"
	ProviderTwilio         ProviderName = "twilio"
)

// DeliveryResult is what a provider client reports for a single send.
// Clients never return errors; failures are carried in ErrorDetail.
type DeliveryResult struct {
	Success           bool   `json:"success"`
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	ErrorDetail       string `json:"error_detail,omitempty"`
}

// DeliveryFailed builds a failed result.
func DeliveryFailed(detail string) DeliveryResult {
	return DeliveryResult{ErrorDetail: detail}
}
