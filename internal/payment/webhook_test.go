package payment_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/ErlanBelekov/wisdom-hub/internal/domain"
	"github.com/ErlanBelekov/wisdom-hub/internal/payment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test_secret"

func sign(t *testing.T, secret string, ts time.Time, payload []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func event(id, typ, object string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"object":"event","type":%q,"api_version":"2023-10-16","data":{"object":%s}}`,
		id, typ, object))
}

func TestParse_RefundedCharge(t *testing.T) {
	payload := event("evt_1", domain.EventChargeRefunded,
		`{"id":"ch_1","object":"charge","payment_intent":"pi_1","refunded":true,"amount":1200,"amount_refunded":1200}`)

	ev, err := payment.NewWebhookVerifier(testSecret).Parse(payload, sign(t, testSecret, time.Now(), payload))
	require.NoError(t, err)
	assert.Equal(t, "evt_1", ev.ID)
	assert.Equal(t, domain.EventChargeRefunded, ev.Type)
	assert.Equal(t, "pi_1", ev.RefundedPayment)
	assert.False(t, ev.Malformed)
}

func TestParse_PartialRefundKeepsPurchase(t *testing.T) {
	payload := event("evt_7", domain.EventChargeRefunded,
		`{"id":"ch_1","object":"charge","payment_intent":"pi_1","refunded":false,"amount":1200,"amount_refunded":500}`)

	ev, err := payment.NewWebhookVerifier(testSecret).Parse(payload, sign(t, testSecret, time.Now(), payload))
	require.NoError(t, err)
	assert.Equal(t, domain.EventChargeRefunded, ev.Type)
	assert.Empty(t, ev.RefundedPayment)
	assert.False(t, ev.Malformed)
}

func TestParse_UndecodableObjectIsMarkedMalformed(t *testing.T) {
	tests := []struct {
		name   string
		typ    string
		object string
	}{
		{"subscription", domain.EventSubscriptionUpdated, `{"id":"sub_1","object":"subscription","status":{"not":"a string"}}`},
		{"charge", domain.EventChargeRefunded, `{"id":"ch_1","object":"charge","refunded":"yes"}`},
		{"payment intent", domain.EventPaymentSucceeded, `{"id":"pi_1","object":"payment_intent","amount":"lots"}`},
	}

	v := payment.NewWebhookVerifier(testSecret)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := event("evt_bad", tc.typ, tc.object)

			ev, err := v.Parse(payload, sign(t, testSecret, time.Now(), payload))
			require.NoError(t, err)
			assert.True(t, ev.Malformed)
			assert.Equal(t, "evt_bad", ev.ID)
			assert.Nil(t, ev.Subscription)
			assert.Empty(t, ev.RefundedPayment)
		})
	}
}

func TestParse_PaymentSucceeded(t *testing.T) {
	payload := event("evt_2", domain.EventPaymentSucceeded,
		`{"id":"pi_9","object":"payment_intent","status":"succeeded","amount":1200}`)

	ev, err := payment.NewWebhookVerifier(testSecret).Parse(payload, sign(t, testSecret, time.Now(), payload))
	require.NoError(t, err)
	assert.Equal(t, "pi_9", ev.PaymentIntentID)
}

func TestParse_Subscription(t *testing.T) {
	payload := event("evt_3", domain.EventSubscriptionUpdated, `{
		"id":"sub_1","object":"subscription","status":"active",
		"customer":"cus_1","current_period_end":1767225600,
		"metadata":{"user_id":"user-1"},
		"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_1","lookup_key":"premium_monthly"}}]}
	}`)

	ev, err := payment.NewWebhookVerifier(testSecret).Parse(payload, sign(t, testSecret, time.Now(), payload))
	require.NoError(t, err)
	require.NotNil(t, ev.Subscription)

	s := ev.Subscription
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, "cus_1", s.ProviderCustomerID)
	assert.Equal(t, "sub_1", s.ProviderSubscriptionID)
	assert.Equal(t, "active", s.Status)
	assert.Equal(t, "premium_monthly", s.Plan)
	require.NotNil(t, s.CurrentPeriodEnd)
	assert.Equal(t, int64(1767225600), s.CurrentPeriodEnd.Unix())
}

func TestParse_UnknownTypeStillVerified(t *testing.T) {
	payload := event("evt_4", "invoice.created", `{"id":"in_1","object":"invoice"}`)

	ev, err := payment.NewWebhookVerifier(testSecret).Parse(payload, sign(t, testSecret, time.Now(), payload))
	require.NoError(t, err)
	assert.Equal(t, "invoice.created", ev.Type)
	assert.Nil(t, ev.Subscription)
}

func TestParse_Rejects(t *testing.T) {
	payload := event("evt_5", domain.EventChargeRefunded, `{"id":"ch_1","object":"charge","payment_intent":"pi_1"}`)
	tampered := event("evt_5", domain.EventChargeRefunded, `{"id":"ch_1","object":"charge","payment_intent":"pi_2"}`)

	tests := []struct {
		name      string
		signature string
		body      []byte
	}{
		{"missing header", "", payload},
		{"wrong secret", sign(t, "whsec_other", time.Now(), payload), payload},
		{"tampered body", sign(t, testSecret, time.Now(), payload), tampered},
		{"stale timestamp", sign(t, testSecret, time.Now().Add(-time.Hour), payload), payload},
		{"garbage header", "t=abc,v1=zzz", payload},
	}

	v := payment.NewWebhookVerifier(testSecret)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := v.Parse(tc.body, tc.signature)
			assert.ErrorIs(t, err, domain.ErrWebhookSignature)
			assert.Nil(t, ev)
		})
	}
}

func TestParse_NoSecretFailsClosed(t *testing.T) {
	payload := event("evt_6", domain.EventChargeRefunded, `{"id":"ch_1","object":"charge"}`)

	ev, err := payment.NewWebhookVerifier("").Parse(payload, sign(t, "", time.Now(), payload))
	assert.ErrorIs(t, err, domain.ErrWebhookNotConfigured)
	assert.Nil(t, ev)
}
