package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// NotificationPayment é o único tipo de notificação que altera o ledger.
const NotificationPayment = "payment"

// Notification é o aviso do gateway já normalizado. O conteúdo não é confiável:
// só serve para saber qual pagamento buscar.
type Notification struct {
	Type      string
	PaymentID string
}

// FlexibleID aceita o id como string ou número, os dois formatos que o
// Mercado Pago envia.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id inválido: %s", b)
	}
	*f = FlexibleID(n.String())
	return nil
}

type mercadoPagoBody struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID FlexibleID `json:"id"`
	} `json:"data"`
}

// ParseMercadoPagoNotification lê a notificação do corpo JSON e, na falta dele,
// dos parâmetros de query (formato IPN: topic/id ou type/data.id).
func ParseMercadoPagoNotification(body []byte, query url.Values) (*Notification, error) {
	var n Notification
	if len(bytes.TrimSpace(body)) > 0 {
		var b mercadoPagoBody
		if err := json.Unmarshal(body, &b); err != nil {
			return nil, fmt.Errorf("corpo da notificação inválido: %w", err)
		}
		n.Type = b.Type
		n.PaymentID = string(b.Data.ID)
	}
	if n.Type == "" {
		n.Type = firstNonEmpty(query.Get("type"), query.Get("topic"))
	}
	if n.PaymentID == "" {
		n.PaymentID = firstNonEmpty(query.Get("data.id"), query.Get("id"))
	}
	if n.Type == NotificationPayment && n.PaymentID == "" {
		return nil, fmt.Errorf("notificação de pagamento sem id")
	}
	return &n, nil
}

// VerifyMercadoPagoSignature confere o cabeçalho x-signature ("ts=...,v1=...")
// contra o HMAC-SHA256 do manifesto "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func VerifyMercadoPagoSignature(secret, signature, requestID, dataID string) bool {
	var ts, v1 string
	for _, part := range strings.Split(signature, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return false
	}

	var manifest strings.Builder
	if dataID != "" {
		fmt.Fprintf(&manifest, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&manifest, "request-id:%s;", requestID)
	}
	fmt.Fprintf(&manifest, "ts:%s;", ts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest.String()))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(v1))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
