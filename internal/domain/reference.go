package domain

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// ReferenceKind é o tipo de transação por trás de uma referência externa.
// Fica gravado no momento da criação, não é deduzido depois.
type ReferenceKind string

const (
	ReferenceOneOff       ReferenceKind = "one_off"
	ReferenceSubscription ReferenceKind = "subscription"
)

const (
	oneOffPrefix       = "user_"
	subscriptionPrefix = "subscription_"
)

var ErrMalformedReference = errors.New("referência externa malformada")

// Reference liga uma referência externa do gateway às entidades internas.
type Reference struct {
	ExternalReference string        `json:"external_reference"`
	Kind              ReferenceKind `json:"kind"`
	SchoolID          string        `json:"school_id,omitempty"`
	SubscriptionID    string        `json:"subscription_id,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// NewOneOffReference gera "user_<timestamp em ms>" para pagamentos avulsos.
func NewOneOffReference(now time.Time) string {
	return oneOffPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// NewSubscriptionReference gera "subscription_<userId>" para cobranças recorrentes.
func NewSubscriptionReference(userID string) string {
	return subscriptionPrefix + userID
}

// ParseReference faz o caminho inverso: devolve o tipo e o sufixo (timestamp ou
// ID do usuário).
func ParseReference(ref string) (ReferenceKind, string, error) {
	switch {
	case strings.HasPrefix(ref, subscriptionPrefix):
		id := strings.TrimPrefix(ref, subscriptionPrefix)
		if id == "" {
			return "", "", ErrMalformedReference
		}
		return ReferenceSubscription, id, nil
	case strings.HasPrefix(ref, oneOffPrefix):
		ts := strings.TrimPrefix(ref, oneOffPrefix)
		if _, err := strconv.ParseInt(ts, 10, 64); err != nil {
			return "", "", ErrMalformedReference
		}
		return ReferenceOneOff, ts, nil
	}
	return "", "", ErrMalformedReference
}
