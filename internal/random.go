package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

const (
	ticketSecretSize = 32
	ticketRawSize    = 16 + ticketSecretSize
)

func NewTicketSecret() ([ticketSecretSize]byte, error) {
	var secret [ticketSecretSize]byte
	_, err := rand.Read(secret[:])
	return secret, err
}

func DigestTicketSecret(secret [ticketSecretSize]byte) [32]byte {
	return sha256.Sum256(secret[:])
}

func EncodeTicket(identityID string, secret [ticketSecretSize]byte) (string, error) {
	id, err := uuid.Parse(identityID)
	if err != nil {
		return "", err
	}

	var raw [ticketRawSize]byte
	copy(raw[:len(id)], id[:])
	copy(raw[len(id):], secret[:])

	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

func DecodeTicket(ticket string) (string, [ticketSecretSize]byte, error) {
	var secret [ticketSecretSize]byte

	raw, err := base64.RawURLEncoding.DecodeString(ticket)
	if err != nil {
		return "", secret, err
	}
	if len(raw) != ticketRawSize {
		return "", secret, errors.New("invalid ticket size")
	}

	var id uuid.UUID
	copy(id[:], raw[:len(id)])
	copy(secret[:], raw[len(id):])

	return id.String(), secret, nil
}
