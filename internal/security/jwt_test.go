package security

import (
	"errors"
	"testing"
	"time"
)

func TestOperatorTokenRoundTrip(t *testing.T) {
	token, err := GenerateOperatorToken("secret", 42, "admin", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, errParse := ParseOperatorToken("secret", token)
	if errParse != nil {
		t.Fatalf("parse: %v", errParse)
	}
	if claims.OperatorID != 42 || claims.Username != "admin" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestOperatorTokenWrongSecret(t *testing.T) {
	token, err := GenerateOperatorToken("secret", 42, "admin", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, errParse := ParseOperatorToken("other", token); !errors.Is(errParse, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", errParse)
	}
}

func TestOperatorTokenExpired(t *testing.T) {
	token, err := GenerateOperatorToken("secret", 42, "admin", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, errParse := ParseOperatorToken("secret", token); !errors.Is(errParse, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", errParse)
	}
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("password stored in clear")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}
