package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabhiso/reader-api/util"
)

func testConf(secret, issuer string) *util.AppConfig {
	conf := &util.AppConfig{}
	conf.Conf.AuthSecret = secret
	conf.Conf.AuthIssuer = issuer
	return conf
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	v := NewVerifier(testConf("test-secret-at-least-32-characters", "reader-api"))
	readerID := uuid.New()

	token, err := v.IssueToken(readerID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	got, err := v.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if got != readerID {
		t.Errorf("VerifyToken returned %s, want %s", got, readerID)
	}
}

func TestVerifyTokenRejectsInvalid(t *testing.T) {
	v := NewVerifier(testConf("test-secret-at-least-32-characters", "reader-api"))
	readerID := uuid.New()

	expired, err := v.IssueToken(readerID, -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	otherIssuer := NewVerifier(testConf("test-secret-at-least-32-characters", "someone-else"))
	wrongIssuer, err := otherIssuer.IssueToken(readerID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	otherSecret := NewVerifier(testConf("another-secret-of-sufficient-length", "reader-api"))
	wrongSecret, err := otherSecret.IssueToken(readerID, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not.a.jwt"},
		{"expired token", expired},
		{"wrong issuer", wrongIssuer},
		{"wrong secret", wrongSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.VerifyToken(tt.token); err == nil {
				t.Errorf("VerifyToken(%s) succeeded, want error", tt.name)
			}
		})
	}
}
