package fileurl

import (
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

func parse(t *testing.T, signed string) (fileID, expires, sig string) {
	t.Helper()
	u, err := url.Parse(signed)
	if err != nil {
		t.Fatalf("parse %q: %v", signed, err)
	}
	parts := strings.Split(u.Path, "/")
	return parts[len(parts)-1], u.Query().Get("expires"), u.Query().Get("sig")
}

func TestSignAndVerify(t *testing.T) {
	signed := SignURL("abc123", "secret", time.Hour)
	fileID, expires, sig := parse(t, signed)

	if fileID != "abc123" {
		t.Fatalf("fileID = %q", fileID)
	}
	if !Verify(fileID, expires, sig, "secret") {
		t.Fatal("freshly signed URL failed verification")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	signed := SignURL("abc123", "secret", time.Hour)
	fileID, expires, sig := parse(t, signed)

	if Verify("other-file", expires, sig, "secret") {
		t.Fatal("signature accepted for a different file")
	}
	if Verify(fileID, expires, sig, "wrong-secret") {
		t.Fatal("signature accepted with a different secret")
	}
	if Verify(fileID, expires, sig+"00", "secret") {
		t.Fatal("mangled signature accepted")
	}
	if Verify(fileID, "not-a-number", sig, "secret") {
		t.Fatal("unparseable expiry accepted")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	signed := SignURL("abc123", "secret", -time.Minute)
	fileID, expires, sig := parse(t, signed)

	if Verify(fileID, expires, sig, "secret") {
		t.Fatal("expired URL accepted")
	}
}

func TestVerifyRejectsExtendedExpiry(t *testing.T) {
	signed := SignURL("abc123", "secret", -time.Minute)
	fileID, _, sig := parse(t, signed)

	// Pushing the expiry forward invalidates the signature.
	future := strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10)
	if Verify(fileID, future, sig, "secret") {
		t.Fatal("forged expiry accepted")
	}
}
