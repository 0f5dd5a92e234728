package dispatch

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeResponse_Flat(t *testing.T) {
	res, err := NormalizeResponse([]byte(`{"success":true,"message":"Order saved successfully"}`), 200)
	if err != nil {
		t.Fatalf("NormalizeResponse error: %v", err)
	}
	if !res.OK {
		t.Fatalf("OK = false, want true")
	}
	if res.Message != "Order saved successfully" {
		t.Fatalf("Message = %q", res.Message)
	}
}

func TestNormalizeResponse_FlatError(t *testing.T) {
	res, err := NormalizeResponse([]byte(`{"success":false,"error":"Invalid email address"}`), 400)
	if err != nil {
		t.Fatalf("NormalizeResponse error: %v", err)
	}
	if res.OK {
		t.Fatalf("OK = true, want false")
	}
	if res.Err != "Invalid email address" {
		t.Fatalf("Err = %q", res.Err)
	}
}

func TestNormalizeResponse_EnvelopeObjectBody(t *testing.T) {
	raw := []byte(`{"statusCode":200,"body":{"success":true,"message":"done"}}`)

	res, err := NormalizeResponse(raw, 200)
	if err != nil {
		t.Fatalf("NormalizeResponse error: %v", err)
	}
	if !res.OK || res.Message != "done" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestNormalizeResponse_EnvelopeStringBody(t *testing.T) {
	raw := []byte(`{"statusCode":400,"body":"{\"success\":false,\"error\":\"No files uploaded\"}"}`)

	res, err := NormalizeResponse(raw, 200)
	if err != nil {
		t.Fatalf("NormalizeResponse error: %v", err)
	}
	if res.OK {
		t.Fatalf("OK = true, want false: envelope status must win")
	}
	if res.Err != "No files uploaded" {
		t.Fatalf("Err = %q", res.Err)
	}
}

func TestNormalizeResponse_EnvelopePlainStringBody(t *testing.T) {
	raw := []byte(`{"statusCode":200,"body":"accepted"}`)

	res, err := NormalizeResponse(raw, 200)
	if err != nil {
		t.Fatalf("NormalizeResponse error: %v", err)
	}
	if !res.OK || res.Message != "accepted" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestNormalizeResponse_Malformed(t *testing.T) {
	raw := []byte("<html>502 Bad Gateway" + strings.Repeat("x", 600))

	_, err := NormalizeResponse(raw, 502)

	var malformed *MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedResponseError, got %v", err)
	}
	if len(malformed.Snippet) != snippetLimit {
		t.Fatalf("snippet length = %d, want %d", len(malformed.Snippet), snippetLimit)
	}
	if !strings.HasPrefix(malformed.Snippet, "<html>") {
		t.Fatalf("snippet must keep the raw prefix, got %q", malformed.Snippet[:20])
	}
}
