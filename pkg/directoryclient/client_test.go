package directoryclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestGetMember_DecodesTypedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/members/M1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"M1","name":"Alice","email":"alice@example.com"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	member, err := client.GetMember(context.Background(), "M1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if member.Email != "alice@example.com" {
		t.Fatalf("unexpected member %+v", member)
	}
}

func TestGetMember_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	_, err := client.GetMember(context.Background(), "missing")
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestGetMember_ContactMissingIsExplicit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"M1","name":"Alice","email":""}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	_, err := client.GetMember(context.Background(), "M1")
	if !errors.Is(err, ErrContactMissing) {
		t.Fatalf("expected ErrContactMissing, got %v", err)
	}
}

func TestGetMember_ServerErrorIsCommunicationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	_, err := client.GetMember(context.Background(), "M1")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrMemberNotFound) || errors.Is(err, ErrContactMissing) {
		t.Fatalf("expected communication error, got %v", err)
	}
}
