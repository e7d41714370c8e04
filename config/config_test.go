package config

import (
	"strings"
	"testing"
)

func TestPineconeValidate(t *testing.T) {
	cfg := PineconeConfig{APIKey: "k", IndexHost: "https://idx.pinecone.io"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (PineconeConfig{APIKey: "k"}).Validate(); err == nil {
		t.Fatalf("missing index host must fail validation")
	}
	if err := (PineconeConfig{IndexHost: "h"}).Validate(); err == nil {
		t.Fatalf("missing api key must fail validation")
	}
}

func TestConversationValidate(t *testing.T) {
	if err := (ConversationConfig{DefaultThreshold: 0.3}).Validate(); err != nil {
		t.Fatalf("valid threshold rejected: %v", err)
	}
	if err := (ConversationConfig{DefaultThreshold: 1.1}).Validate(); err == nil {
		t.Fatalf("threshold above 1 must fail validation")
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{URL: "postgres://u:p@h:5432/db?sslmode=disable"}
	dsn, err := p.DSN()
	if err != nil || dsn != p.URL {
		t.Fatalf("url must pass through, got %q err %v", dsn, err)
	}

	p = PostgresConfig{Host: "localhost", User: "u", Password: "p", DBName: "ragchat"}
	dsn, err = p.DSN()
	if err != nil {
		t.Fatalf("discrete fields: %v", err)
	}
	if !strings.Contains(dsn, ":5432/") || !strings.Contains(dsn, "sslmode=disable") {
		t.Fatalf("defaults not applied: %q", dsn)
	}

	if _, err := (PostgresConfig{}).DSN(); err == nil {
		t.Fatalf("missing host/dbname must fail")
	}
}
