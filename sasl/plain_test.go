package sasl

import (
	"bytes"
	"errors"
	"testing"
)

func plainIdentity() *IdentityContext {
	return &IdentityContext{
		Principal: "alice@EXAMPLE.COM",
		Service:   "kafka",
		Host:      "broker1.example.com",
	}
}

// TestPlainEngine_SingleRound verifies the one-round exchange and its
// wire form: authzid NUL authcid NUL passwd.
func TestPlainEngine_SingleRound(t *testing.T) {
	engine, err := NewPlainEngine(NewCallbackResolver([]byte("hunter2")), plainIdentity())
	if err != nil {
		t.Fatalf("NewPlainEngine failed: %v", err)
	}
	if engine.Mechanism() != MechPlain {
		t.Errorf("Mechanism() = %q, want %q", engine.Mechanism(), MechPlain)
	}
	if engine.Complete() {
		t.Fatal("engine complete before the first round")
	}

	token, err := engine.EvaluateChallenge(nil)
	if err != nil {
		t.Fatalf("EvaluateChallenge failed: %v", err)
	}
	want := []byte("alice\x00alice\x00hunter2")
	if !bytes.Equal(token, want) {
		t.Errorf("token = %q, want %q", token, want)
	}
	if !engine.Complete() {
		t.Error("engine not complete after the initial response")
	}
}

// TestPlainEngine_RejectsServerChallenge verifies a non-empty challenge
// is a protocol violation.
func TestPlainEngine_RejectsServerChallenge(t *testing.T) {
	engine, err := NewPlainEngine(NewCallbackResolver([]byte("hunter2")), plainIdentity())
	if err != nil {
		t.Fatalf("NewPlainEngine failed: %v", err)
	}
	if _, err := engine.EvaluateChallenge([]byte("surprise")); err == nil {
		t.Error("expected error for unexpected server challenge")
	}
}

// TestPlainEngine_RejectsChallengeAfterCompletion verifies the engine is
// done after one round.
func TestPlainEngine_RejectsChallengeAfterCompletion(t *testing.T) {
	engine, err := NewPlainEngine(NewCallbackResolver([]byte("hunter2")), plainIdentity())
	if err != nil {
		t.Fatalf("NewPlainEngine failed: %v", err)
	}
	if _, err := engine.EvaluateChallenge(nil); err != nil {
		t.Fatalf("EvaluateChallenge failed: %v", err)
	}
	if _, err := engine.EvaluateChallenge(nil); err == nil {
		t.Error("expected error for challenge after completion")
	}
}

// TestPlainEngine_NoSecret verifies a missing password surfaces the
// descriptive no-secret error.
func TestPlainEngine_NoSecret(t *testing.T) {
	engine, err := NewPlainEngine(NewCallbackResolver(nil), plainIdentity())
	if err != nil {
		t.Fatalf("NewPlainEngine failed: %v", err)
	}
	_, err = engine.EvaluateChallenge(nil)
	var noSecret ErrNoSecret
	if !errors.As(err, &noSecret) {
		t.Errorf("error = %v, want ErrNoSecret", err)
	}
}

// TestPlainEngine_InvalidIdentity verifies construction rejects an
// incomplete identity context.
func TestPlainEngine_InvalidIdentity(t *testing.T) {
	_, err := NewPlainEngine(NewCallbackResolver([]byte("hunter2")), &IdentityContext{Principal: "alice"})
	if err == nil {
		t.Error("expected error for identity without service/host")
	}
}
