package sasl

import (
	"errors"
	"strings"
	"testing"
)

// TestIdentityContext_Validate verifies the required-field checks.
func TestIdentityContext_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ctx     IdentityContext
		wantErr bool
	}{
		{
			name: "complete",
			ctx:  IdentityContext{Principal: "alice", Service: "kafka", Host: "broker1.example.com"},
		},
		{
			name:    "missing principal",
			ctx:     IdentityContext{Service: "kafka", Host: "broker1.example.com"},
			wantErr: true,
		},
		{
			name:    "missing service",
			ctx:     IdentityContext{Principal: "alice", Host: "broker1.example.com"},
			wantErr: true,
		},
		{
			name:    "missing host",
			ctx:     IdentityContext{Principal: "alice", Service: "kafka"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// TestIdentityContext_SPN verifies service principal name construction.
func TestIdentityContext_SPN(t *testing.T) {
	ctx := IdentityContext{Service: "kafka", Host: "broker1.example.com"}
	if got := ctx.SPN(); got != "kafka/broker1.example.com" {
		t.Errorf("SPN() = %q, want %q", got, "kafka/broker1.example.com")
	}
}

// TestIdentityContext_EffectiveServerRealm verifies the explicit override
// wins and the client realm is the fallback.
func TestIdentityContext_EffectiveServerRealm(t *testing.T) {
	ctx := IdentityContext{Realm: "CLIENT.EXAMPLE.COM"}
	if got := ctx.EffectiveServerRealm(); got != "CLIENT.EXAMPLE.COM" {
		t.Errorf("EffectiveServerRealm() = %q, want client realm", got)
	}

	ctx.ServerRealm = "BROKER.EXAMPLE.COM"
	if got := ctx.EffectiveServerRealm(); got != "BROKER.EXAMPLE.COM" {
		t.Errorf("EffectiveServerRealm() = %q, want override", got)
	}
}

// TestIdentityContext_ShortName verifies realm stripping.
func TestIdentityContext_ShortName(t *testing.T) {
	tests := []struct {
		principal string
		want      string
	}{
		{"alice@EXAMPLE.COM", "alice"},
		{"alice", "alice"},
		{"client/host.example.com@EXAMPLE.COM", "client/host.example.com"},
	}
	for _, tt := range tests {
		ctx := IdentityContext{Principal: tt.principal}
		if got := ctx.ShortName(); got != tt.want {
			t.Errorf("ShortName(%q) = %q, want %q", tt.principal, got, tt.want)
		}
	}
}

// TestIdentityContext_ActAs verifies failures inside the scope are
// attributed to the acting principal and remain matchable.
func TestIdentityContext_ActAs(t *testing.T) {
	ctx := IdentityContext{Principal: "alice@EXAMPLE.COM"}

	if err := ctx.ActAs(func() error { return nil }); err != nil {
		t.Fatalf("ActAs(nil-returning fn) = %v, want nil", err)
	}

	err := ctx.ActAs(func() error { return ErrTokenUnderflow })
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrTokenUnderflow) {
		t.Errorf("error lost its identity through attribution: %v", err)
	}
	if want := "as alice: "; !strings.HasPrefix(err.Error(), want) {
		t.Errorf("error = %q, want prefix %q", err.Error(), want)
	}
}

// TestAnonymous verifies the placeholder identity.
func TestAnonymous(t *testing.T) {
	id := Anonymous()
	if !id.IsAnonymous() {
		t.Error("IsAnonymous() = false, want true")
	}
	if id.String() != "ANONYMOUS" {
		t.Errorf("String() = %q, want %q", id.String(), "ANONYMOUS")
	}
	if (Identity{Name: "alice"}).IsAnonymous() {
		t.Error("named identity reported anonymous")
	}
}
