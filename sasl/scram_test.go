package sasl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xdg-go/scram"
)

// newScramServer builds a server-side conversation that knows one user,
// derived from the same password the engine under test will use.
func newScramServer(t *testing.T, gen scram.HashGeneratorFcn, user, pass string) *scram.ServerConversation {
	t.Helper()

	client, err := gen.NewClient(user, pass, "")
	require.NoError(t, err, "scram client for credential derivation")
	stored := client.GetStoredCredentials(scram.KeyFactors{Salt: "0123456789abcdef", Iters: 4096})

	server, err := gen.NewServer(func(name string) (scram.StoredCredentials, error) {
		return stored, nil
	})
	require.NoError(t, err, "scram server setup")
	return server.NewConversation()
}

// TestScramEngine_FullExchange verifies a three-token SCRAM-SHA-256
// conversation against a real server conversation, including server
// signature verification on the final round.
func TestScramEngine_FullExchange(t *testing.T) {
	identity := &IdentityContext{Principal: "alice", Service: "kafka", Host: "broker1.example.com"}
	engine, err := NewScramEngine(MechScramSHA256, NewCallbackResolver([]byte("hunter2")), identity)
	require.NoError(t, err)
	assert.Equal(t, MechScramSHA256, engine.Mechanism())
	server := newScramServer(t, scram.SHA256, "alice", "hunter2")

	// client-first
	clientFirst, err := engine.EvaluateChallenge(nil)
	require.NoError(t, err, "client-first")
	require.NotEmpty(t, clientFirst)
	require.False(t, engine.Complete(), "complete after client-first")

	// server-first, client-final
	serverFirst, err := server.Step(string(clientFirst))
	require.NoError(t, err, "server-first")
	clientFinal, err := engine.EvaluateChallenge([]byte(serverFirst))
	require.NoError(t, err, "client-final")

	// server-final closes the exchange; the engine must verify the
	// server signature before reporting completion
	serverFinal, err := server.Step(string(clientFinal))
	require.NoError(t, err, "server-final")
	_, err = engine.EvaluateChallenge([]byte(serverFinal))
	require.NoError(t, err, "server-final evaluation")

	assert.True(t, engine.Complete(), "engine complete after server-final")
	assert.True(t, server.Valid(), "server accepted the client proof")
}

// TestScramEngine_BadServerSignature verifies a forged server-final
// message fails the handshake instead of completing it.
func TestScramEngine_BadServerSignature(t *testing.T) {
	identity := &IdentityContext{Principal: "alice", Service: "kafka", Host: "broker1.example.com"}
	engine, err := NewScramEngine(MechScramSHA256, NewCallbackResolver([]byte("hunter2")), identity)
	require.NoError(t, err)
	server := newScramServer(t, scram.SHA256, "alice", "hunter2")

	clientFirst, err := engine.EvaluateChallenge(nil)
	require.NoError(t, err, "client-first")
	serverFirst, err := server.Step(string(clientFirst))
	require.NoError(t, err, "server-first")
	_, err = engine.EvaluateChallenge([]byte(serverFirst))
	require.NoError(t, err, "client-final")

	_, err = engine.EvaluateChallenge([]byte("v=Zm9yZ2VkIHNpZ25hdHVyZQ=="))
	assert.Error(t, err, "forged server signature must not verify")
	assert.False(t, engine.Complete())
}

// TestScramEngine_SHA512 verifies the SHA-512 variant negotiates too.
func TestScramEngine_SHA512(t *testing.T) {
	identity := &IdentityContext{Principal: "alice", Service: "kafka", Host: "broker1.example.com"}
	engine, err := NewScramEngine(MechScramSHA512, NewCallbackResolver([]byte("hunter2")), identity)
	require.NoError(t, err)
	assert.Equal(t, MechScramSHA512, engine.Mechanism())
	server := newScramServer(t, scram.SHA512, "alice", "hunter2")

	clientFirst, err := engine.EvaluateChallenge(nil)
	require.NoError(t, err, "client-first")
	serverFirst, err := server.Step(string(clientFirst))
	require.NoError(t, err, "server-first")
	clientFinal, err := engine.EvaluateChallenge([]byte(serverFirst))
	require.NoError(t, err, "client-final")
	serverFinal, err := server.Step(string(clientFinal))
	require.NoError(t, err, "server-final")
	_, err = engine.EvaluateChallenge([]byte(serverFinal))
	require.NoError(t, err, "server-final evaluation")

	assert.True(t, engine.Complete())
	assert.True(t, server.Valid())
}

// TestScramEngine_UnknownMechanism verifies construction rejects
// mechanisms outside the SCRAM family.
func TestScramEngine_UnknownMechanism(t *testing.T) {
	identity := &IdentityContext{Principal: "alice", Service: "kafka", Host: "broker1.example.com"}
	_, err := NewScramEngine("SCRAM-SHA-1", NewCallbackResolver([]byte("x")), identity)
	assert.Error(t, err)
}
