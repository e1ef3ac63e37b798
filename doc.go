// Package brokerauth secures a client's network connection to a broker
// before application traffic flows: SASL/GSSAPI authentication driven
// from a caller-owned event loop, and TLS built from keystore and
// truststore configuration.
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  network/      Handshake state machine, framing,        │
//	│                TLS engine factory                       │
//	├─────────────────────────────────────────────────────────┤
//	│  sasl/         Mechanism engines (PLAIN, SCRAM, GSSAPI) │
//	│                and the credential callback resolver     │
//	├─────────────────────────────────────────────────────────┤
//	│  crypto/tls, gokrb5, go-krb5, xdg-go/scram (external)   │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	identity := &sasl.IdentityContext{
//	    Principal: "alice@EXAMPLE.COM",
//	    Realm:     "EXAMPLE.COM",
//	    Service:   "kafka",
//	    Host:      "broker1.example.com",
//	}
//	resolver := sasl.NewCallbackResolver(nil) // ticket cache supplies the secret
//	engine, err := sasl.NewEngine(sasl.MechGSSAPI,
//	    sasl.KerberosConfig{CCachePath: "/tmp/krb5cc_1000"}, resolver, identity)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	auth := network.NewSaslAuthenticator(engine, transport, identity, nil)
//	defer auth.Close()
//	for !auth.IsComplete() {
//	    interest, err := auth.Step(canRead, canWrite)
//	    // wait for interest on the connection, then step again
//	}
//
// One authenticator serves exactly one connection and is stepped only
// from that connection's readiness notifications; it never blocks and
// holds no locks.
package brokerauth
