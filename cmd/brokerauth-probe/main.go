// Command brokerauth-probe connects to a broker, optionally wraps the
// connection in TLS, runs the SASL handshake off a readiness loop, and
// reports the resolved principal.
//
// Password can be provided via:
//   - -pass flag (least secure, visible in process list)
//   - BROKERAUTH_PASSWORD environment variable (recommended)
//   - stdin prompt (if neither flag nor env var is set)
//
// Usage:
//
//	brokerauth-probe -broker <host:port> -mechanism GSSAPI -principal alice@EXAMPLE.COM
//
// Examples:
//
//	# Kerberos from a kinit ticket cache
//	brokerauth-probe -broker broker1.example.com:9093 -mechanism GSSAPI \
//	    -principal alice@EXAMPLE.COM -realm EXAMPLE.COM -ccache /tmp/krb5cc_1000
//
//	# SCRAM over TLS with a PEM truststore
//	export BROKERAUTH_PASSWORD='secret'
//	brokerauth-probe -broker broker1.example.com:9093 -mechanism SCRAM-SHA-256 \
//	    -principal alice -tls -truststore ca.pem -truststore-pass changeit
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/term"

	ilog "github.com/smnsjas/go-brokerauth/internal/log"
	"github.com/smnsjas/go-brokerauth/network"
	"github.com/smnsjas/go-brokerauth/sasl"
)

func main() {
	broker := flag.String("broker", "", "broker address as host:port")
	mechanism := flag.String("mechanism", sasl.MechGSSAPI, "SASL mechanism (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512, GSSAPI)")
	principal := flag.String("principal", "", "local principal name")
	realm := flag.String("realm", "", "Kerberos realm (e.g. EXAMPLE.COM)")
	serverRealm := flag.String("server-realm", "", "realm of the broker's service principal, when it differs")
	service := flag.String("service", "kafka", "target service principal's service part")
	password := flag.String("pass", "", "password (use BROKERAUTH_PASSWORD env var instead)")
	krb5Conf := flag.String("krb5conf", "", "path to krb5.conf")
	keytabPath := flag.String("keytab", "", "path to a keytab file")
	ccache := flag.String("ccache", "", "path to a Kerberos credential cache (e.g. /tmp/krb5cc_1000)")
	krbBackend := flag.String("krb-backend", "", "Kerberos backend (gokrb5 or pure)")
	useTLS := flag.Bool("tls", false, "wrap the connection in TLS before authenticating")
	truststore := flag.String("truststore", "", "truststore path (PEM or PKCS12)")
	truststoreType := flag.String("truststore-type", "", "truststore type (PEM or PKCS12)")
	truststorePass := flag.String("truststore-pass", "", "truststore password")
	timeout := flag.Duration("timeout", 30*time.Second, "handshake timeout")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := ilog.New(os.Stderr, level)

	if *broker == "" || *principal == "" {
		fmt.Fprintln(os.Stderr, "both -broker and -principal are required")
		flag.Usage()
		os.Exit(2)
	}
	host, portStr, err := net.SplitHostPort(*broker)
	if err != nil {
		fatal(logger, "invalid broker address", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		fatal(logger, "invalid broker port", err)
	}

	identity := &sasl.IdentityContext{
		Principal:   *principal,
		Realm:       *realm,
		ServerRealm: *serverRealm,
		Service:     *service,
		Host:        host,
	}

	secret := resolveSecret(*mechanism, *password, *keytabPath, *ccache)
	resolver := sasl.NewCallbackResolver(secret)

	engine, err := sasl.NewEngine(*mechanism, sasl.KerberosConfig{
		Backend:      *krbBackend,
		Krb5ConfPath: *krb5Conf,
		KeytabPath:   *keytabPath,
		CCachePath:   *ccache,
	}, resolver, identity)
	if err != nil {
		fatal(logger, "engine setup failed", err)
	}

	conn, err := net.DialTimeout("tcp", *broker, *timeout)
	if err != nil {
		fatal(logger, "dial failed", err)
	}
	defer conn.Close()

	var transport *network.NetTransport
	if *useTLS {
		factory := network.NewTLSFactory(network.ModeClient)
		options := map[string]any{}
		if *truststore != "" {
			options[network.ConfigTruststoreLocation] = *truststore
			options[network.ConfigTruststorePassword] = *truststorePass
			if *truststoreType != "" {
				options[network.ConfigTruststoreType] = *truststoreType
			}
		}
		if err := factory.Configure(options); err != nil {
			fatal(logger, "tls configuration failed", err)
		}
		tlsEngine, err := factory.CreateEngine(host, port)
		if err != nil {
			fatal(logger, "tls engine creation failed", err)
		}
		transport = network.WrapTLS(conn, tlsEngine.Config())
	} else {
		transport = network.NewNetTransport(conn)
	}

	auth := network.NewSaslAuthenticator(engine, transport, identity, logger)
	defer auth.Close()

	if err := drive(auth, *timeout); err != nil {
		fatal(logger, "handshake failed", err)
	}

	fmt.Printf("authenticated to %s as %s via %s\n", *broker, auth.Principal(), engine.Mechanism())
}

// drive steps the authenticator until it finishes. A real client would
// plug Step into its poller; here a tiny sleep loop stands in for one.
func drive(auth *network.SaslAuthenticator, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	canRead, canWrite := false, true
	for {
		interest, err := auth.Step(canRead, canWrite)
		if err != nil {
			return err
		}
		if interest == network.InterestNone {
			if auth.IsComplete() {
				return nil
			}
			return fmt.Errorf("handshake ended without completing")
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("handshake timed out waiting for %s readiness", interest)
		}
		// pretend the poller woke us with exactly the readiness we asked for
		canRead = interest == network.InterestRead
		canWrite = interest == network.InterestWrite
		time.Sleep(10 * time.Millisecond)
	}
}

// resolveSecret picks the password source. Kerberos with a keytab or
// ccache needs none; everything else falls back to env then prompt.
func resolveSecret(mechanism, flagPass, keytabPath, ccache string) []byte {
	if flagPass != "" {
		return []byte(flagPass)
	}
	if env := os.Getenv("BROKERAUTH_PASSWORD"); env != "" {
		return []byte(env)
	}
	if mechanism == sasl.MechGSSAPI && (keytabPath != "" || ccache != "") {
		return nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil || len(pw) == 0 {
		return nil
	}
	return pw
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
