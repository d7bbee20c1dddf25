// Command dialog drives a headless autofill dialog against the sign-in
// token service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/status"

	"github.com/and161185/autofill-glue/internal/adapter"
	"github.com/and161185/autofill-glue/internal/controller"
	"github.com/and161185/autofill-glue/internal/crypto"
	"github.com/and161185/autofill-glue/internal/keyring"
	"github.com/and161185/autofill-glue/internal/model"
	"github.com/and161185/autofill-glue/internal/tokenclient"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const passphraseEnv = "AUTOFILL_PASSPHRASE"

// ---- config ----

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "autofill")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "autofill")
}

func keyringPath() string { return filepath.Join(cfgDir(), "keyring.json") }

type options struct {
	addr       string
	caPath     string
	insecure   bool
	plaintext  bool
	keyring    string
	passphrase string
	timeout    time.Duration
	dev        bool
}

func (o options) openKeyring() (*keyring.Keyring, error) {
	pass := o.passphrase
	if pass == "" {
		pass = os.Getenv(passphraseEnv)
	}
	if pass == "" {
		return nil, fmt.Errorf("keyring passphrase required (-passphrase or $%s)", passphraseEnv)
	}
	return keyring.Open(o.keyring, []byte(pass))
}

func (o options) dial(ctx context.Context, keys tokenclient.Secrets, log *zap.Logger) (*tokenclient.Client, func(), error) {
	creds, err := tokenclient.LoadTLS(o.caPath, o.insecure, o.plaintext)
	if err != nil {
		return nil, nil, err
	}
	cc, err := tokenclient.Dial(ctx, o.addr, creds)
	if err != nil {
		return nil, nil, err
	}
	return tokenclient.New(cc, keys, log.Named("tokenclient")), func() { _ = cc.Close() }, nil
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func usage() {
	fmt.Fprintf(os.Stderr, `dialog CLI
Usage:
  dialog -addr HOST:PORT [-cacert file | -insecure | -plaintext] [-keyring file] [-passphrase p] <cmd> [args]

Commands:
  version
  enroll    -u <account> [-p <secret>]        (generates a secret when -p is omitted)
  accounts                                    (lists keyring accounts)
  run       [-account <name>] [-card "name|number|mm|yyyy"]
            [-address "name|line1|city|zip|country"] [-cvc 123] [-same-address]
`)
	os.Exit(2)
}

// ---- main ----

// main dispatches subcommands.
func main() {
	var o options
	flag.StringVar(&o.addr, "addr", "localhost:8443", "token service addr")
	flag.StringVar(&o.caPath, "cacert", "", "CA cert (PEM)")
	flag.BoolVar(&o.insecure, "insecure", false, "skip cert verify (dev)")
	flag.BoolVar(&o.plaintext, "plaintext", false, "connect without TLS (dev)")
	flag.StringVar(&o.keyring, "keyring", keyringPath(), "keyring file")
	flag.StringVar(&o.passphrase, "passphrase", "", "keyring passphrase (default $"+passphraseEnv+")")
	flag.DurationVar(&o.timeout, "timeout", 30*time.Second, "overall deadline and sign-in timeout")
	flag.BoolVar(&o.dev, "dev", false, "development logging to stderr")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	log := zap.NewNop()
	if o.dev {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	var err error
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "version":
		fmt.Printf("dialog %s (%s)\n", version, buildDate)
	case "enroll":
		err = cmdEnroll(ctx, o, args, log)
	case "accounts":
		err = cmdAccounts(o, os.Stdout)
	case "run":
		err = cmdRun(ctx, o, args, log)
	default:
		usage()
	}
	if err != nil {
		fail(err)
	}
}

func cmdEnroll(ctx context.Context, o options, args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("enroll", flag.ExitOnError)
	account := fs.String("u", "", "account name")
	secret := fs.String("p", "", "device secret")
	_ = fs.Parse(args)
	if *account == "" {
		return errors.New("need -u")
	}
	if *secret == "" {
		s, err := crypto.NewDeviceSecret()
		if err != nil {
			return err
		}
		*secret = s
	}

	keys, err := o.openKeyring()
	if err != nil {
		return err
	}
	cli, closeConn, err := o.dial(ctx, keys, log)
	if err != nil {
		return err
	}
	defer closeConn()

	id, err := cli.Enroll(ctx, *account, *secret)
	if err != nil {
		return err
	}
	if err := keys.Put(*account, *secret); err != nil {
		return fmt.Errorf("enrolled as %s but keyring save failed: %w", id, err)
	}
	printJSON(os.Stdout, map[string]string{"account": *account, "account_id": id.String()})
	return nil
}

func cmdAccounts(o options, w io.Writer) error {
	keys, err := o.openKeyring()
	if err != nil {
		return err
	}
	printJSON(w, map[string]any{"device_id": keys.DeviceID(), "accounts": keys.AccountNames()})
	return nil
}

func cmdRun(ctx context.Context, o options, args []string, log *zap.Logger) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	account := fs.String("account", "", "sign in with this keyring account")
	card := fs.String("card", "", `card profile "name|number|mm|yyyy"`)
	address := fs.String("address", "", `address profile "name|line1|city|zip|country"`)
	cvc := fs.String("cvc", "", "CVC to enter before submit")
	same := fs.Bool("same-address", false, "use billing address for shipping")
	_ = fs.Parse(args)

	var cards, addrs []controller.Suggestion
	if *card != "" {
		s, err := parseCard(*card)
		if err != nil {
			return err
		}
		cards = append(cards, s)
	}
	if *address != "" {
		s, err := parseAddress(*address)
		if err != nil {
			return err
		}
		addrs = append(addrs, s)
	}

	keys, err := o.openKeyring()
	if err != nil {
		return err
	}
	cli, closeConn, err := o.dial(ctx, keys, log)
	if err != nil {
		return err
	}
	defer closeConn()

	cfg := adapter.DefaultConfig()
	cfg.SignInTimeout = o.timeout
	s := newSession(cfg, cli, keys, log)
	defer s.close()

	s.offer(model.SectionCC, cards...)
	s.offer(model.SectionCCBilling, cards...)
	s.offer(model.SectionBilling, addrs...)
	s.offer(model.SectionShipping, addrs...)
	s.show()

	if *account != "" {
		if err := s.signIn(ctx, *account); err != nil {
			return err
		}
	}
	s.pickFirst()
	s.submit(*cvc, *same)

	printJSON(os.Stdout, s.result())
	return nil
}

func fail(err error) {
	if s, ok := status.FromError(err); ok {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s msg=%s\n", s.Code(), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
