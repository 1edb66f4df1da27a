package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pqkit/pqkit/falcon"
	"github.com/pqkit/pqkit/keystore"
)

// fail prints an error to stderr and returns the exit code for it.
func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

// newFlagSet returns a flag set that reports its own errors.
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// message resolves the message bytes for sign/verify: --in wins when set,
// otherwise the --msg literal is used.
func message(msg, in string) ([]byte, error) {
	if in != "" {
		data, err := os.ReadFile(in)
		if err != nil {
			return nil, fmt.Errorf("read message: %w", err)
		}
		return data, nil
	}
	return []byte(msg), nil
}

func decodeHexFlag(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("--%s is required", name)
	}
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return data, nil
}

func (a *app) cmdSeed(args []string) int {
	fs := newFlagSet("seed")
	passphrase := fs.String("passphrase", "", "derive the seed from this passphrase instead of randomness")
	salt := fs.String("salt", "", "salt for passphrase derivation (min 8 bytes)")
	iterations := fs.Uint("iterations", uint(a.cfg.Backend.StretchIterations), "stretching iterations")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := a.provider()
	if err != nil {
		return fail(err)
	}

	var seed []byte
	if *passphrase != "" {
		seed, err = p.SeedFromPassphrase([]byte(*passphrase), []byte(*salt), uint32(*iterations))
	} else {
		seed, err = p.GenerateSeed()
	}
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(a.out, hex.EncodeToString(seed))
	return 0
}

func (a *app) cmdKeygen(args []string) int {
	fs := newFlagSet("keygen")
	seedHex := fs.String("seed", "", "root seed, hex encoded")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	seed, err := decodeHexFlag("seed", *seedHex)
	if err != nil {
		return fail(err)
	}

	p, err := a.provider()
	if err != nil {
		return fail(err)
	}
	kp, err := p.KeypairFromSeed(seed)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "fingerprint: %s\n", falcon.Fingerprint(kp.PublicKey))
	fmt.Fprintf(a.out, "public:      %s\n", hex.EncodeToString(kp.PublicKey))
	fmt.Fprintf(a.out, "secret:      %s\n", hex.EncodeToString(kp.SecretKey))
	return 0
}

func (a *app) cmdDerive(args []string) int {
	fs := newFlagSet("derive")
	seedHex := fs.String("seed", "", "master seed, hex encoded")
	index := fs.Uint("index", 0, "child index")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	master, err := decodeHexFlag("seed", *seedHex)
	if err != nil {
		return fail(err)
	}

	p, err := a.provider()
	if err != nil {
		return fail(err)
	}
	child, err := p.DeriveChildSeed(master, uint32(*index))
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(a.out, hex.EncodeToString(child))
	return 0
}

func (a *app) cmdSign(args []string) int {
	fs := newFlagSet("sign")
	keyHex := fs.String("key", "", "secret key, hex encoded")
	msg := fs.String("msg", "", "message literal")
	in := fs.String("in", "", "read message from file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	sk, err := decodeHexFlag("key", *keyHex)
	if err != nil {
		return fail(err)
	}
	data, err := message(*msg, *in)
	if err != nil {
		return fail(err)
	}

	p, err := a.provider()
	if err != nil {
		return fail(err)
	}
	sig, err := p.Sign(data, sk)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(a.out, hex.EncodeToString(sig))
	return 0
}

func (a *app) cmdVerify(args []string) int {
	fs := newFlagSet("verify")
	pubHex := fs.String("pub", "", "public key, hex encoded")
	sigHex := fs.String("sig", "", "signature, hex encoded")
	msg := fs.String("msg", "", "message literal")
	in := fs.String("in", "", "read message from file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	pub, err := decodeHexFlag("pub", *pubHex)
	if err != nil {
		return fail(err)
	}
	sig, err := decodeHexFlag("sig", *sigHex)
	if err != nil {
		return fail(err)
	}
	data, err := message(*msg, *in)
	if err != nil {
		return fail(err)
	}

	p, err := a.provider()
	if err != nil {
		return fail(err)
	}
	ok, err := p.Verify(data, sig, pub)
	if err != nil {
		return fail(err)
	}
	if !ok {
		fmt.Fprintln(a.out, "invalid")
		return 1
	}
	fmt.Fprintln(a.out, "valid")
	return 0
}

func (a *app) cmdMnemonic(args []string) int {
	fs := newFlagSet("mnemonic")
	recoverPhrase := fs.String("recover", "", "recover the seed for this mnemonic phrase")
	passphrase := fs.String("passphrase", "", "optional mnemonic passphrase")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	phrase := strings.TrimSpace(*recoverPhrase)
	if phrase == "" {
		var err error
		phrase, err = falcon.NewMnemonic()
		if err != nil {
			return fail(err)
		}
		fmt.Fprintf(a.out, "mnemonic: %s\n", phrase)
	}

	seed, err := falcon.SeedFromMnemonic(phrase, *passphrase)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(a.out, "seed:     %s\n", hex.EncodeToString(seed))
	return 0
}

func (a *app) cmdStore(args []string) int {
	fs := newFlagSet("store")
	seedHex := fs.String("seed", "", "root seed, hex encoded")
	passphrase := fs.String("passphrase", "", "keystore passphrase")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	seed, err := decodeHexFlag("seed", *seedHex)
	if err != nil {
		return fail(err)
	}
	if *passphrase == "" {
		return fail(fmt.Errorf("--passphrase is required"))
	}

	ks, err := keystore.Open(a.cfg.Keystore)
	if err != nil {
		return fail(err)
	}
	fp, err := ks.Store(seed, *passphrase)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(a.out, fp)
	return 0
}

func (a *app) cmdList(args []string) int {
	fs := newFlagSet("list")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keystore.Open(a.cfg.Keystore)
	if err != nil {
		return fail(err)
	}
	for _, fp := range ks.Fingerprints() {
		fmt.Fprintln(a.out, fp)
	}
	return 0
}
