package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runOut executes run and returns the exit code and captured stdout.
func runOut(args ...string) (int, string) {
	var buf bytes.Buffer
	code := run(args, &buf)
	return code, buf.String()
}

// field extracts the value of a "name: value" output line.
func field(t *testing.T, output, name string) string {
	t.Helper()
	for _, line := range strings.Split(output, "\n") {
		if rest, ok := strings.CutPrefix(line, name+":"); ok {
			return strings.TrimSpace(rest)
		}
	}
	t.Fatalf("no %q field in output:\n%s", name, output)
	return ""
}

func TestVersion(t *testing.T) {
	code, out := runOut("version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "pqkit") {
		t.Errorf("output = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	if code, _ := runOut("frobnicate"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestNoCommand(t *testing.T) {
	if code, _ := runOut(); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestSeedFromPassphraseDeterministic(t *testing.T) {
	args := []string{"seed", "--passphrase", "hunter2", "--salt", "salty-enough", "--iterations", "10"}
	code, first := runOut(args...)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	_, second := runOut(args...)
	if first != second {
		t.Error("same passphrase inputs produced different seeds")
	}
	if len(strings.TrimSpace(first)) != 96 {
		t.Errorf("seed hex length = %d, want 96", len(strings.TrimSpace(first)))
	}
}

func TestSignVerifyFlow(t *testing.T) {
	code, seedOut := runOut("seed", "--passphrase", "flow", "--salt", "salt-salt", "--iterations", "5")
	if code != 0 {
		t.Fatalf("seed exit code = %d", code)
	}
	seed := strings.TrimSpace(seedOut)

	code, keyOut := runOut("keygen", "--seed", seed)
	if code != 0 {
		t.Fatalf("keygen exit code = %d", code)
	}
	pub := field(t, keyOut, "public")
	sec := field(t, keyOut, "secret")
	if fp := field(t, keyOut, "fingerprint"); fp == "" {
		t.Error("empty fingerprint")
	}

	msgFile := filepath.Join(t.TempDir(), "msg.txt")
	if err := os.WriteFile(msgFile, []byte("signed payload"), 0o600); err != nil {
		t.Fatalf("write message: %v", err)
	}

	code, sigOut := runOut("sign", "--key", sec, "--in", msgFile)
	if code != 0 {
		t.Fatalf("sign exit code = %d", code)
	}
	sig := strings.TrimSpace(sigOut)

	code, verOut := runOut("verify", "--pub", pub, "--sig", sig, "--in", msgFile)
	if code != 0 {
		t.Fatalf("verify exit code = %d, output %q", code, verOut)
	}
	if !strings.Contains(verOut, "valid") {
		t.Errorf("verify output = %q", verOut)
	}

	code, verOut = runOut("verify", "--pub", pub, "--sig", sig, "--msg", "a different payload")
	if code != 1 {
		t.Errorf("tampered verify exit code = %d, want 1", code)
	}
	if !strings.Contains(verOut, "invalid") {
		t.Errorf("tampered verify output = %q", verOut)
	}
}

func TestDeriveDeterministic(t *testing.T) {
	_, seedOut := runOut("seed", "--passphrase", "parent", "--salt", "salt-salt", "--iterations", "5")
	seed := strings.TrimSpace(seedOut)

	code, a := runOut("derive", "--seed", seed, "--index", "3")
	if code != 0 {
		t.Fatalf("derive exit code = %d", code)
	}
	_, b := runOut("derive", "--seed", seed, "--index", "3")
	if a != b {
		t.Error("same (seed, index) produced different children")
	}
	_, c := runOut("derive", "--seed", seed, "--index", "4")
	if a == c {
		t.Error("distinct indices produced identical children")
	}
}

func TestMnemonicRecover(t *testing.T) {
	// First generate a mnemonic, then recover its seed twice.
	code, out := runOut("mnemonic")
	if code != 0 {
		t.Fatalf("mnemonic exit code = %d", code)
	}
	phrase := field(t, out, "mnemonic")
	if got := len(strings.Fields(phrase)); got != 24 {
		t.Fatalf("mnemonic has %d words, want 24", got)
	}

	code, first := runOut("mnemonic", "--recover", phrase)
	if code != 0 {
		t.Fatalf("recover exit code = %d", code)
	}
	_, second := runOut("mnemonic", "--recover", phrase)
	if field(t, first, "seed") != field(t, second, "seed") {
		t.Error("recovery is not deterministic")
	}

	if code, _ := runOut("mnemonic", "--recover", "not a mnemonic"); code != 1 {
		t.Errorf("bad phrase exit code = %d, want 1", code)
	}
}

func TestStoreAndList(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "pqkit.yaml")
	body := fmt.Sprintf("keystore:\n  dir: %s\n  scryptN: 16\n  scryptR: 2\n  scryptP: 1\n",
		filepath.Join(dir, "ks"))
	if err := os.WriteFile(cfgPath, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, seedOut := runOut("--config", cfgPath, "seed", "--passphrase", "stored", "--salt", "salt-salt", "--iterations", "5")
	seed := strings.TrimSpace(seedOut)

	code, fpOut := runOut("--config", cfgPath, "store", "--seed", seed, "--passphrase", "vault pass")
	if code != 0 {
		t.Fatalf("store exit code = %d", code)
	}
	fp := strings.TrimSpace(fpOut)
	if fp == "" {
		t.Fatal("empty fingerprint from store")
	}

	code, listOut := runOut("--config="+cfgPath, "list")
	if code != 0 {
		t.Fatalf("list exit code = %d", code)
	}
	if !strings.Contains(listOut, fp) {
		t.Errorf("list output %q does not contain %q", listOut, fp)
	}
}
