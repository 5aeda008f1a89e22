package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
)

const defaultConfig = "./farm.toml"

type command struct {
	name    string
	summary string
	run     func(env *cliEnv, args []string) error
}

var commands = []command{
	{"init", "initialise the farm from the [farm] config section", runInit},
	{"add-pool", "register a staking token", runAddPool},
	{"set-weight", "change a pool's allocation weight", runSetWeight},
	{"set-rate", "change the global reward rate", runSetRate},
	{"transfer-ownership", "hand the administrator role to another account", runTransferOwnership},
	{"mint", "credit tokens to an account on the local ledger", runMint},
	{"balance", "show an account's ledger balance", runBalance},
	{"deposit", "stake tokens into a pool", runDeposit},
	{"withdraw", "unstake tokens from a pool", runWithdraw},
	{"harvest", "claim pending reward", runHarvest},
	{"emergency-withdraw", "return principal and forfeit pending reward", runEmergencyWithdraw},
	{"pending", "show the reward an account could harvest", runPending},
	{"pools", "list pools and farm totals", runPools},
	{"export", "export payout records from the audit database", runExport},
	{"serve", "serve the read-only HTTP API", runServe},
}

// cliEnv carries the process streams so commands can be exercised in tests.
type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	env := &cliEnv{stdout: stdout, stderr: stderr}
	if len(args) < 1 {
		usage(stderr)
		return 2
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		if err := cmd.run(env, args[1:]); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return 0
			}
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: farmctl <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-20s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Every command accepts --config (default "+defaultConfig+").")
}
