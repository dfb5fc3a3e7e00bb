// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/helper/posix"
	x509certs "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/chain"
	x509crl "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/crl"
	x509verify "github.com/H0llyW00dzZ/x509-trust-verifier/src/internal/x509/verify"
	"github.com/H0llyW00dzZ/x509-trust-verifier/src/logger"
	"github.com/spf13/cobra"
)

var (
	// ErrInputFileRequired indicates that no input certificate was provided.
	ErrInputFileRequired = errors.New("cli: input certificate file is required (use -f or --remote)")

	// ErrNotTrusted indicates that verification completed and the certificate
	// failed it: wrong purpose, untrusted chain, or revoked. It is distinct
	// from faults, where no verdict could be reached at all.
	ErrNotTrusted = errors.New("cli: certificate failed verification")
)

var (
	inputFile    string
	outputFile   string
	remoteAddr   string
	renderFormat string

	anchorFiles []string
	anchorDirs  []string
	cacheDir    string
	engineName  string
	opensslBin  string

	purposeName string
	crlCheck    bool
	crlCheckAll bool
	forceFetch  bool
	timeout     time.Duration
)

var cliLogger logger.Logger = logger.NewCLILogger()

// Execute runs the root command and returns any error that occurs during
// execution, allowing callers to handle exit codes and error reporting.
//
// The root command itself resolves and renders a certificate chain; the
// verify and crl subcommands cover purpose/revocation checks and CRL cache
// management.
func Execute(ctx context.Context, version string) error {
	rootCmd := &cobra.Command{
		Use:           posix.GetExecutableName(),
		Short:         "X.509 certificate chain and revocation verifier",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runChain,
	}

	rootCmd.PersistentFlags().StringVarP(&inputFile, "file", "f", "", "input certificate file (PEM, DER, or PKCS#7)")
	rootCmd.PersistentFlags().StringVarP(&remoteAddr, "remote", "r", "", "fetch the chain from a remote host instead (HOST[:PORT], default port 443)")
	rootCmd.PersistentFlags().StringSliceVarP(&anchorFiles, "anchors", "a", nil, "trust anchor certificate file(s)")
	rootCmd.PersistentFlags().StringSliceVar(&anchorDirs, "anchor-dir", nil, "trust anchor directory(ies)")
	rootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "CRL cache directory (default: per-user temp directory)")
	rootCmd.PersistentFlags().StringVar(&engineName, "engine", "native", "verification engine: native or openssl")
	rootCmd.PersistentFlags().StringVar(&opensslBin, "openssl", "", "path to the openssl binary (openssl engine only)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "network timeout for remote fetches and CRL downloads")

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output to OUTPUT_FILE (default: stdout)")
	rootCmd.Flags().StringVar(&renderFormat, "format", "pem", "chain output format: pem, tree, or table")

	rootCmd.AddCommand(newVerifyCmd(), newCRLCmd())

	return rootCmd.ExecuteContext(ctx)
}

// runChain loads the subject certificates, links them by fingerprint, and
// renders the resulting chain in the requested format.
func runChain(cmd *cobra.Command, args []string) error {
	certs, err := loadSubjects(cmd.Context())
	if err != nil {
		return err
	}

	ordered, err := x509chain.Ancestry(certs[0])
	if err != nil {
		// Incomplete input is still renderable; keep the certificates in
		// the order they arrived and tell the user why.
		cliLogger.Printf("Warning: %v\n", err)
		ordered = certs
	}

	var output string
	switch strings.ToLower(renderFormat) {
	case "pem":
		var sb strings.Builder
		for _, c := range ordered {
			sb.Write(c.EncodePEM())
		}
		output = sb.String()
	case "tree":
		output = x509chain.RenderASCIITree(ordered, nil)
	case "table":
		output = x509chain.RenderTable(ordered, nil)
	default:
		return fmt.Errorf("cli: unknown format %q (expected pem, tree, or table)", renderFormat)
	}

	if outputFile != "" {
		return os.WriteFile(outputFile, []byte(output), 0644)
	}
	fmt.Print(output)
	return nil
}

// newVerifyCmd builds the verify subcommand, which checks a certificate for
// a declared purpose and optionally for revocation against its CRL chain.
func newVerifyCmd() *cobra.Command {
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a certificate's purpose and revocation status",
		RunE:  runVerify,
	}

	verifyCmd.Flags().StringVarP(&purposeName, "purpose", "p", "any", "purpose to verify: any, sslclient, sslserver, smimesign, smimeencrypt, crlsign")
	verifyCmd.Flags().BoolVar(&crlCheck, "crl", false, "check the leaf certificate against its CRL")
	verifyCmd.Flags().BoolVar(&crlCheckAll, "crl-all", false, "check every certificate in the chain against its CRL")

	return verifyCmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	certs, err := loadSubjects(ctx)
	if err != nil {
		return err
	}
	leaf := certs[0]

	purpose, err := x509verify.ParsePurpose(purposeName)
	if err != nil {
		return err
	}

	verifier, err := buildVerifier()
	if err != nil {
		return err
	}

	ok, err := verifier.CheckPurpose(ctx, leaf, purpose)
	if err != nil {
		return err
	}
	cliLogger.Printf("%s: purpose %s: %s\n", leaf.CommonName(), purpose, verdict(ok))
	trusted := ok

	if crlCheck || crlCheckAll {
		unrevoked, err := verifier.CheckCRL(ctx, leaf, crlCheckAll)
		if err != nil {
			return err
		}
		scope := "leaf"
		if crlCheckAll {
			scope = "full chain"
		}
		cliLogger.Printf("%s: revocation (%s): %s\n", leaf.CommonName(), scope, verdict(unrevoked))
		trusted = trusted && unrevoked
	}

	if !trusted {
		return ErrNotTrusted
	}
	return nil
}

func verdict(ok bool) string {
	if ok {
		return "OK"
	}
	return "FAILED"
}

// newCRLCmd builds the crl subcommand group: fetch downloads and caches
// revocation lists, stats reports the process-wide cache counters.
func newCRLCmd() *cobra.Command {
	crlCmd := &cobra.Command{
		Use:   "crl",
		Short: "Manage the CRL cache",
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch [URI...]",
		Short: "Fetch and cache CRLs, from URIs or from a certificate's distribution points",
		RunE:  runCRLFetch,
	}
	fetchCmd.Flags().BoolVar(&forceFetch, "force", false, "refetch even if the cached copy is still fresh")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show CRL cache statistics",
		Run: func(cmd *cobra.Command, args []string) {
			cliLogger.Println(x509crl.GetCacheStats())
		},
	}

	crlCmd.AddCommand(fetchCmd, statsCmd)
	return crlCmd
}

func runCRLFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	uris := args
	if len(uris) == 0 {
		certs, err := loadSubjects(ctx)
		if err != nil {
			return err
		}
		for _, c := range certs {
			if uri, ok := c.CRLDistributionURI(); ok {
				uris = append(uris, uri)
			}
		}
		if len(uris) == 0 {
			return fmt.Errorf("cli: no CRL distribution points found in %d certificate(s)", len(certs))
		}
	}

	client := &http.Client{Timeout: timeout}
	for _, uri := range uris {
		list := x509crl.NewList(uri, x509crl.WithCacheDir(cacheDir), x509crl.WithHTTPClient(client))
		if err := list.Refresh(ctx, forceFetch); err != nil {
			return err
		}

		number, err := list.Number(ctx)
		if err != nil {
			return err
		}
		lastUpdate, err := list.LastUpdate(ctx)
		if err != nil {
			return err
		}
		nextUpdate, err := list.NextUpdate(ctx)
		if err != nil {
			return err
		}
		fingerprint, err := list.Fingerprint(ctx)
		if err != nil {
			return err
		}

		cliLogger.Printf("%s\n", uri)
		cliLogger.Printf("  cached:       %s\n", list.CachePath())
		cliLogger.Printf("  number:       %s\n", number)
		cliLogger.Printf("  last update:  %s\n", lastUpdate.Format(time.RFC3339))
		cliLogger.Printf("  next update:  %s\n", nextUpdate.Format(time.RFC3339))
		cliLogger.Printf("  fingerprint:  %s\n", fingerprint)
	}
	return nil
}

// loadSubjects reads the subject certificates from the input file or fetches
// them from the remote peer, then links issuers by fingerprint. The leaf is
// always the first element.
func loadSubjects(ctx context.Context) ([]*x509chain.Cert, error) {
	if remoteAddr != "" {
		host, port, err := splitRemote(remoteAddr)
		if err != nil {
			return nil, err
		}
		return x509chain.FetchRemoteChain(ctx, host, port, timeout)
	}

	if inputFile == "" {
		return nil, ErrInputFileRequired
	}

	data, err := os.ReadFile(inputFile)
	if err != nil {
		return nil, err
	}

	raw, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return nil, err
	}

	certs := make([]*x509chain.Cert, 0, len(raw))
	for _, c := range raw {
		certs = append(certs, x509chain.NewCert(c))
	}
	x509chain.Build(certs)
	return certs, nil
}

// splitRemote parses HOST[:PORT], defaulting to port 443.
func splitRemote(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 443, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("cli: invalid remote port %q", portStr)
	}
	return host, port, nil
}

// buildVerifier assembles a verifier from the persistent flags: trust
// anchors, engine selection, and cache directory.
func buildVerifier() (*x509verify.Verifier, error) {
	anchors := x509verify.Anchors{Files: anchorFiles, Dirs: anchorDirs}

	var engine x509verify.Engine
	switch strings.ToLower(engineName) {
	case "", "native":
		engine = x509verify.NativeEngine{}
	case "openssl":
		engine = &x509verify.OpenSSLEngine{Binary: opensslBin}
	default:
		return nil, fmt.Errorf("cli: unknown engine %q (expected native or openssl)", engineName)
	}

	verifier := x509verify.New(anchors, engine, cacheDir)
	verifier.HTTPClient = &http.Client{Timeout: timeout}
	return verifier, nil
}
