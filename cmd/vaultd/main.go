package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ether-vault/go-keystore/internal/config"
	"ether-vault/go-keystore/internal/platform/privacylog"
	"ether-vault/go-keystore/internal/rpc"
	"ether-vault/go-keystore/internal/vault"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	rpcAddr := flag.String("rpc-addr", "", "JSON-RPC listen address")
	configPath := flag.String("config", "", "Path to config.yaml (optional)")
	vaultDir := flag.String("vault-dir", "", "Directory for keystore records (optional)")
	rpcToken := flag.String("rpc-token", "", "RPC token for Authorization/X-EVault-RPC-Token (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("vaultd version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	slog.SetDefault(slog.New(privacylog.WrapHandler(slog.NewTextHandler(os.Stderr, nil))))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadFromPath(*configPath)
	if *rpcAddr != "" {
		cfg.RPC.Addr = *rpcAddr
	}
	if *vaultDir != "" {
		cfg.Vault.Dir = *vaultDir
	}
	if *rpcToken != "" {
		cfg.RPC.Token = *rpcToken
	}

	store, err := vault.NewStore(cfg.Vault.Backend, cfg.Vault.Dir, cfg.Vault.Service)
	if err != nil {
		log.Fatalf("vaultd failed to open vault: %v", err)
	}

	srv := rpc.NewServer(cfg, rpc.NewService(cfg, store))
	log.Println("vaultd starting")
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("vaultd failed: %v", err)
	}
	log.Println("vaultd stopped")
}
