package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gliderlabs/ssh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"rmxp-autotile/internal/editor"
	"rmxp-autotile/internal/maps"
	"rmxp-autotile/internal/server"
)

const (
	defaultAddr = ":2222"
	hostKeyPath = "host_key"
)

func main() {
	docPath := flag.String("doc", "", "document to edit (JSON); empty starts from the default document")
	addr := flag.String("addr", defaultAddr, "listen address, overridden by $PORT")
	hostKey := flag.String("hostkey", hostKeyPath, "SSH host key file, generated when missing")
	neighbors := flag.Bool("neighbors", true, "re-resolve the 8 neighbors of every edited cell")
	save := flag.Bool("save", false, "write the document back to -doc on shutdown")
	level := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", *level).Msg("Unknown log level, using info")
	}

	if err := ensureHostKey(*hostKey); err != nil {
		log.Fatal().Err(err).Msg("Host key error")
	}

	doc := maps.DefaultDocument()
	if *docPath != "" {
		d, err := maps.LoadDocument(*docPath)
		switch {
		case err == nil:
			doc = d
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", *docPath).Msg("Document not found, using default document")
		default:
			log.Fatal().Err(err).Str("path", *docPath).Msg("Could not load document")
		}
	}
	log.Info().Str("doc", doc.Name).Int("width", doc.Width).Int("height", doc.Height).
		Int("layers", len(doc.Layers)).Int("tilesets", len(doc.AttachedTilesets())).Msg("Document loaded")

	loop := editor.NewLoop(doc, *neighbors)
	go loop.Run()

	listenAddr := *addr
	if port := os.Getenv("PORT"); port != "" {
		listenAddr = ":" + port
	}
	sshServer := server.NewSSHServer(listenAddr, *hostKey, loop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("Shutting down")
		sshServer.Close()
	}()

	_, port, _ := net.SplitHostPort(listenAddr)
	log.Info().Msgf("Starting RMXP autotile editor, connect with: ssh -t -p %s YourName@localhost", port)
	err := sshServer.Start()
	loop.Stop()
	if err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		log.Fatal().Err(err).Msg("SSH server error")
	}

	if *save && *docPath != "" {
		if err := doc.Save(*docPath); err != nil {
			log.Fatal().Err(err).Msg("Could not save document")
		}
		log.Info().Str("path", *docPath).Msg("Document saved")
	}
}

func ensureHostKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil // key already exists
	}

	log.Info().Str("path", path).Msg("Generating new host key")
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}

	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}

	pemBlock := &pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: keyBytes,
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return pem.Encode(f, pemBlock)
}
