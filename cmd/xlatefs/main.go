// Command xlatefs mounts a translation overlay filesystem: a read-only
// FUSE view of a backing directory tree, republished under paths drawn
// from a durable translation table, alongside an administrative JSON
// HTTP API for managing that table.
package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/xlatefs/xlatefs/internal/admin"
	"github.com/xlatefs/xlatefs/internal/facade"
	"github.com/xlatefs/xlatefs/internal/fuseserve"
	"github.com/xlatefs/xlatefs/internal/metrics"
	"github.com/xlatefs/xlatefs/internal/store"
	"github.com/xlatefs/xlatefs/internal/xlog"
)

var (
	adminAddr       string
	handleCacheSize int
	negativeStatTTL string
)

func main() {
	root := &cobra.Command{
		Use:   "xlatefs <mountpoint> <backing-root> <store-file> <backup-dir>",
		Short: "Mount a translation overlay filesystem",
		Args:  cobra.ExactArgs(4),
		RunE:  run,
	}
	root.Flags().StringVar(&adminAddr, "admin-addr", "127.0.0.1:6000", "address for the administrative HTTP API")
	root.Flags().IntVar(&handleCacheSize, "handle-cache-size", 0, "open backing-file handle cache capacity (0 = default)")
	root.Flags().StringVar(&negativeStatTTL, "negative-stat-ttl", "2s", "how long a missing backing path is remembered as missing")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	mountpoint, backingRoot, storeFile, backupDir, err := expandArgs(args)
	if err != nil {
		return err
	}

	negTTL, err := time.ParseDuration(negativeStatTTL)
	if err != nil {
		return errors.Wrap(err, "invalid --negative-stat-ttl")
	}

	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create backup directory %q", backupDir)
	}

	ok, err := store.CheckIntegrity(storeFile)
	if err != nil {
		return errors.Wrap(err, "store integrity check failed to run")
	}
	if !ok {
		return errors.Errorf("store %q failed its integrity check; refusing to mount", storeFile)
	}

	st, err := store.Open(storeFile)
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}

	registry := prometheus.NewRegistry()
	fac, err := facade.New(backingRoot, st, facade.Options{
		HandleCacheCapacity: handleCacheSize,
		NegativeStatTTL:     negTTL,
		BackupDir:           backupDir,
		Metrics:             metrics.New(registry),
	})
	if err != nil {
		return errors.Wrap(err, "failed to build facade")
	}
	defer fac.Destroy()

	conn, err := fuse.Mount(mountpoint, fuse.ReadOnly(), fuse.FSName("xlatefs"))
	if err != nil {
		return errors.Wrapf(err, "failed to mount %q", mountpoint)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)

	listener, err := net.Listen("tcp", adminAddr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %q", adminAddr)
	}
	server := &http.Server{Handler: admin.NewRouter(fac, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))}

	group.Go(func() error {
		xlog.Tagged("main").Infof("administrative API listening on %s", adminAddr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		return fs.Serve(conn, &fuseserve.FS{Facade: fac})
	})

	group.Go(func() error {
		return watchSignals(ctx, fac, server, mountpoint)
	})

	return group.Wait()
}

// watchSignals reloads the index on SIGHUP and unmounts cleanly on
// SIGINT/SIGTERM.
func watchSignals(ctx context.Context, fac *facade.Facade, server *http.Server, mountpoint string) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	log := xlog.Tagged("main")
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-sig:
			switch s {
			case syscall.SIGHUP:
				log.Info("SIGHUP received, reloading translation table")
				if err := fac.Reload(); err != nil {
					log.WithError(err).Error("reload failed")
				}
			default:
				log.Infof("%s received, shutting down", s)
				_ = server.Shutdown(context.Background())
				return fuse.Unmount(mountpoint)
			}
		}
	}
}

func expandArgs(args []string) (mountpoint, backingRoot, storeFile, backupDir string, err error) {
	expanded := make([]string, 4)
	for i, a := range args {
		expanded[i], err = homedir.Expand(a)
		if err != nil {
			return "", "", "", "", errors.Wrapf(err, "failed to expand %q", a)
		}
	}
	return expanded[0], expanded[1], expanded[2], expanded[3], nil
}
