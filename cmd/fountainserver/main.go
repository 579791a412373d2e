// Command fountainserver answers fountain protocol requests for a single
// source file, per §6's server CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gofountain/fountain/pkg/config"
	"github.com/gofountain/fountain/pkg/server"
)

const (
	defaultIP      = "0.0.0.0"
	defaultPort    = 2534
	minBlockSize   = 128
	maxBlockSize   = 16384
	int16Max       = 32767
	defaultSection = 256
)

func main() {
	blockSize := flag.Int("b", 0, "block size in bytes (default: auto, see section-size selection)")
	flag.IntVar(blockSize, "blocksize", 0, "alias for -b")
	ip := flag.String("i", defaultIP, "bind IP address")
	flag.StringVar(ip, "ip", defaultIP, "alias for -i")
	port := flag.Int("p", defaultPort, "bind UDP port")
	flag.IntVar(port, "port", defaultPort, "alias for -p")
	latencyMS := flag.Int("L", 0, "inject artificial response latency in milliseconds (debug)")
	flag.IntVar(latencyMS, "latency", 0, "alias for -L")
	configPath := flag.String("c", "", "optional INI config file")
	flag.StringVar(configPath, "config", "", "alias for -c")
	verbose := flag.Bool("v", false, "raise log level to Debug")
	flag.BoolVar(verbose, "verbose", false, "alias for -v")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: fountainserver [options] FILE")
		flag.PrintDefaults()
		os.Exit(1)
	}
	filePath := flag.Arg(0)

	if *configPath != "" {
		cfg, err := config.LoadServer(*configPath)
		if err != nil {
			log.Fatalf("[SERVER] failed to load config %q: %v", *configPath, err)
		}
		*blockSize = config.OverrideInt(*blockSize, cfg.BlockSize, 0)
		*ip = config.OverrideString(*ip, cfg.IP)
		*port = config.OverrideInt(*port, cfg.Port, defaultPort)
		*latencyMS = config.OverrideInt(*latencyMS, cfg.LatencyMS, 0)
	}

	file, err := os.Open(filePath)
	if err != nil {
		log.Fatalf("[SERVER] cannot open %q: %v", filePath, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		log.Fatalf("[SERVER] cannot stat %q: %v", filePath, err)
	}
	filesize := info.Size()

	blk, err := resolveBlockSize(*blockSize, filesize)
	if err != nil {
		log.Fatalf("[SERVER] %v", err)
	}
	sectionSize := defaultSection

	addr := &net.UDPAddr{IP: net.ParseIP(*ip), Port: *port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		log.Fatalf("[SERVER] cannot bind %s:%d: %v", *ip, *port, err)
	}

	srv := server.New(conn, file, filesize, info.Name(), sectionSize, blk, time.Duration(*latencyMS)*time.Millisecond)
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("[SERVER] serving %q (%d bytes) on %s:%d, section_size=%d blk_size=%d",
		info.Name(), filesize, *ip, *port, sectionSize, blk)

	if err := srv.Serve(ctx); err != nil {
		log.Fatalf("[SERVER] serve loop exited: %v", err)
	}
	log.Infof("[SERVER] shutting down: %v", srv.Stats())
}

// resolveBlockSize implements §4.9: if the user did not supply a block
// size, start at 128 bytes and double until filesize/blk_size fits in an
// int16, failing if that passes maxBlockSize. A user-supplied size is only
// checked against maxBlockSize.
func resolveBlockSize(userBlockSize int, filesize int64) (int, error) {
	if userBlockSize > 0 {
		if userBlockSize > maxBlockSize {
			return 0, fmt.Errorf("block size %d exceeds maximum %d", userBlockSize, maxBlockSize)
		}
		return userBlockSize, nil
	}
	blk := minBlockSize
	for filesize/int64(blk) > int16Max {
		blk *= 2
		if blk > maxBlockSize {
			return 0, fmt.Errorf("file too large to fit within max block size %d", maxBlockSize)
		}
	}
	return blk, nil
}
