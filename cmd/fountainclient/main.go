// Command fountainclient negotiates file metadata with a fountainserver
// and downloads the file, per §6's client CLI. With -info-only it only
// probes the server and prints the negotiated metadata (§10).
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gofountain/fountain/pkg/client"
	"github.com/gofountain/fountain/pkg/config"
	"github.com/gofountain/fountain/pkg/pathsafe"
	"github.com/gofountain/fountain/pkg/sink"
)

const (
	defaultIP              = "127.0.0.1"
	defaultPort            = 2534
	defaultCacheMultiplier = 6
	negotiateTimeout       = 5 * time.Second
	progressLogEvery       = 200
)

func main() {
	cacheMul := flag.Int("c", defaultCacheMultiplier, "cache size as a multiple of section_size")
	flag.IntVar(cacheMul, "cachemul", defaultCacheMultiplier, "alias for -c")
	ip := flag.String("i", defaultIP, "server IP address")
	flag.StringVar(ip, "ip", defaultIP, "alias for -i")
	output := flag.String("o", "", "override output filename")
	flag.StringVar(output, "output", "", "alias for -o")
	port := flag.Int("p", defaultPort, "server UDP port")
	flag.IntVar(port, "port", defaultPort, "alias for -p")
	configPath := flag.String("config", "", "optional INI config file")
	verbose := flag.Bool("v", false, "raise log level to Debug")
	flag.BoolVar(verbose, "verbose", false, "alias for -v")
	infoOnly := flag.Bool("info-only", false, "probe the server for file metadata and exit")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}

	if *configPath != "" {
		cfg, err := config.LoadClient(*configPath)
		if err != nil {
			log.Fatalf("[CLIENT] failed to load config %q: %v", *configPath, err)
		}
		*cacheMul = config.OverrideInt(*cacheMul, cfg.CacheMultiplier, defaultCacheMultiplier)
		*ip = config.OverrideString(*ip, cfg.IP)
		*port = config.OverrideInt(*port, cfg.Port, defaultPort)
		*output = config.OverrideString(*output, cfg.Output)
		if cfg.Verbose && !*verbose {
			log.SetLevel(log.DebugLevel)
		}
	}

	serverAddr := &net.UDPAddr{IP: net.ParseIP(*ip), Port: *port}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{})
	if err != nil {
		log.Fatalf("[CLIENT] cannot open socket: %v", err)
	}
	defer conn.Close()

	info, err := client.Negotiate(conn, serverAddr, negotiateTimeout)
	if err != nil {
		log.Fatalf("[CLIENT] negotiation with %s:%d failed: %v", *ip, *port, err)
	}

	if *infoOnly {
		fmt.Printf("filename=%s filesize=%d section_size=%d blk_size=%d\n",
			info.Filename, info.Filesize, info.SectionSize, info.BlkSize)
		return
	}

	outName := *output
	if outName == "" {
		outName = info.Filename
	}
	cleanName, err := pathsafe.Clean(outName)
	if err != nil {
		log.Fatalf("[CLIENT] refusing unsafe output path %q: %v", outName, err)
	}
	if cleanName == "" {
		cleanName = filepath.Base(outName)
	}

	sectionBytes := int64(info.SectionSize) * int64(info.BlkSize)
	numSections := int64(1)
	if sectionBytes > 0 {
		numSections = (int64(info.Filesize) + sectionBytes - 1) / sectionBytes
		if numSections < 1 {
			numSections = 1
		}
	}
	mappedSize := numSections * sectionBytes

	outFile, err := os.OpenFile(cleanName, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		log.Fatalf("[CLIENT] cannot create %q: %v", cleanName, err)
	}
	defer outFile.Close()

	mapped, err := sink.NewMmapSink(outFile, mappedSize, info.SectionSize, info.BlkSize)
	if err != nil {
		log.Fatalf("[CLIENT] cannot map %q: %v", cleanName, err)
	}

	sess := client.NewSession(conn, serverAddr, info, mapped.ForSection, *cacheMul)
	sess.SetProgress(func(p client.Progress) {
		if p.PacketsReceived%progressLogEvery == 0 {
			log.Infof("[CLIENT] %d/%d sections solved, %d bytes written, %d packets received, %d discarded",
				p.SectionsSolved, p.TotalSections, p.BytesWritten, p.PacketsReceived, p.PacketsDiscarded)
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("[CLIENT] downloading %q (%d bytes) from %s:%d into %q", info.Filename, info.Filesize, *ip, *port, cleanName)
	runErr := sess.Run(ctx)
	if err := mapped.Unmap(); err != nil {
		log.Warnf("[CLIENT] failed to unmap %q: %v", cleanName, err)
	}
	if runErr != nil {
		log.Fatalf("[CLIENT] transfer failed: %v", runErr)
	}
	if err := outFile.Truncate(int64(info.Filesize)); err != nil {
		log.Warnf("[CLIENT] failed to truncate %q to exact file size: %v", cleanName, err)
	}
	log.Infof("[CLIENT] transfer complete: %q (%d bytes)", cleanName, info.Filesize)
}
