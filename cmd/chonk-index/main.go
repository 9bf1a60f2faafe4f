// Command chonk-index walks a filesystem subtree into an in-memory chonk
// tree and prints aggregate size stats once the walk completes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"golang.org/x/term"
	"k8s.io/klog/v2"

	"github.com/probably-neb/chonk"
	"github.com/probably-neb/chonk/indexer"
	"github.com/probably-neb/chonk/readview"
)

func main() {
	klog.InitFlags(nil)

	var (
		rootPath      = flag.String("root-path", ".", "absolute or relative path to index")
		reservedBytes = flag.Int("reserved-bytes", chonk.DefaultConfig().ReservedAddressBytes, "virtual address space to reserve, in bytes")
		headerPages   = flag.Int("header-pages", chonk.DefaultConfig().HeaderPages, "number of header pages (must be >= 2)")
		pageSize      = flag.Int("page-size", chonk.DefaultConfig().PageSize, "page size in bytes; 0 means os.Getpagesize()")
	)
	flag.Parse()

	abs, err := absPath(*rootPath)
	if err != nil {
		klog.Exitf("chonk-index: %v", err)
	}

	ts, err := chonk.NewTreeStore(abs, chonk.Config{
		ReservedAddressBytes: *reservedBytes,
		HeaderPages:          *headerPages,
		PageSize:             *pageSize,
	})
	if err != nil {
		klog.Exitf("chonk-index: failed to create tree store: %v", err)
	}
	defer ts.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ix := indexer.New(ts)
	done, err := ix.Walk(ctx, abs)
	if err != nil {
		klog.Exitf("chonk-index: failed to start walk: %v", err)
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
loop:
	for {
		select {
		case <-done:
			break loop
		case <-ticker.C:
			printStats(ix.Stats())
		}
	}

	printStats(ix.Stats())
	printSummary(ts)
}

func absPath(p string) (string, error) {
	abs, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if p == "" || p == "." {
		return abs, nil
	}
	if p[0] == '/' {
		return p, nil
	}
	return abs + "/" + p, nil
}

func printStats(s indexer.Stats) {
	klog.Infof("files_indexed=%d pages_committed=%d rate=%.1f/s", s.FilesIndexed, s.PagesCommitted, s.RatePerSecond)
}

func printSummary(ts *chonk.TreeStore) {
	rv := readview.New(ts)
	children, status := rv.ChildrenOf(ts.Root())

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	fmt.Printf("\n%s\n", ts.RootPath())
	fmt.Println(strings.Repeat("-", min(width, 80)))
	switch status {
	case chonk.Empty:
		fmt.Println("(empty)")
	case chonk.NotReady:
		fmt.Println("(root not fully published — walk aborted early)")
	case chonk.Ready:
		for _, c := range children {
			fmt.Printf("%10d  %-6s  %s\n", c.ByteCount, c.Kind, c.Name)
		}
	}
}
