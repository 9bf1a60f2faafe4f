// Command chonk-explore is a minimal terminal browser over a chonk
// readview.Reader: a single-pane, sorted child list with drill-down and
// backtrack navigation. It deliberately does not compute any layout — no
// treemap, no squarification — it only proves the ReadView contract is
// consumable from a real TUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"k8s.io/klog/v2"

	"github.com/probably-neb/chonk"
	"github.com/probably-neb/chonk/indexer"
	"github.com/probably-neb/chonk/readview"
)

func main() {
	klog.InitFlags(nil)
	rootPath := flag.String("root-path", ".", "path to browse")
	cacheSize := flag.Int("cache-size", 256, "readview cache entries; 0 disables caching")
	flag.Parse()

	abs, err := os.Getwd()
	if err != nil {
		klog.Exitf("chonk-explore: %v", err)
	}
	if *rootPath != "." && *rootPath != "" {
		abs = *rootPath
	}

	ts, err := chonk.NewTreeStore(abs, chonk.DefaultConfig())
	if err != nil {
		klog.Exitf("chonk-explore: failed to create tree store: %v", err)
	}
	defer ts.Close()

	ix := indexer.New(ts)
	if _, err := ix.Walk(context.Background(), abs); err != nil {
		klog.Exitf("chonk-explore: failed to start walk: %v", err)
	}

	var rv *readview.Reader
	if *cacheSize > 0 {
		rv, err = readview.NewCached(ts, *cacheSize)
		if err != nil {
			klog.Warningf("chonk-explore: cache disabled: %v", err)
			rv = readview.New(ts)
		}
	} else {
		rv = readview.New(ts)
	}

	app := tview.NewApplication()
	list := tview.NewList().ShowSecondaryText(false)
	path := tview.NewTextView().SetDynamicColors(true)

	stack := []navFrame{{ref: rv.Root(), label: abs}}

	var render func()
	render = func() {
		top := stack[len(stack)-1]
		path.SetText(fmt.Sprintf("[yellow]%s", top.label))
		list.Clear()

		children, status := rv.ChildrenOf(top.ref)
		switch status {
		case chonk.NotReady:
			list.AddItem("(indexing this directory…)", "", 0, nil)
		case chonk.Empty:
			list.AddItem("(empty)", "", 0, nil)
		case chonk.Ready:
			if len(stack) > 1 {
				list.AddItem("..", "", 0, func() {
					stack = stack[:len(stack)-1]
					render()
				})
			}
			for _, c := range children {
				c := c
				label := fmt.Sprintf("%10d  %-6s  %s", c.ByteCount, c.Kind, c.Name)
				list.AddItem(label, "", 0, func() {
					if c.Kind == chonk.KindDir {
						stack = append(stack, navFrame{ref: c.Ref, label: top.label + "/" + c.Name})
						render()
					}
				})
			}
		}
	}
	render()

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc && len(stack) > 1 {
			stack = stack[:len(stack)-1]
			render()
			return nil
		}
		return event
	})

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(path, 1, 0, false).
		AddItem(list, 0, 1, true)

	if err := app.SetRoot(layout, true).Run(); err != nil {
		klog.Exitf("chonk-explore: %v", err)
	}
}

type navFrame struct {
	ref   chonk.EntryRef
	label string
}
