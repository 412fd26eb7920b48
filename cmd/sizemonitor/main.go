// Command sizemonitor prints a live-refreshing table of the files in a
// recordings directory (name, size, last-modified), refreshing promptly on
// fsnotify write events and falling back to a periodic tick.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
)

var directory = flag.String("directory", "recordings", "directory to monitor")

func main() {
	flag.Parse()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Fatalf("fsnotify: %v", err)
	}
	defer watcher.Close()
	if err := watcher.Add(*directory); err != nil {
		log.Fatalf("watch %s: %v", *directory, err)
	}

	render(*directory)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-watcher.Events:
			render(*directory)
		case <-ticker.C:
			render(*directory)
		case err := <-watcher.Errors:
			log.Printf("watch error: %v", err)
		}
	}
}

type row struct {
	name     string
	size     int64
	modified time.Time
}

func render(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Printf("read dir: %v", err)
		return
	}

	var rows []row
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		rows = append(rows, row{name: e.Name(), size: info.Size(), modified: info.ModTime()})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].modified.After(rows[j].modified) })

	fmt.Print("\x1b[2J\x1b[H")
	fmt.Printf("%-30s %-12s %-20s\n", "File Name", "Size (bytes)", "Last Updated")
	for _, r := range rows {
		fmt.Printf("%-30s %-12d %-20s\n", r.name, r.size, r.modified.Format("2006-01-02 15:04:05"))
	}
}
