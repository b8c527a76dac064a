// Command gen_snapshots_table regenerates the snapshot gallery section of
// the README from the golden PNGs the integration suite produces. It edits
// the README in place between a pair of HTML marker comments.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	startMarker = "<!-- SNAPSHOTS:START -->"
	endMarker   = "<!-- SNAPSHOTS:END -->"
)

type snapshot struct {
	name    string
	encoded string // URL-escaped filename
}

func main() {
	var (
		readme    string
		snapshots string
		cols      int
		width     int
	)
	flag.StringVar(&readme, "readme", "README.md", "Path to README file to update in place")
	flag.StringVar(&snapshots, "snapshots", filepath.Join("test", "integration", "testdata", "snapshots"), "Snapshots directory")
	flag.IntVar(&cols, "cols", 4, "Number of columns per row")
	flag.IntVar(&width, "width", 80, "Image width in pixels")
	flag.Parse()

	items, err := collectSnapshots(snapshots)
	if err != nil {
		fatalf("reading %s: %v", snapshots, err)
	}

	table := renderTable(items, snapshots, cols, width)
	if err := spliceIntoReadme(readme, table); err != nil {
		fatalf("%v", err)
	}
}

// collectSnapshots lists the golden PNGs, skipping the *_actual.png files a
// failing test run leaves behind.
func collectSnapshots(dir string) ([]snapshot, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var items []snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".png") {
			continue
		}
		if strings.Contains(name, "_actual.") {
			continue
		}
		items = append(items, snapshot{
			name:    strings.TrimSuffix(name, ".png"),
			encoded: url.PathEscape(name),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].name < items[j].name })
	return items, nil
}

func renderTable(items []snapshot, dir string, cols, width int) []byte {
	if cols <= 0 {
		cols = 3
	}

	var buf bytes.Buffer
	buf.WriteString("<table>\n")
	for i := 0; i < len(items); i += cols {
		buf.WriteString("  <tr>\n")
		for c := 0; c < cols; c++ {
			if i+c >= len(items) {
				buf.WriteString("    <td></td>\n")
				continue
			}
			it := items[i+c]
			src := filepath.ToSlash(filepath.Join(dir, it.encoded))
			fmt.Fprintf(&buf, "    <td align=\"center\"><img src=%q width=\"%d\" /><br><sub>%s</sub></td>\n", src, width, it.name)
		}
		buf.WriteString("  </tr>\n")
	}
	buf.WriteString("</table>\n")
	return buf.Bytes()
}

// spliceIntoReadme replaces the marked section of the README with table.
func spliceIntoReadme(readme string, table []byte) error {
	readmeBytes, err := os.ReadFile(readme)
	if err != nil {
		return fmt.Errorf("reading %s: %v", readme, err)
	}

	content := string(readmeBytes)
	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("markers not found in %s: ensure %s and %s exist", readme, startMarker, endMarker)
	}

	var out bytes.Buffer
	out.WriteString(content[:start+len(startMarker)])
	out.WriteString("\n")
	out.Write(table)
	after := content[end:]
	if !strings.HasPrefix(after, "\n") {
		out.WriteString("\n")
	}
	out.WriteString(after)

	return os.WriteFile(readme, out.Bytes(), 0644)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
