/*******************************************************************************
 * Copyright (c) 2025 Genome Research Ltd.
 *
 * Permission is hereby granted, free of charge, to any person obtaining
 * a copy of this software and associated documentation files (the
 * "Software"), to deal in the Software without restriction, including
 * without limitation the rights to use, copy, modify, merge, publish,
 * distribute, sublicense, and/or sell copies of the Software, and to
 * permit persons to whom the Software is furnished to do so, subject to
 * the following conditions:
 *
 * The above copyright notice and this permission notice shall be included
 * in all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
 * EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
 * MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
 * IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY
 * CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT,
 * TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN CONNECTION WITH THE
 * SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 ******************************************************************************/

package cmd

import (
	"fmt"
	"os"

	"code.cloudfoundry.org/bytefmt"
	"github.com/dustin/go-humanize" //nolint:misspell
	"github.com/hashicorp/go-multierror"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/codebase/codebase"
	"github.com/wtsi-hgi/codebase/internal/paths"
	"github.com/wtsi-hgi/codebase/resource"
	"github.com/wtsi-hgi/codebase/scanio"
)

const defaultLoadDepth = 1

// options for this cmd.
var (
	loadMaxInMemory int
	loadDepth       int
	loadSize        string
	loadOutput      string
	loadHeaders     bool
)

// loadCmd represents the load command.
var loadCmd = &cobra.Command{
	Use:   "load <scan data> [scan data...]",
	Short: "Load scan data as a virtual codebase",
	Long: `Load scan data as a virtual codebase.

Each argument is the output of 'scan': a .json, .json.gz or .db file, or raw
JSON text. When more than one is given, or their paths do not share a first
segment, they are nested under a single "virtual_root" directory.

The totals of the loaded codebase are reported, followed by a table of the
directories from the lowest common parent (the deepest directory that has
everything nested under it) down to --depth levels below it, with the count of
files nested in each directory and the total size of those files. Directories
with less than --size of data nested inside (specify your own units, eg. 50M
for 50 megabytes) are not displayed.

--headers also shows a table of the tool runs recorded in the scan data.

The merged codebase can be written back out with --output, in any of the
formats 'scan' can write.
`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) == 0 {
			die("you must supply at least one scan output to load")
		}

		if logPath == "" {
			setCLIFormat()
		}

		var minSize uint64

		if loadSize != "" {
			var err error

			if minSize, err = bytefmt.ToBytes(loadSize); err != nil {
				die("bad --size: %s", err)
			}
		}

		if err := load(args, minSize); err != nil {
			die("%s", err)
		}
	},
}

func init() {
	RootCmd.AddCommand(loadCmd)

	loadCmd.Flags().IntVarP(&loadMaxInMemory, "max_in_memory", "m", codebase.DefaultOptions().MaxInMemory,
		"number of resources to keep in memory (0 for all, -1 for none)")
	loadCmd.Flags().IntVarP(&loadDepth, "depth", "d", defaultLoadDepth,
		"number of levels below the lowest common parent to report on")
	loadCmd.Flags().StringVar(&loadSize, "size", "",
		"minimum size (specify the unit) of files nested under a directory for it to be reported on")
	loadCmd.Flags().StringVarP(&loadOutput, "output", "o", "",
		"also write the loaded codebase to this path (.json, .json.gz or .db)")
	loadCmd.Flags().BoolVar(&loadHeaders, "headers", false,
		"show the tool runs recorded in the scan data")
}

// load builds a virtual codebase from the inputs and reports on it.
func load(inputs []string, minSize uint64) (err error) {
	payloads, err := scanio.LoadAll(inputs...)
	if err != nil {
		return err
	}

	opts := codebase.DefaultOptions()
	opts.MaxInMemory = loadMaxInMemory

	c, err := codebase.NewVirtual(opts, payloads...)
	if err != nil {
		return err
	}

	defer func() {
		err = multierror.Append(err, c.Clear()).ErrorOrNil()
	}()

	counts, err := c.ComputeCounts(true, false)
	if err != nil {
		return err
	}

	cliPrint("Files: %d\nDirs: %d\nSize: %s\n\n", counts.Files, counts.Dirs, humanize.IBytes(uint64(counts.Size))) //nolint:gosec

	if loadHeaders {
		printHeaders(c.Headers())
	}

	if err = printWhere(c, minSize); err != nil {
		return err
	}

	if loadOutput == "" {
		return nil
	}

	scanOutput = loadOutput

	return writeScan(c)
}

// printHeaders prints a table of the given headers to STDOUT.
func printHeaders(headers []*resource.Header) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Tool", "Version", "Start", "Duration", "Files", "Errors"})

	for _, h := range headers {
		table.Append([]string{
			h.ToolName,
			h.ToolVersion,
			h.StartTimestamp,
			h.Duration,
			fmt.Sprintf("%v", h.ExtraData["files_count"]),
			fmt.Sprintf("%d", len(h.Errors)),
		})
	}

	table.Render()
	cliPrint("\n")
}

// printWhere prints a table of the directories from the lowest common parent
// down to --depth levels below it.
func printWhere(c *codebase.Codebase, minSize uint64) error {
	lcp, err := c.LowestCommonParent()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Directory", "Files", "Dirs", "Size"})

	maxSegments := len(paths.Split(lcp.Path)) + loadDepth
	tooDeep := func(r *resource.Resource, _ *codebase.Codebase) bool {
		return len(paths.Split(r.Path)) > maxSegments
	}

	skipped := 0

	appendDir := func(r *resource.Resource) {
		if r.IsFile {
			return
		}

		if uint64(r.SizeCount) < minSize { //nolint:gosec
			skipped++

			return
		}

		table.Append(whereColumns(r))
	}

	appendDir(lcp)

	for r, errw := range c.WalkResource(lcp, codebase.TopDown, tooDeep) {
		if errw != nil {
			return errw
		}

		appendDir(r)
	}

	table.Render()
	printSkipped(skipped)

	return nil
}

// whereColumns returns the column data to display in the table for a
// directory.
func whereColumns(r *resource.Resource) []string {
	return []string{
		r.Path,
		fmt.Sprintf("%d", r.FilesCount),
		fmt.Sprintf("%d", r.DirsCount),
		humanize.IBytes(uint64(r.SizeCount)), //nolint:gosec
	}
}

// printSkipped prints the given number of results were skipped.
func printSkipped(n int) {
	if n == 0 {
		return
	}

	warn("(%d directories not displayed as smaller than --size)", n)
}
