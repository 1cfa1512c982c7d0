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
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/wtsi-hgi/codebase/codebase"
	"github.com/wtsi-hgi/codebase/internal/ignore"
	"github.com/wtsi-hgi/codebase/resource"
	"github.com/wtsi-hgi/codebase/scanio"
)

const (
	toolName            = "codebase"
	outputFormatVersion = "1.0.0"
	timestampFormat     = "2006-01-02T150405.000000"
	stdoutPath          = "-"
	boltSuffix          = ".db"
	defaultIndent       = 2
)

// options for this cmd.
var (
	scanOutput      string
	scanStripRoot   bool
	scanFullRoot    bool
	scanMaxInMemory int
	scanMaxDepth    int
	scanPaths       []string
	scanIgnore      []string
	scanNoIgnore    bool
	scanInfo        bool
	scanTiming      bool
	scanSkinny      bool
	scanCompact     bool
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan <location>",
	Short: "Scan a file or directory",
	Long: `Scan a file or directory.

Walks the given file or directory, building a codebase of every file and
directory in it, and writes its scan data as JSON to STDOUT, or to the --output
file. Output files ending in .gz are gzip compressed, and those ending in .db
are written as a bolt database instead. Any of these can be given to 'load'.

Paths in the output start with the name of the scanned directory. Use
--strip_root to leave it out, or --full_root to use the full absolute location
instead.

Version control metadata (.git, .svn and the like), sockets, devices, pipes and
broken symlinks are ignored unless you give --no_ignore. You can ignore more
with --ignore glob patterns matched against the base name of each entry.

--max_depth limits how deep the walk goes, with 0 meaning no limit. --path
restricts the walk to the given paths relative to the scanned directory and
their ancestors.

--max_in_memory sets how many resources are held in memory before the rest go
to the disk cache: 0 keeps everything in memory and -1 puts everything on disk.
`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) != 1 {
			die("you must supply the location to scan")
		}

		if err := scan(args[0]); err != nil {
			die("%s", err)
		}
	},
}

func init() {
	RootCmd.AddCommand(scanCmd)

	defaults := codebase.DefaultOptions()

	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", stdoutPath,
		"path to write scan data to (.json, .json.gz or .db)")
	scanCmd.Flags().BoolVar(&scanStripRoot, "strip_root", false,
		"leave the scanned directory's name out of paths")
	scanCmd.Flags().BoolVar(&scanFullRoot, "full_root", false,
		"use full absolute locations as paths")
	scanCmd.Flags().IntVarP(&scanMaxInMemory, "max_in_memory", "m", defaults.MaxInMemory,
		"number of resources to keep in memory (0 for all, -1 for none)")
	scanCmd.Flags().IntVarP(&scanMaxDepth, "max_depth", "d", 0,
		"maximum depth to walk to (0 for no limit)")
	scanCmd.Flags().StringSliceVarP(&scanPaths, "path", "p", nil,
		"only include these paths relative to the scanned directory")
	scanCmd.Flags().StringSliceVarP(&scanIgnore, "ignore", "i", nil,
		"also ignore entries whose names match these glob patterns")
	scanCmd.Flags().BoolVar(&scanNoIgnore, "no_ignore", false,
		"do not ignore version control metadata and special files")
	scanCmd.Flags().BoolVar(&scanInfo, "info", true,
		"include file information and counts in the output")
	scanCmd.Flags().BoolVar(&scanTiming, "timing", false,
		"include scan timings in the output")
	scanCmd.Flags().BoolVar(&scanSkinny, "skinny", false,
		"only output the path and type of each resource")
	scanCmd.Flags().BoolVar(&scanCompact, "compact", false,
		"do not indent JSON output")
}

// scanOptions returns the codebase options for the flags.
func scanOptions() codebase.Options {
	opts := codebase.DefaultOptions()
	opts.StripRoot = scanStripRoot
	opts.FullRoot = scanFullRoot
	opts.MaxInMemory = scanMaxInMemory
	opts.MaxDepth = scanMaxDepth
	opts.Paths = scanPaths

	defaultIgnore := opts.Ignored
	if scanNoIgnore {
		defaultIgnore = ignore.Nothing
	}

	opts.Ignored = ignore.Any(defaultIgnore, ignore.Patterns(scanIgnore...))

	return opts
}

// scan builds a codebase from location and writes its scan data out.
func scan(location string) (err error) {
	start := time.Now()

	c, err := codebase.New(location, scanOptions())
	if err != nil {
		return err
	}

	defer func() {
		err = multierror.Append(err, c.Clear()).ErrorOrNil()
	}()

	info("scanned %d resources in %s", c.ResourcesCount(), time.Since(start).Round(time.Millisecond))

	counts, err := c.ComputeCounts(false, false)
	if err != nil {
		return err
	}

	c.SetFilesCount(counts.Files)
	recordHeader(c, start)

	for _, e := range c.Errors() {
		warn("%s", e)
	}

	return writeScan(c)
}

// recordHeader fills in the header of this run.
func recordHeader(c *codebase.Codebase, start time.Time) {
	end := time.Now()

	h := c.GetOrCreateCurrentHeader()
	h.ToolName = toolName
	h.ToolVersion = Version
	h.OutputFormatVersion = outputFormatVersion
	h.StartTimestamp = start.Format(timestampFormat)
	h.EndTimestamp = end.Format(timestampFormat)
	h.Duration = strconv.FormatFloat(end.Sub(start).Seconds(), 'f', -1, 64)
	h.Errors = append(h.Errors, c.Errors()...)
	h.Options = map[string]any{
		"strip_root":    scanStripRoot,
		"full_root":     scanFullRoot,
		"max_in_memory": int64(scanMaxInMemory),
		"max_depth":     int64(scanMaxDepth),
	}

	c.AddFilesCountToCurrentHeader()
}

// writeScan writes the codebase to the --output path.
func writeScan(c *codebase.Codebase) error {
	opts := scanio.WriteOptions{
		DictOptions: resource.DictOptions{
			WithInfo:   scanInfo,
			WithTiming: scanTiming,
			Skinny:     scanSkinny,
		},
		SkipRoot: scanStripRoot,
	}

	if !scanCompact {
		opts.Indent = defaultIndent
	}

	switch {
	case scanOutput == stdoutPath:
		return writeJSONTo(os.Stdout, c, opts)
	case strings.HasSuffix(scanOutput, boltSuffix):
		return scanio.WriteBolt(scanOutput, c)
	default:
		return scanio.WriteJSONFile(scanOutput, c, opts)
	}
}

func writeJSONTo(w io.Writer, c *codebase.Codebase, opts scanio.WriteOptions) error {
	if err := scanio.WriteJSON(w, c, opts); err != nil {
		return err
	}

	_, err := io.WriteString(w, "\n")

	return err
}
