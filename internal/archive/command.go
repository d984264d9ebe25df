// Package archive builds and runs elm_archive transfer commands.
package archive

import (
	"fmt"
	"strings"
)

// DefaultBinary is the archive tool looked up on PATH.
const DefaultBinary = "elm_archive"

// Command is a fully resolved transfer invocation.
type Command struct {
	Program string
	Args    []string
}

// Transfer describes one path to hand to the archive tool.
type Transfer struct {
	Label           string
	Partition       string
	JobRequirements string // extra scheduler flags, split on whitespace
	Source          string
	Destination     string
}

// Label names the transfer job after the backup folder and position, so jobs
// in the scheduler queue can be matched back to manifest entries.
func Label(folder string, row, index int) string {
	return fmt.Sprintf("%s-%d.%d", folder, row, index)
}

// Destination mirrors the absolute source path under bucket/folder.
func Destination(bucket, folder, source string) string {
	return strings.TrimRight(bucket, "/") + "/" + strings.Trim(folder, "/") + "/" + strings.TrimLeft(source, "/")
}

// Build assembles the command line:
//
//	elm_archive transfer --label L -p PARTITION [job flags...] SOURCE DEST
func Build(program string, t Transfer) Command {
	if program == "" {
		program = DefaultBinary
	}
	args := []string{"transfer", "--label", t.Label, "-p", t.Partition}
	args = append(args, strings.Fields(t.JobRequirements)...)
	args = append(args, t.Source, t.Destination)
	return Command{Program: program, Args: args}
}

// String renders the command for display, quoting arguments a shell would split.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Program))
	for _, a := range c.Args {
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`!*?&;|<>()[]{}#~") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
