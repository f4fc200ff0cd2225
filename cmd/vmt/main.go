package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xplshn/vmt/pkg/cli"
	"github.com/xplshn/vmt/pkg/config"
	"github.com/xplshn/vmt/pkg/token"
	"github.com/xplshn/vmt/pkg/translator"
	"github.com/xplshn/vmt/pkg/util"
)

func main() {
	app := cli.NewApp("vmt")
	app.Synopsis = "[options] <input.vm>"
	app.Description = "A single-pass translator from stack-based VM code to Hack assembly."
	app.Authors = []string{"xplshn"}
	app.Repository = "<https://github.com/xplshn/vmt>"

	var (
		outFile   string
		debugDump bool
	)
	fs := app.FlagSet
	fs.String(&outFile, "output", "o", "", "Place the output into <file> (default: input with .asm).", "file")
	fs.Bool(&debugDump, "debug-dump", "d", false, "Dump the parsed instruction list to stderr.")

	cfg := config.NewConfig()
	warningFlags, featureFlags := cfg.SetupFlagGroups(fs)

	app.Action = func(inputFiles []string) error {
		cfg.Apply(warningFlags, featureFlags)

		if len(inputFiles) != 1 {
			util.Error(token.Token{}, "expected exactly one input file, got %d", len(inputFiles))
		}
		srcName := inputFiles[0]
		if filepath.Ext(srcName) != ".vm" {
			util.Error(token.Token{}, "input must be a .vm file (provided: %s)", srcName)
		}

		out := outFile
		if out == "" {
			out = strings.TrimSuffix(srcName, ".vm") + ".asm"
		}

		content, err := os.ReadFile(srcName)
		if err != nil {
			util.Error(token.Token{FileIndex: -1}, "could not read '%s': %v", srcName, err)
		}
		util.SetSourceFiles([]util.SourceFileRecord{{Name: srcName, Content: []rune(string(content))}})

		stem := strings.TrimSuffix(filepath.Base(srcName), ".vm")
		lines := strings.Split(strings.ReplaceAll(string(content), "\r\n", "\n"), "\n")

		session := translator.New(stem, 0, lines, cfg)
		if err := session.Process(); err != nil {
			var perr *util.PosError
			if errors.As(err, &perr) {
				util.Error(perr.Tok, "%v", perr.Err)
			}
			util.Error(token.Token{}, "%v", err)
		}

		if debugDump {
			session.Debug(os.Stderr)
		}

		if err := os.WriteFile(out, []byte(session.Render()), 0644); err != nil {
			util.Error(token.Token{}, "could not write '%s': %v", out, err)
		}
		fmt.Printf("vmt: translated %s -> %s\n", srcName, out)
		return nil
	}

	if err := app.Run(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
