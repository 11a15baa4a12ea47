// Command arc lists directories and the contents of archive files.
//
// Usage:
//
//	$ arc [<flags>] ls [<flags>] [<paths>...]
//	$ arc formats
//
// With --inspect-archives, archive files are listed like directories:
//
//	$ arc ls -lI backup.tar.gz
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/mholt/archivefs"
)

var (
	app       = kingpin.New("arc", "List directories and the contents of archive files.")
	logLevel  = app.Flag("log-level", "Minimum level of log messages written to stderr.").Default("warn").Enum("debug", "info", "warn", "error")
	colorMode = app.Flag("color", "When to colorize output.").Default("auto").Enum("auto", "always", "never")

	lsCommand  = app.Command("ls", "List files, directories and archives.").Default()
	lsLong     = lsCommand.Flag("long", "Show permissions, owners, sizes and times.").Short('l').Bool()
	lsAll      = lsCommand.Flag("all", "Show files whose names start with a dot.").Short('a').Bool()
	lsRecurse  = lsCommand.Flag("recurse", "List directories recursively.").Short('R').Bool()
	lsDeref    = lsCommand.Flag("dereference", "Show the metadata of link targets instead of links.").Short('L').Bool()
	lsHuman    = lsCommand.Flag("human", "Show sizes in binary units.").Bool()
	lsInspect  = lsCommand.Flag("inspect-archives", "List the contents of archive files like directories.").Short('I').Envar("ARC_INSPECT_ARCHIVES").Bool()
	lsEncoding = lsCommand.Flag("name-encoding", "Encoding of names in archives that are not UTF-8, e.g. cp437 or shift_jis.").String()
	lsPaths    = lsCommand.Arg("paths", "Files and directories to list.").Default(".").Strings()

	formatsCommand = app.Command("formats", "List the archive extensions that can be inspected.")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	logger := newLogger(*logLevel)
	defer logger.Sync() //nolint:errcheck

	setupColor(*colorMode)

	switch command {
	case lsCommand.FullCommand():
		tar := archivefs.Tar{Logger: logger.Named("tar")}
		if *lsEncoding != "" {
			enc, err := ianaindex.IANA.Encoding(*lsEncoding)
			if err != nil || enc == nil {
				app.Fatalf("unsupported name encoding %q", *lsEncoding)
			}
			tar.NameEncoding = enc
		}

		l := &lister{
			out:        os.Stdout,
			errOut:     os.Stderr,
			long:       *lsLong,
			all:        *lsAll,
			recurse:    *lsRecurse,
			deref:      *lsDeref,
			human:      *lsHuman,
			inspection: archivefs.InspectionFromFlag(*lsInspect),
			tar:        tar,
			log:        logger,
		}
		status := l.run(*lsPaths)
		logger.Sync() //nolint:errcheck
		os.Exit(status)

	case formatsCommand.FullCommand():
		for _, ext := range archivefs.Extensions() {
			format, _ := archivefs.FormatFromExtension(ext)
			fmt.Printf(".%s\t%s\n", ext, format.Name())
		}
	}
}

// newLogger returns a logger writing human-readable messages to stderr.
func newLogger(level string) *zap.Logger {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.WarnLevel
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        zapcore.OmitKey,
		LevelKey:       "L",
		NameKey:        "N",
		CallerKey:      zapcore.OmitKey,
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "M",
		StacktraceKey:  "S",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeName:     zapcore.FullNameEncoder,
	})

	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), lvl))
}

func setupColor(mode string) {
	switch mode {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		fd := os.Stdout.Fd()
		color.NoColor = !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd)
	}
}
