// fibsclip - FIBS client protocol toolbox
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/gofibs/internal/config"
	"github.com/yourusername/gofibs/internal/logging"
	"github.com/yourusername/gofibs/internal/positionid"
	"github.com/yourusername/gofibs/pkg/clip"
	"github.com/yourusername/gofibs/pkg/engine"
	"github.com/yourusername/gofibs/pkg/match"
	"github.com/yourusername/gofibs/pkg/session"
	"github.com/yourusername/gofibs/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "parse":
		cmdParse(args)
	case "checkmove":
		cmdCheckMove(args)
	case "replay":
		cmdReplay(args)
	case "matches":
		cmdMatches(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`fibsclip - FIBS client protocol toolbox

Usage: fibsclip <command> [options]

Commands:
  parse      Parse FIBS output and print the token streams
  checkmove  Classify the move between two board lines
  replay     Replay a session log and summarize its matches
  matches    List archived matches

Use "fibsclip <command> -h" for command-specific help.

Configuration is read from the file given with -config and from
GOFIBS_* environment variables (GOFIBS_REDIS_URL, GOFIBS_NAME, ...).`)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// setup parses fs and loads configuration and logger.
func setup(fs *flag.FlagSet, args []string) (*config.Config, *zap.Logger) {
	cfgFile := fs.String("config", "", "YAML configuration file")
	verbose := fs.Bool("v", false, "Log debug messages")
	fs.Parse(args)

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fatalf("%v", err)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fatalf("%v", err)
	}
	return cfg, log
}

// openInput opens the named file, or stdin for "" and "-".
func openInput(name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

func openStore(cfg *config.Config, log *zap.Logger) (*store.Store, error) {
	if cfg.Redis.URL == "" {
		return nil, fmt.Errorf("no redis url configured (set GOFIBS_REDIS_URL)")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return store.Open(ctx, cfg.Redis.URL,
		store.WithPrefix(cfg.Redis.Prefix),
		store.WithTTL(cfg.Redis.TTL),
		store.WithLogger(log))
}

func cmdParse(args []string) {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	all := fs.Bool("all", false, "Also print lines that do not parse")
	_, log := setup(fs, args)
	defer log.Sync()

	in, err := openInput(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer in.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		tokens, ok := clip.Parse(line)
		if !ok {
			if *all {
				fmt.Fprintf(out, "-\t%s\n", line)
			}
			continue
		}
		raw, err := json.Marshal(tokens)
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Fprintf(out, "%s\t%s\n", tokens.MessageCode(), raw)
	}
	if err := scanner.Err(); err != nil {
		fatalf("reading input: %v", err)
	}
}

func cmdCheckMove(args []string) {
	fs := flag.NewFlagSet("checkmove", flag.ExitOnError)
	beforeFlag := fs.String("before", "", "Board line before the move")
	afterFlag := fs.String("after", "", "Board line after the move")
	sideFlag := fs.String("side", "", "Side that moved: white or black (default: side on roll)")
	_, log := setup(fs, args)
	defer log.Sync()

	if *beforeFlag == "" || *afterFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: before and after boards required")
		fmt.Fprintln(os.Stderr, "Usage: fibsclip checkmove -before <board> -after <board>")
		os.Exit(1)
	}

	before, err := clip.DecodeBoard(*beforeFlag)
	if err != nil {
		fatalf("before: %v", err)
	}
	after, err := clip.DecodeBoard(*afterFlag)
	if err != nil {
		fatalf("after: %v", err)
	}

	side := before.Position.Turn
	switch strings.ToLower(*sideFlag) {
	case "":
	case "white":
		side = engine.White
	case "black":
		side = engine.Black
	default:
		fatalf("side must be white or black")
	}
	if side == engine.None {
		fatalf("nobody on roll, use -side")
	}

	dir := before.Direction
	if side == engine.Black {
		dir = -dir
	}
	mv := engine.CheckMove(before.Position, after.Position, side)
	fmt.Printf("Side:   %s\n", side)
	fmt.Printf("Status: %s\n", mv.Status)
	if len(mv.Movements) > 0 {
		fmt.Printf("Move:   %s\n", mv)
		fmt.Printf("FIBS:   %s\n", clip.FormatMovements(mv.Movements, dir))
	}
	fmt.Printf("After:  %s\n", positionid.Encode(after.Position))
	if mv.Status != engine.Legal {
		os.Exit(2)
	}
}

func cmdReplay(args []string) {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	name := fs.String("name", "", "Login name of the client (default from config)")
	save := fs.Bool("save", false, "Archive the matches in Redis")
	matFile := fs.String("mat", "", "Write the matches in .mat format to this file")
	cfg, log := setup(fs, args)
	defer log.Sync()

	in, err := openInput(fs.Arg(0))
	if err != nil {
		fatalf("%v", err)
	}
	defer in.Close()

	login := cfg.Session.Name
	if *name != "" {
		login = *name
	}
	s := session.New(session.WithName(login), session.WithLogger(log))
	st, err := s.Replay(in)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Lines: %d, parsed: %d, failed: %d\n", st.Lines, st.Parsed, st.Failed)
	for _, m := range s.Matches() {
		printSummary(store.Summarize(m))
	}

	if *matFile != "" {
		if err := writeMAT(*matFile, s.Matches()); err != nil {
			fatalf("%v", err)
		}
	}

	if *save {
		archive, err := openStore(cfg, log)
		if err != nil {
			fatalf("%v", err)
		}
		defer archive.Close()
		for _, m := range s.Matches() {
			if err := archive.Save(context.Background(), m); err != nil {
				fatalf("%v", err)
			}
		}
		fmt.Printf("Saved %d match(es)\n", len(s.Matches()))
	}
}

func writeMAT(path string, matches []*match.Match) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for i, m := range matches {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := match.ExportMAT(w, m); err != nil {
			f.Close()
			return fmt.Errorf("exporting match %s: %w", m.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printSummary(s store.Summary) {
	length := "unlimited"
	if s.Length > 0 {
		length = fmt.Sprintf("%d point", s.Length)
	}
	fmt.Printf("\nMatch %s: %s vs %s, %s\n", s.ID, s.Players[0], s.Players[1], length)
	fmt.Printf("  Score: %d-%d", s.Scores[0], s.Scores[1])
	if s.Winner != "" {
		fmt.Printf(", won by %s", s.Winner)
	}
	fmt.Println()
	for _, g := range s.Games {
		crawford := ""
		if g.Crawford {
			crawford = " (Crawford)"
		}
		result := "unfinished"
		if g.Winner != "" {
			result = fmt.Sprintf("%s wins %d", g.Winner, g.Points)
		}
		fmt.Printf("  Game %d at %d-%d%s: %d actions, %s\n",
			g.Number, g.Scores[0], g.Scores[1], crawford, g.Actions, result)
	}
}

func cmdMatches(args []string) {
	fs := flag.NewFlagSet("matches", flag.ExitOnError)
	n := fs.Int("n", 20, "Number of matches to list")
	cfg, log := setup(fs, args)
	defer log.Sync()

	st, err := openStore(cfg, log)
	if err != nil {
		fatalf("%v", err)
	}
	defer st.Close()

	sums, err := st.Recent(context.Background(), *n)
	if err != nil {
		fatalf("%v", err)
	}
	if len(sums) == 0 {
		fmt.Println("No matches archived")
		return
	}
	for _, s := range sums {
		fmt.Printf("%s  %s  %-16s %-16s %d-%d/%d\n",
			s.Updated.Local().Format("2006-01-02 15:04"), s.ID,
			s.Players[0], s.Players[1], s.Scores[0], s.Scores[1], s.Length)
	}
}
